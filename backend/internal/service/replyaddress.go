package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
	"github.com/itchan-dev/askchan/shared/utils"
)

const (
	AddressMinLen = 12
	AddressMaxLen = 25

	maxIssueAttempts = 16
	// email replies are measured in "words" of this many runes
	runesPerWord = 6
)

// ErrUnsupportedPostType is returned by Redeem for posts that can't be replied to by email.
// The reply address is consumed anyway.
var ErrUnsupportedPostType = &errors.ErrorWithStatusCode{Message: "Replies by email are not supported for this post", StatusCode: http.StatusUnprocessableEntity}

// ErrReplyAddressSpent replaces internal failures that happen after the address was claimed.
// The address can't be claimed again, so redelivering the email can't succeed.
var ErrReplyAddressSpent = &errors.ErrorWithStatusCode{Message: "Reply address is used up, the reply was not posted", StatusCode: http.StatusGone}

// spent keeps client errors as they are and hides the rest behind ErrReplyAddressSpent.
func spent(err error) error {
	if errors.StatusCode(err) >= http.StatusInternalServerError {
		return ErrReplyAddressSpent
	}
	return err
}

type ReplyAddressStorage interface {
	Post(ctx context.Context, id domain.PostId) (*domain.Post, error)
	User(ctx context.Context, id domain.UserId) (domain.User, error)
	CreateReplyAddress(ctx context.Context, data domain.ReplyAddressCreationData) (domain.ReplyAddressId, time.Time, error)
	UnusedReplyAddress(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error)
	ClaimReplyAddress(ctx context.Context, id domain.ReplyAddressId) (time.Time, bool, error)
}

// ReplyActor performs forum actions on behalf of the address owner.
type ReplyActor interface {
	Answer(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error)
	Comment(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error)
}

type Email interface {
	SendWithReplyTo(recipientEmail, replyTo, subject, body string) error
}

type ReplyAddresses struct {
	storage     ReplyAddressStorage
	actor       ReplyActor
	email       Email
	minWords    int
	replyDomain string
	generate    func() domain.Address
}

// NewReplyAddresses creates the registry. email may be nil when SMTP isn't configured.
func NewReplyAddresses(storage ReplyAddressStorage, actor ReplyActor, email Email, cfg *config.Config) *ReplyAddresses {
	return &ReplyAddresses{
		storage:     storage,
		actor:       actor,
		email:       email,
		minWords:    cfg.MinWordsForAnswerByEmail(),
		replyDomain: cfg.Public.ReplyEmailDomain,
		generate:    GenerateAddress,
	}
}

// GenerateAddress returns a random [a-z0-9] string with length uniform in [AddressMinLen, AddressMaxLen].
func GenerateAddress() domain.Address {
	return utils.GenerateRandomString(utils.RandomIntBetween(AddressMinLen, AddressMaxLen), utils.LowerAlphanumeric)
}

// ReplyTo is the mailbox a user writes to in order to redeem address.
func (r *ReplyAddresses) ReplyTo(address domain.Address) string {
	return fmt.Sprintf("reply+%s@%s", address, r.replyDomain)
}

// Issue creates an unused reply address letting userId act on postId.
// Collisions are retried with a fresh address.
func (r *ReplyAddresses) Issue(ctx context.Context, postId domain.PostId, userId domain.UserId) (domain.ReplyAddress, error) {
	post, err := r.storage.Post(ctx, postId)
	if err != nil {
		return domain.ReplyAddress{}, err
	}
	if post.Deleted {
		return domain.ReplyAddress{}, errPostNotFound
	}
	user, err := r.storage.User(ctx, userId)
	if err != nil {
		return domain.ReplyAddress{}, err
	}

	allowedFrom := strings.ToLower(user.Email)
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		address := r.generate()
		id, createdAt, err := r.storage.CreateReplyAddress(ctx, domain.ReplyAddressCreationData{
			Address:          address,
			PostId:           post.Id,
			UserId:           user.Id,
			AllowedFromEmail: allowedFrom,
		})
		if errors.Is(err, errors.ErrReplyAddressTaken) {
			logger.Log.Warn("reply address collision", "component", "reply_address", "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.ReplyAddress{}, err
		}

		replyAddressesIssued.Inc()
		logger.Log.Info("reply address issued", "component", "reply_address", "post_id", post.Id, "user_id", user.Id)
		return domain.ReplyAddress{
			Id:               id,
			Address:          address,
			Post:             *post,
			User:             user,
			AllowedFromEmail: allowedFrom,
			CreatedAt:        createdAt,
		}, nil
	}
	return domain.ReplyAddress{}, fmt.Errorf("failed to issue a unique reply address after %d attempts", maxIssueAttempts)
}

// LookupUnused finds the unconsumed address issued to allowedFromEmail.
func (r *ReplyAddresses) LookupUnused(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error) {
	return r.storage.UnusedReplyAddress(ctx, strings.ToLower(address), strings.ToLower(strings.TrimSpace(allowedFromEmail)))
}

// Redeem consumes token and turns content into an answer or a comment by token.User.
// The token is burned before acting, so a failed action still uses it up.
func (r *ReplyAddresses) Redeem(ctx context.Context, token *domain.ReplyAddress, content string) (domain.ReplyResult, error) {
	usedAt, claimed, err := r.storage.ClaimReplyAddress(ctx, token.Id)
	if err != nil {
		return domain.ReplyResult{Action: domain.ReplyActionNone}, err
	}
	if !claimed {
		return domain.ReplyResult{Action: domain.ReplyActionNone}, errors.NotFound("Reply address not found")
	}
	token.UsedAt = &usedAt

	content = strings.TrimSpace(content)
	post := token.Post

	var action domain.ReplyAction
	var target domain.PostId
	switch post.Type {
	case domain.PostTypeAnswer:
		action, target = domain.ReplyActionComment, post.Id
	case domain.PostTypeQuestion:
		target = post.Id
		if utf8.RuneCountInString(content)/runesPerWord > r.minWords {
			action = domain.ReplyActionAnswer
		} else {
			action = domain.ReplyActionComment
		}
	case domain.PostTypeComment:
		if post.ParentId == nil {
			logger.Log.Error("reply to orphan comment", "component", "reply_address", "post_id", post.Id)
			return domain.ReplyResult{Action: domain.ReplyActionNone}, ErrReplyAddressSpent
		}
		action, target = domain.ReplyActionComment, *post.ParentId
	default:
		repliesRedeemed.WithLabelValues(string(domain.ReplyActionNone)).Inc()
		logger.Log.Warn("reply to unsupported post type", "component", "reply_address", "post_id", post.Id, "type", post.Type.String())
		return domain.ReplyResult{Action: domain.ReplyActionNone}, ErrUnsupportedPostType
	}

	var created *domain.Post
	if action == domain.ReplyActionAnswer {
		created, err = r.actor.Answer(ctx, token.User, target, content)
	} else {
		created, err = r.actor.Comment(ctx, token.User, target, content)
	}
	if err != nil {
		logger.Log.Warn("reply by email rejected", "component", "reply_address", "post_id", post.Id, "action", string(action), "error", err)
		return domain.ReplyResult{Action: domain.ReplyActionNone}, spent(fmt.Errorf("failed to %s by email: %w", action, err))
	}

	repliesRedeemed.WithLabelValues(string(action)).Inc()
	logger.Log.Info("reply address redeemed", "component", "reply_address", "post_id", post.Id, "action", string(action), "created_id", created.Id)
	return domain.ReplyResult{Action: action, Post: created}, nil
}

const offerSubject = "Reply to this email to respond"

// Offer issues an address and mails it to user. A failed email does not revoke the address.
func (r *ReplyAddresses) Offer(ctx context.Context, postId domain.PostId, user domain.User) (domain.ReplyAddress, error) {
	ra, err := r.Issue(ctx, postId, user.Id)
	if err != nil {
		return domain.ReplyAddress{}, err
	}
	if r.email == nil {
		logger.Log.Debug("email disabled, reply address not sent", "component", "reply_address", "post_id", postId)
		return ra, nil
	}

	body := fmt.Sprintf(`Hello,

You can respond to %q by replying to this email.
Short replies to a question become comments, longer ones become answers.

This address works once.
`, postTitle(&ra.Post))
	if err := r.email.SendWithReplyTo(ra.AllowedFromEmail, r.ReplyTo(ra.Address), offerSubject, body); err != nil {
		logger.Log.Error("failed to send reply address", "component", "reply_address", "post_id", postId, "user_id", user.Id, "error", err)
	}
	return ra, nil
}

func postTitle(p *domain.Post) string {
	if p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("post #%d", p.Id)
}
