package service

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
)

type ReplyRegistry interface {
	LookupUnused(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error)
	Redeem(ctx context.Context, token *domain.ReplyAddress, content string) (domain.ReplyResult, error)
}

// Inbound turns received emails into redemptions.
type Inbound struct {
	registry ReplyRegistry
}

func NewInbound(registry ReplyRegistry) *Inbound {
	return &Inbound{registry: registry}
}

var (
	addressPattern = regexp.MustCompile(`^[a-z0-9]{12,25}$`)
	// "On Mon, 1 Jan 2024 at 10:00, Bob <bob@example.com> wrote:"
	quoteHeaderPattern = regexp.MustCompile(`(?i)^on\s.+\swrote:$`)
)

const replyPrefix = "reply+"

// ParseReplyAddress extracts the address from "reply+<addr>@domain", "<addr>@domain" or a bare "<addr>".
func ParseReplyAddress(to string) (domain.Address, error) {
	local := strings.TrimSpace(to)
	if strings.ContainsAny(local, "@<") {
		parsed, err := mail.ParseAddress(local)
		if err != nil {
			return "", errors.BadRequest("Malformed recipient address")
		}
		local = parsed.Address[:strings.LastIndex(parsed.Address, "@")]
	}
	local = strings.TrimPrefix(strings.ToLower(local), replyPrefix)
	if !addressPattern.MatchString(local) {
		return "", errors.BadRequest("Malformed reply address")
	}
	return local, nil
}

// ParseSender returns the lowercased bare address of a From header.
func ParseSender(from string) (domain.Email, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(from))
	if err != nil {
		return "", errors.BadRequest("Malformed sender address")
	}
	return strings.ToLower(parsed.Address), nil
}

// StripQuotedReply drops quoted lines and everything from the "On ... wrote:" header on.
func StripQuotedReply(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if quoteHeaderPattern.MatchString(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Process redeems the reply address an email was sent to.
// A 400 or 404 error means the email should be discarded.
func (i *Inbound) Process(ctx context.Context, email domain.InboundEmail) (domain.ReplyResult, error) {
	address, err := ParseReplyAddress(email.To)
	if err != nil {
		return domain.ReplyResult{Action: domain.ReplyActionNone}, err
	}
	sender, err := ParseSender(email.From)
	if err != nil {
		return domain.ReplyResult{Action: domain.ReplyActionNone}, err
	}

	token, err := i.registry.LookupUnused(ctx, address, sender)
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Log.Info("inbound email for unknown or used address", "component", "inbound", "sender", sender)
		}
		return domain.ReplyResult{Action: domain.ReplyActionNone}, err
	}

	return i.registry.Redeem(ctx, &token, StripQuotedReply(email.Body))
}
