package handler

import (
	"context"

	"github.com/itchan-dev/askchan/shared/domain"
)

type PostService interface {
	Ask(ctx context.Context, author domain.User, title, text string) (*domain.Post, error)
	Answer(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error)
	Comment(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error)
	Edit(ctx context.Context, editor domain.User, postId domain.PostId, text, summary string) (domain.PostRevision, error)
	Delete(ctx context.Context, user domain.User, id domain.PostId) error
	Get(ctx context.Context, id domain.PostId, visitor *domain.User) (*domain.Post, error)
	Revisions(ctx context.Context, id domain.PostId) ([]domain.PostRevision, error)
}

type ReplyAddressService interface {
	Offer(ctx context.Context, postId domain.PostId, user domain.User) (domain.ReplyAddress, error)
	ReplyTo(address domain.Address) string
}

type InboundService interface {
	Process(ctx context.Context, email domain.InboundEmail) (domain.ReplyResult, error)
}

// HealthChecker defines the interface for checking service health
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	posts   PostService
	replies ReplyAddressService
	inbound InboundService
	health  HealthChecker
}

func New(posts PostService, replies ReplyAddressService, inbound InboundService, health HealthChecker) *Handler {
	return &Handler{
		posts:   posts,
		replies: replies,
		inbound: inbound,
		health:  health,
	}
}
