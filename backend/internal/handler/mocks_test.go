package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/askchan/shared/domain"
	mw "github.com/itchan-dev/askchan/shared/middleware"
)

type MockPostService struct {
	AskFunc       func(ctx context.Context, author domain.User, title, text string) (*domain.Post, error)
	AnswerFunc    func(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error)
	CommentFunc   func(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error)
	EditFunc      func(ctx context.Context, editor domain.User, postId domain.PostId, text, summary string) (domain.PostRevision, error)
	DeleteFunc    func(ctx context.Context, user domain.User, id domain.PostId) error
	GetFunc       func(ctx context.Context, id domain.PostId, visitor *domain.User) (*domain.Post, error)
	RevisionsFunc func(ctx context.Context, id domain.PostId) ([]domain.PostRevision, error)
}

func (m *MockPostService) Ask(ctx context.Context, author domain.User, title, text string) (*domain.Post, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, author, title, text)
	}
	return &domain.Post{Id: 1, Type: domain.PostTypeQuestion, Author: author, Title: title, Text: text}, nil
}

func (m *MockPostService) Answer(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, author, questionId, text)
	}
	return &domain.Post{Id: 2, Type: domain.PostTypeAnswer, ParentId: &questionId, Author: author, Text: text}, nil
}

func (m *MockPostService) Comment(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error) {
	if m.CommentFunc != nil {
		return m.CommentFunc(ctx, author, parentId, text)
	}
	return &domain.Post{Id: 3, Type: domain.PostTypeComment, ParentId: &parentId, Author: author, Text: text}, nil
}

func (m *MockPostService) Edit(ctx context.Context, editor domain.User, postId domain.PostId, text, summary string) (domain.PostRevision, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, editor, postId, text, summary)
	}
	return domain.PostRevision{PostId: postId, Revision: 2, Type: domain.QuestionRevision, Text: text, Summary: summary, Author: editor}, nil
}

func (m *MockPostService) Delete(ctx context.Context, user domain.User, id domain.PostId) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, user, id)
	}
	return nil
}

func (m *MockPostService) Get(ctx context.Context, id domain.PostId, visitor *domain.User) (*domain.Post, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, visitor)
	}
	return &domain.Post{Id: id, Type: domain.PostTypeQuestion, Title: "Hello World", Comments: []*domain.Post{}}, nil
}

func (m *MockPostService) Revisions(ctx context.Context, id domain.PostId) ([]domain.PostRevision, error) {
	if m.RevisionsFunc != nil {
		return m.RevisionsFunc(ctx, id)
	}
	return nil, nil
}

type MockReplyAddressService struct {
	OfferFunc func(ctx context.Context, postId domain.PostId, user domain.User) (domain.ReplyAddress, error)
}

func (m *MockReplyAddressService) Offer(ctx context.Context, postId domain.PostId, user domain.User) (domain.ReplyAddress, error) {
	if m.OfferFunc != nil {
		return m.OfferFunc(ctx, postId, user)
	}
	return domain.ReplyAddress{Address: "abcdef123456", Post: domain.Post{Id: postId}, User: user}, nil
}

func (m *MockReplyAddressService) ReplyTo(address domain.Address) string {
	return "reply+" + address + "@askchan.test"
}

type MockInboundService struct {
	ProcessFunc func(ctx context.Context, email domain.InboundEmail) (domain.ReplyResult, error)
}

func (m *MockInboundService) Process(ctx context.Context, email domain.InboundEmail) (domain.ReplyResult, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, email)
	}
	return domain.ReplyResult{Action: domain.ReplyActionNone}, nil
}

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func newTestHandler(posts *MockPostService, replies *MockReplyAddressService, inbound *MockInboundService) *Handler {
	return New(posts, replies, inbound, &MockHealthChecker{})
}

// testRouter mounts the handlers on the same paths as the real router, without middlewares.
func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/questions", h.CreateQuestion)
	r.Get("/v1/posts/{post}", h.GetPost)
	r.Put("/v1/posts/{post}", h.EditPost)
	r.Delete("/v1/posts/{post}", h.DeletePost)
	r.Get("/v1/posts/{post}/revisions", h.GetRevisions)
	r.Post("/v1/posts/{post}/answers", h.CreateAnswer)
	r.Post("/v1/posts/{post}/comments", h.CreateComment)
	r.Post("/v1/posts/{post}/reply_address", h.CreateReplyAddress)
	r.Post("/v1/inbound/email", h.InboundEmail)
	return r
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), mw.UserClaimsKey, user))
}
