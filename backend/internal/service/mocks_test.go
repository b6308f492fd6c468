package service

import (
	"context"
	"time"

	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/domain"
)

// --- Storage mocks ---

type MockPostStorage struct {
	CreatePostFunc func(ctx context.Context, data domain.PostCreationData) (*domain.Post, error)
	PostFunc       func(ctx context.Context, id domain.PostId) (*domain.Post, error)
	DeletePostFunc func(ctx context.Context, id domain.PostId) error
}

func (m *MockPostStorage) CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, data)
	}
	return &domain.Post{Id: 100, Type: data.Type, ParentId: data.ParentId, Author: data.Author, Title: data.Title, Text: data.Text, Html: data.Html}, nil
}

func (m *MockPostStorage) Post(ctx context.Context, id domain.PostId) (*domain.Post, error) {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, id)
	}
	return &domain.Post{Id: id, Type: domain.PostTypeQuestion, Author: domain.User{Id: 1}}, nil
}

func (m *MockPostStorage) DeletePost(ctx context.Context, id domain.PostId) error {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(ctx, id)
	}
	return nil
}

type MockRevisionStorage struct {
	CreateRevisionFunc func(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	RevisionExistsFunc func(ctx context.Context, postId domain.PostId, revision domain.RevisionNum) (bool, error)
	RevisionsFunc      func(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error)
}

func (m *MockRevisionStorage) CreateRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	if m.CreateRevisionFunc != nil {
		return m.CreateRevisionFunc(ctx, data)
	}
	return domain.PostRevision{Id: 1, PostId: data.Post.Id, Revision: max(data.Revision, 1), Type: data.Type, Text: data.Text}, nil
}

func (m *MockRevisionStorage) RevisionExists(ctx context.Context, postId domain.PostId, revision domain.RevisionNum) (bool, error) {
	if m.RevisionExistsFunc != nil {
		return m.RevisionExistsFunc(ctx, postId, revision)
	}
	return false, nil
}

func (m *MockRevisionStorage) Revisions(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error) {
	if m.RevisionsFunc != nil {
		return m.RevisionsFunc(ctx, postId)
	}
	return nil, nil
}

type MockCommentStorage struct {
	CommentsFunc func(ctx context.Context, parentIds []domain.PostId) ([]*domain.Post, error)
}

func (m *MockCommentStorage) Comments(ctx context.Context, parentIds []domain.PostId) ([]*domain.Post, error) {
	if m.CommentsFunc != nil {
		return m.CommentsFunc(ctx, parentIds)
	}
	return nil, nil
}

type MockReplyAddressStorage struct {
	PostFunc               func(ctx context.Context, id domain.PostId) (*domain.Post, error)
	UserFunc               func(ctx context.Context, id domain.UserId) (domain.User, error)
	CreateReplyAddressFunc func(ctx context.Context, data domain.ReplyAddressCreationData) (domain.ReplyAddressId, time.Time, error)
	UnusedReplyAddressFunc func(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error)
	ClaimReplyAddressFunc  func(ctx context.Context, id domain.ReplyAddressId) (time.Time, bool, error)
}

func (m *MockReplyAddressStorage) Post(ctx context.Context, id domain.PostId) (*domain.Post, error) {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, id)
	}
	return &domain.Post{Id: id, Type: domain.PostTypeQuestion, Title: "title"}, nil
}

func (m *MockReplyAddressStorage) User(ctx context.Context, id domain.UserId) (domain.User, error) {
	if m.UserFunc != nil {
		return m.UserFunc(ctx, id)
	}
	return domain.User{Id: id, Email: "User@Example.com"}, nil
}

func (m *MockReplyAddressStorage) CreateReplyAddress(ctx context.Context, data domain.ReplyAddressCreationData) (domain.ReplyAddressId, time.Time, error) {
	if m.CreateReplyAddressFunc != nil {
		return m.CreateReplyAddressFunc(ctx, data)
	}
	return 1, time.Now(), nil
}

func (m *MockReplyAddressStorage) UnusedReplyAddress(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error) {
	if m.UnusedReplyAddressFunc != nil {
		return m.UnusedReplyAddressFunc(ctx, address, allowedFromEmail)
	}
	return domain.ReplyAddress{Address: address, AllowedFromEmail: allowedFromEmail}, nil
}

func (m *MockReplyAddressStorage) ClaimReplyAddress(ctx context.Context, id domain.ReplyAddressId) (time.Time, bool, error) {
	if m.ClaimReplyAddressFunc != nil {
		return m.ClaimReplyAddressFunc(ctx, id)
	}
	return time.Now(), true, nil
}

// --- Collaborator mocks ---

type MockReplyActor struct {
	AnswerFunc  func(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error)
	CommentFunc func(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error)
}

func (m *MockReplyActor) Answer(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, author, questionId, text)
	}
	return &domain.Post{Id: 500, Type: domain.PostTypeAnswer, ParentId: &questionId, Author: author, Text: text}, nil
}

func (m *MockReplyActor) Comment(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error) {
	if m.CommentFunc != nil {
		return m.CommentFunc(ctx, author, parentId, text)
	}
	return &domain.Post{Id: 600, Type: domain.PostTypeComment, ParentId: &parentId, Author: author, Text: text}, nil
}

type MockEmail struct {
	SendWithReplyToFunc func(recipientEmail, replyTo, subject, body string) error
}

func (m *MockEmail) SendWithReplyTo(recipientEmail, replyTo, subject, body string) error {
	if m.SendWithReplyToFunc != nil {
		return m.SendWithReplyToFunc(recipientEmail, replyTo, subject, body)
	}
	return nil
}

type MockPostValidator struct {
	TitleFunc func(title string) error
	TextFunc  func(text string) error
}

func (m *MockPostValidator) Title(title string) error {
	if m.TitleFunc != nil {
		return m.TitleFunc(title)
	}
	return nil
}

func (m *MockPostValidator) Text(text string) error {
	if m.TextFunc != nil {
		return m.TextFunc(text)
	}
	return nil
}

type MockRenderer struct {
	RenderFunc func(text string) (string, error)
}

func (m *MockRenderer) Render(text string) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(text)
	}
	return "<p>" + text + "</p>", nil
}

type MockRevisionKeeper struct {
	CreateQuestionRevisionFunc func(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	CreateAnswerRevisionFunc   func(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	HistoryFunc                func(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error)
}

func mockRevision(data domain.RevisionCreationData, t domain.RevisionType) domain.PostRevision {
	return domain.PostRevision{PostId: data.Post.Id, Revision: 2, Type: t, Text: data.Text, Summary: data.Summary, Author: domain.User{Id: data.AuthorId}}
}

func (m *MockRevisionKeeper) CreateQuestionRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	if m.CreateQuestionRevisionFunc != nil {
		return m.CreateQuestionRevisionFunc(ctx, data)
	}
	return mockRevision(data, domain.QuestionRevision), nil
}

func (m *MockRevisionKeeper) CreateAnswerRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	if m.CreateAnswerRevisionFunc != nil {
		return m.CreateAnswerRevisionFunc(ctx, data)
	}
	return mockRevision(data, domain.AnswerRevision), nil
}

func (m *MockRevisionKeeper) History(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, postId)
	}
	return nil, nil
}

type MockCommentPrecacher struct {
	PrecacheCommentsFunc func(ctx context.Context, posts []*domain.Post, visitor *domain.User) error
}

func (m *MockCommentPrecacher) PrecacheComments(ctx context.Context, posts []*domain.Post, visitor *domain.User) error {
	if m.PrecacheCommentsFunc != nil {
		return m.PrecacheCommentsFunc(ctx, posts, visitor)
	}
	for _, p := range posts {
		p.Comments = []*domain.Post{}
	}
	return nil
}

type MockReplyRegistry struct {
	LookupUnusedFunc func(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error)
	RedeemFunc       func(ctx context.Context, token *domain.ReplyAddress, content string) (domain.ReplyResult, error)
}

func (m *MockReplyRegistry) LookupUnused(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error) {
	if m.LookupUnusedFunc != nil {
		return m.LookupUnusedFunc(ctx, address, allowedFromEmail)
	}
	return domain.ReplyAddress{Id: 1, Address: address, AllowedFromEmail: allowedFromEmail}, nil
}

func (m *MockReplyRegistry) Redeem(ctx context.Context, token *domain.ReplyAddress, content string) (domain.ReplyResult, error) {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, token, content)
	}
	return domain.ReplyResult{Action: domain.ReplyActionComment}, nil
}

func testConfig(minWords int) *config.Config {
	return &config.Config{Public: config.Public{MinWordsForAnswerByEmail: &minWords, ReplyEmailDomain: "askchan.test"}}
}
