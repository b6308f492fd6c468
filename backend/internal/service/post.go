package service

import (
	"context"
	"net/http"

	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
)

type PostStorage interface {
	CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error)
	Post(ctx context.Context, id domain.PostId) (*domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) error
}

type PostValidator interface {
	Title(title string) error
	Text(text string) error
}

type Renderer interface {
	Render(text string) (string, error)
}

type RevisionKeeper interface {
	CreateQuestionRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	CreateAnswerRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	History(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error)
}

type CommentPrecacher interface {
	PrecacheComments(ctx context.Context, posts []*domain.Post, visitor *domain.User) error
}

// Posts authors questions, answers and comments.
type Posts struct {
	storage   PostStorage
	validator PostValidator
	renderer  Renderer
	revisions RevisionKeeper
	comments  CommentPrecacher
}

func NewPosts(storage PostStorage, validator PostValidator, renderer Renderer, revisions RevisionKeeper, comments CommentPrecacher) *Posts {
	return &Posts{
		storage:   storage,
		validator: validator,
		renderer:  renderer,
		revisions: revisions,
		comments:  comments,
	}
}

var errPostNotFound = errors.NotFound("Post not found")

// livePost returns the post unless it is deleted.
func (p *Posts) livePost(ctx context.Context, id domain.PostId) (*domain.Post, error) {
	post, err := p.storage.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, errPostNotFound
	}
	return post, nil
}

func (p *Posts) create(ctx context.Context, data domain.PostCreationData) (*domain.Post, error) {
	if err := p.validator.Text(data.Text); err != nil {
		return nil, err
	}
	html, err := p.renderer.Render(data.Text)
	if err != nil {
		return nil, err
	}
	data.Html = html

	post, err := p.storage.CreatePost(ctx, data)
	if err != nil {
		return nil, err
	}
	if revType, ok := domain.RevisionTypeFor(post.Type); ok {
		revisionsCreated.WithLabelValues(revType.String()).Inc()
	}
	logger.Log.Info("post created", "component", "post", "post_id", post.Id, "type", post.Type.String(), "author_id", post.Author.Id)
	return post, nil
}

func (p *Posts) Ask(ctx context.Context, author domain.User, title, text string) (*domain.Post, error) {
	if err := p.validator.Title(title); err != nil {
		return nil, err
	}
	return p.create(ctx, domain.PostCreationData{
		Type:   domain.PostTypeQuestion,
		Author: author,
		Title:  title,
		Text:   text,
	})
}

func (p *Posts) Answer(ctx context.Context, author domain.User, questionId domain.PostId, text string) (*domain.Post, error) {
	question, err := p.livePost(ctx, questionId)
	if err != nil {
		return nil, err
	}
	if !question.IsQuestion() {
		return nil, errors.BadRequest("Answers can only be posted to questions")
	}
	return p.create(ctx, domain.PostCreationData{
		Type:     domain.PostTypeAnswer,
		ParentId: &question.Id,
		Author:   author,
		Text:     text,
	})
}

func (p *Posts) Comment(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error) {
	parent, err := p.livePost(ctx, parentId)
	if err != nil {
		return nil, err
	}
	if !parent.Commentable() {
		return nil, errors.BadRequest("Comments can only be posted to questions and answers")
	}
	return p.create(ctx, domain.PostCreationData{
		Type:     domain.PostTypeComment,
		ParentId: &parent.Id,
		Author:   author,
		Text:     text,
	})
}

var errNotAuthor = &errors.ErrorWithStatusCode{Message: "Only the author can change this post", StatusCode: http.StatusForbidden}

func mayChange(user domain.User, post *domain.Post) bool {
	return user.Admin || user.Id == post.Author.Id
}

// Edit replaces the text of a question or answer and records the next revision.
func (p *Posts) Edit(ctx context.Context, editor domain.User, postId domain.PostId, text, summary string) (domain.PostRevision, error) {
	post, err := p.livePost(ctx, postId)
	if err != nil {
		return domain.PostRevision{}, err
	}
	var createRevision func(context.Context, domain.RevisionCreationData) (domain.PostRevision, error)
	switch post.Type {
	case domain.PostTypeQuestion:
		createRevision = p.revisions.CreateQuestionRevision
	case domain.PostTypeAnswer:
		createRevision = p.revisions.CreateAnswerRevision
	default:
		return domain.PostRevision{}, errors.BadRequest("Comments can't be edited")
	}
	if !mayChange(editor, post) {
		return domain.PostRevision{}, errNotAuthor
	}
	if err := p.validator.Text(text); err != nil {
		return domain.PostRevision{}, err
	}

	html, err := p.renderer.Render(text)
	if err != nil {
		return domain.PostRevision{}, err
	}
	rev, err := createRevision(ctx, domain.RevisionCreationData{
		Post:     post,
		Text:     text,
		Summary:  summary,
		AuthorId: editor.Id,
		Html:     html,
	})
	if err != nil {
		return domain.PostRevision{}, err
	}
	logger.Log.Info("post edited", "component", "post", "post_id", post.Id, "revision", rev.Revision, "editor_id", editor.Id)
	return rev, nil
}

// Delete hides the post. Its comments and revisions are kept.
func (p *Posts) Delete(ctx context.Context, user domain.User, id domain.PostId) error {
	post, err := p.livePost(ctx, id)
	if err != nil {
		return err
	}
	if !mayChange(user, post) {
		return errNotAuthor
	}
	if err := p.storage.DeletePost(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("post deleted", "component", "post", "post_id", id, "user_id", user.Id)
	return nil
}

// Get returns the post with the comments visitor may see. visitor is nil for anonymous.
func (p *Posts) Get(ctx context.Context, id domain.PostId, visitor *domain.User) (*domain.Post, error) {
	post, err := p.storage.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(post, visitor) {
		return nil, errPostNotFound
	}
	if err := p.comments.PrecacheComments(ctx, []*domain.Post{post}, visitor); err != nil {
		return nil, err
	}
	return post, nil
}

// Revisions returns the history of a post, newest first.
func (p *Posts) Revisions(ctx context.Context, id domain.PostId) ([]domain.PostRevision, error) {
	if _, err := p.livePost(ctx, id); err != nil {
		return nil, err
	}
	return p.revisions.History(ctx, id)
}
