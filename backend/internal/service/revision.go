package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
)

type RevisionStorage interface {
	CreateRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error)
	RevisionExists(ctx context.Context, postId domain.PostId, revision domain.RevisionNum) (bool, error)
	Revisions(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error)
}

type Revisions struct {
	storage  RevisionStorage
	validate *validator.Validate
}

func NewRevisions(storage RevisionStorage) *Revisions {
	return &Revisions{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// field names used in violations
var revisionFields = map[string]string{
	"Revision": "revision",
	"Text":     "text",
	"Summary":  "summary",
	"AuthorId": "author",
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed on " + fe.Tag()
	}
}

// Validate reports every problem with data at once.
// Only the duplicate check touches storage, and only for explicitly numbered revisions.
func (r *Revisions) Validate(ctx context.Context, data domain.RevisionCreationData) error {
	v := &errors.ValidationError{}

	if data.Post == nil {
		v.Add("post", "post is required")
	}
	if !data.Type.Valid() {
		v.Add("revision_type", "value %d is not a valid revision type", int(data.Type))
	}
	if data.Post != nil && data.Type.Valid() && !data.Type.Matches(data.Post.Type) {
		v.Add(errors.NonFieldErrors, "revision type does not match post type")
	}

	if err := r.validate.Struct(data); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate revision: %w", err)
		}
		for _, fe := range fieldErrs {
			name, ok := revisionFields[fe.Field()]
			if !ok {
				name = fe.Field()
			}
			v.Add(name, "%s", violationMessage(fe))
		}
	}

	if data.Post != nil && data.Revision > 0 {
		exists, err := r.storage.RevisionExists(ctx, data.Post.Id, data.Revision)
		if err != nil {
			return err
		}
		if exists {
			v.Add(errors.NonFieldErrors, "revision %d already exists for this post", data.Revision)
		}
	}

	return v.OrNil()
}

// CreateRevision validates and stores a revision. Revision 0 is numbered max+1 by storage.
func (r *Revisions) CreateRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	if err := r.Validate(ctx, data); err != nil {
		return domain.PostRevision{}, err
	}

	rev, err := r.storage.CreateRevision(ctx, data)
	if err != nil {
		return domain.PostRevision{}, err
	}
	revisionsCreated.WithLabelValues(rev.Type.String()).Inc()
	logger.Log.Debug("revision created", "component", "revision", "post_id", rev.PostId, "revision", rev.Revision)
	return rev, nil
}

func (r *Revisions) CreateQuestionRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	data.Type = domain.QuestionRevision
	return r.CreateRevision(ctx, data)
}

func (r *Revisions) CreateAnswerRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	data.Type = domain.AnswerRevision
	return r.CreateRevision(ctx, data)
}

// History returns the revisions of a post, newest first.
func (r *Revisions) History(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error) {
	return r.storage.Revisions(ctx, postId)
}
