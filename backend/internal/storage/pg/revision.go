package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/askchan/shared/domain"
	internal_errors "github.com/itchan-dev/askchan/shared/errors"
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
	"github.com/jmoiron/sqlx"
)

const revisionUniqueConstraint = "post_revisions_post_revision_key"

type revisionRow struct {
	Id          int64     `db:"id"`
	PostId      int64     `db:"post_id"`
	Revision    int       `db:"revision"`
	Type        int       `db:"revision_type"`
	Text        string    `db:"text"`
	Summary     string    `db:"summary"`
	RevisedAt   time.Time `db:"revised_at"`
	AuthorId    int64     `db:"author_id"`
	AuthorEmail string    `db:"author_email"`
	AuthorAdmin bool      `db:"author_admin"`
}

func (r revisionRow) toDomain() domain.PostRevision {
	return domain.PostRevision{
		Id:        r.Id,
		PostId:    r.PostId,
		Revision:  r.Revision,
		Type:      domain.RevisionType(r.Type),
		Text:      r.Text,
		Summary:   r.Summary,
		Author:    domain.User{Id: r.AuthorId, Email: r.AuthorEmail, Admin: r.AuthorAdmin},
		RevisedAt: r.RevisedAt,
	}
}

type lockedPost struct {
	postType     domain.PostType
	deleted      bool
	nextRevision domain.RevisionNum
}

// withPostLock runs fn in a transaction holding FOR UPDATE on the post row.
// Writers of the same post are serialized, so nextRevision can't be taken twice.
func withPostLock(ctx context.Context, db *sqlx.DB, postId domain.PostId, fn func(tx *sqlx.Tx, locked lockedPost) error) error {
	return sharedpg.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		var locked lockedPost
		var postType int
		err := tx.QueryRowContext(ctx, `SELECT post_type, deleted FROM posts WHERE id = $1 FOR UPDATE`, postId).
			Scan(&postType, &locked.deleted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errPostNotFound
			}
			return fmt.Errorf("failed to lock post: %w", err)
		}
		locked.postType = domain.PostType(postType)

		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) + 1 FROM post_revisions WHERE post_id = $1`, postId).
			Scan(&locked.nextRevision)
		if err != nil {
			return fmt.Errorf("failed to compute next revision: %w", err)
		}
		return fn(tx, locked)
	})
}

func duplicateRevision(rev domain.RevisionNum) error {
	v := &internal_errors.ValidationError{}
	v.Add(internal_errors.NonFieldErrors, "revision %d already exists for this post", rev)
	return v
}

func revisionTypeMismatch() error {
	v := &internal_errors.ValidationError{}
	v.Add(internal_errors.NonFieldErrors, "revision type does not match post type")
	return v
}

func insertRevision(ctx context.Context, tx *sqlx.Tx, data domain.RevisionCreationData, postId domain.PostId) (domain.PostRevision, error) {
	revisedAt := data.RevisedAt
	if revisedAt.IsZero() {
		revisedAt = time.Now().UTC()
	}

	var row revisionRow
	err := tx.GetContext(ctx, &row, `
        WITH r AS (
            INSERT INTO post_revisions (post_id, revision, revision_type, text, summary, author_id, revised_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING *
        )
        SELECT r.id, r.post_id, r.revision, r.revision_type, r.text, r.summary, r.revised_at,
               u.id AS author_id, u.email AS author_email, u.admin AS author_admin
        FROM r JOIN users u ON u.id = r.author_id
    `, postId, data.Revision, int(data.Type), data.Text, data.Summary, data.AuthorId, revisedAt)
	if err != nil {
		if sharedpg.IsUniqueViolation(err, revisionUniqueConstraint) {
			return domain.PostRevision{}, duplicateRevision(data.Revision)
		}
		return domain.PostRevision{}, fmt.Errorf("failed to insert revision: %w", err)
	}
	return row.toDomain(), nil
}

// CreateRevision stores a revision of data.Post. Revision 0 means the next free number.
// The type is checked against the locked row, not the caller's copy of the post.
// With data.Html set the post text is replaced in the same transaction, deleted posts can't be edited.
func (s *Storage) CreateRevision(ctx context.Context, data domain.RevisionCreationData) (domain.PostRevision, error) {
	if data.Post == nil {
		return domain.PostRevision{}, internal_errors.BadRequest("post is required")
	}
	postId := data.Post.Id

	var created domain.PostRevision
	err := withPostLock(ctx, s.db, postId, func(tx *sqlx.Tx, locked lockedPost) error {
		if !data.Type.Matches(locked.postType) {
			return revisionTypeMismatch()
		}
		if data.Revision == 0 {
			data.Revision = locked.nextRevision
		}
		if data.Html != "" {
			if locked.deleted {
				return errPostNotFound
			}
			_, err := tx.ExecContext(ctx, `UPDATE posts SET text = $1, html = $2 WHERE id = $3`, data.Text, data.Html, postId)
			if err != nil {
				return fmt.Errorf("failed to update post: %w", err)
			}
		}
		var err error
		created, err = insertRevision(ctx, tx, data, postId)
		return err
	})
	return created, err
}

func (s *Storage) RevisionExists(ctx context.Context, postId domain.PostId, revision domain.RevisionNum) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM post_revisions WHERE post_id = $1 AND revision = $2)`, postId, revision)
	if err != nil {
		return false, fmt.Errorf("failed to check revision: %w", err)
	}
	return exists, nil
}

// Revisions returns the history of a post, newest first.
func (s *Storage) Revisions(ctx context.Context, postId domain.PostId) ([]domain.PostRevision, error) {
	var rows []revisionRow
	err := s.db.SelectContext(ctx, &rows, `
        SELECT r.id, r.post_id, r.revision, r.revision_type, r.text, r.summary, r.revised_at,
               u.id AS author_id, u.email AS author_email, u.admin AS author_admin
        FROM post_revisions r JOIN users u ON u.id = r.author_id
        WHERE r.post_id = $1
        ORDER BY r.revision DESC
    `, postId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revisions: %w", err)
	}

	revisions := make([]domain.PostRevision, 0, len(rows))
	for _, r := range rows {
		revisions = append(revisions, r.toDomain())
	}
	return revisions, nil
}
