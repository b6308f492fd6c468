package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/askchan/shared/domain"
	internal_errors "github.com/itchan-dev/askchan/shared/errors"
	"github.com/lib/pq"
)

// postColumns must match postRow. Callers alias posts as p and the author as u.
const postColumns = `
    p.id, p.post_type, p.parent_id, p.title, p.text, p.html, p.created_at, p.deleted,
    u.id AS author_id, u.email AS author_email, u.admin AS author_admin`

type postRow struct {
	Id          int64         `db:"id"`
	Type        int           `db:"post_type"`
	ParentId    sql.NullInt64 `db:"parent_id"`
	Title       string        `db:"title"`
	Text        string        `db:"text"`
	Html        string        `db:"html"`
	CreatedAt   time.Time     `db:"created_at"`
	Deleted     bool          `db:"deleted"`
	AuthorId    int64         `db:"author_id"`
	AuthorEmail string        `db:"author_email"`
	AuthorAdmin bool          `db:"author_admin"`
}

func (r postRow) toDomain() *domain.Post {
	p := &domain.Post{
		Id:        r.Id,
		Type:      domain.PostType(r.Type),
		Author:    domain.User{Id: r.AuthorId, Email: r.AuthorEmail, Admin: r.AuthorAdmin},
		Title:     r.Title,
		Text:      r.Text,
		Html:      r.Html,
		CreatedAt: r.CreatedAt,
		Deleted:   r.Deleted,
	}
	if r.ParentId.Valid {
		parent := r.ParentId.Int64
		p.ParentId = &parent
	}
	return p
}

var errPostNotFound = internal_errors.NotFound("Post not found")

// CreatePost inserts a post. Questions and answers get revision 1 in the same transaction.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var parentId sql.NullInt64
	if data.ParentId != nil {
		parentId = sql.NullInt64{Int64: *data.ParentId, Valid: true}
		// lock the parent so it can't be deleted underneath us
		var deleted bool
		err = tx.QueryRowContext(ctx, `SELECT deleted FROM posts WHERE id = $1 FOR SHARE`, *data.ParentId).Scan(&deleted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errPostNotFound
			}
			return nil, fmt.Errorf("failed to lock parent post: %w", err)
		}
		if deleted {
			return nil, errPostNotFound
		}
	}

	var id domain.PostId
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `
        INSERT INTO posts (post_type, parent_id, author_id, title, text, html)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `, int(data.Type), parentId, data.Author.Id, data.Title, data.Text, data.Html).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	if revType, ok := domain.RevisionTypeFor(data.Type); ok {
		_, err = insertRevision(ctx, tx, domain.RevisionCreationData{
			Type:      revType,
			Revision:  1,
			Text:      data.Text,
			AuthorId:  data.Author.Id,
			RevisedAt: createdAt,
		}, id)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &domain.Post{
		Id:        id,
		Type:      data.Type,
		ParentId:  data.ParentId,
		Author:    data.Author,
		Title:     data.Title,
		Text:      data.Text,
		Html:      data.Html,
		CreatedAt: createdAt,
	}, nil
}

func (s *Storage) Post(ctx context.Context, id domain.PostId) (*domain.Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row, `
        SELECT `+postColumns+`
        FROM posts p JOIN users u ON u.id = p.author_id
        WHERE p.id = $1
    `, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	return row.toDomain(), nil
}

// DeletePost soft-deletes a post.
func (s *Storage) DeletePost(ctx context.Context, id domain.PostId) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return errPostNotFound
	}
	return nil
}

// Comments returns every comment, deleted ones included, of the given parents
// ordered by parent, creation time and id.
func (s *Storage) Comments(ctx context.Context, parentIds []domain.PostId) ([]*domain.Post, error) {
	if len(parentIds) == 0 {
		return nil, nil
	}
	var rows []postRow
	err := s.db.SelectContext(ctx, &rows, `
        SELECT `+postColumns+`
        FROM posts p JOIN users u ON u.id = p.author_id
        WHERE p.parent_id = ANY($1) AND p.post_type = $2
        ORDER BY p.parent_id, p.created_at, p.id
    `, pq.Array(parentIds), int(domain.PostTypeComment))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	comments := make([]*domain.Post, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toDomain())
	}
	return comments, nil
}
