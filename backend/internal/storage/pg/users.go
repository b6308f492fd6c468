package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchan-dev/askchan/shared/domain"
	internal_errors "github.com/itchan-dev/askchan/shared/errors"
)

type userRow struct {
	Id        int64     `db:"id"`
	Email     string    `db:"email"`
	Admin     bool      `db:"admin"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{Id: r.Id, Email: r.Email, Admin: r.Admin, CreatedAt: r.CreatedAt}
}

// EnsureUser returns the user registered with email, creating it if needed.
// admin is applied to existing users too.
func (s *Storage) EnsureUser(ctx context.Context, email domain.Email, admin bool) (domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
        INSERT INTO users (email, admin) VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE SET admin = EXCLUDED.admin
        RETURNING id, email, admin, created_at
    `, strings.ToLower(email), admin)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Storage) User(ctx context.Context, id domain.UserId) (domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT id, email, admin, created_at FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return row.toDomain(), nil
}
