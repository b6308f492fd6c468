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
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
)

const replyAddressUniqueConstraint = "reply_addresses_address_key"

type replyAddressRow struct {
	Id               int64        `db:"id"`
	Address          string       `db:"address"`
	AllowedFromEmail string       `db:"allowed_from_email"`
	UsedAt           sql.NullTime `db:"used_at"`
	CreatedAt        time.Time    `db:"created_at"`
	Post             postRow      `db:"post"`
	User             userRow      `db:"usr"`
}

func (r replyAddressRow) toDomain() domain.ReplyAddress {
	ra := domain.ReplyAddress{
		Id:               r.Id,
		Address:          r.Address,
		Post:             *r.Post.toDomain(),
		User:             r.User.toDomain(),
		AllowedFromEmail: r.AllowedFromEmail,
		CreatedAt:        r.CreatedAt,
	}
	if r.UsedAt.Valid {
		used := r.UsedAt.Time
		ra.UsedAt = &used
	}
	return ra
}

// CreateReplyAddress inserts an unused reply address.
// A collision on address returns errors.ErrReplyAddressTaken so the caller can retry with another one.
func (s *Storage) CreateReplyAddress(ctx context.Context, data domain.ReplyAddressCreationData) (domain.ReplyAddressId, time.Time, error) {
	var id domain.ReplyAddressId
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO reply_addresses (address, post_id, user_id, allowed_from_email)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, data.Address, data.PostId, data.UserId, strings.ToLower(data.AllowedFromEmail)).Scan(&id, &createdAt)
	if err != nil {
		if sharedpg.IsUniqueViolation(err, replyAddressUniqueConstraint) {
			return 0, time.Time{}, internal_errors.ErrReplyAddressTaken
		}
		return 0, time.Time{}, fmt.Errorf("failed to insert reply address: %w", err)
	}
	return id, createdAt, nil
}

// UnusedReplyAddress finds the unconsumed address issued to allowedFromEmail, with its post and user.
func (s *Storage) UnusedReplyAddress(ctx context.Context, address domain.Address, allowedFromEmail domain.Email) (domain.ReplyAddress, error) {
	var row replyAddressRow
	err := s.db.GetContext(ctx, &row, `
        SELECT
            ra.id, ra.address, ra.allowed_from_email, ra.used_at, ra.created_at,
            p.id AS "post.id", p.post_type AS "post.post_type", p.parent_id AS "post.parent_id",
            p.title AS "post.title", p.text AS "post.text", p.html AS "post.html",
            p.created_at AS "post.created_at", p.deleted AS "post.deleted",
            pa.id AS "post.author_id", pa.email AS "post.author_email", pa.admin AS "post.author_admin",
            u.id AS "usr.id", u.email AS "usr.email", u.admin AS "usr.admin", u.created_at AS "usr.created_at"
        FROM reply_addresses ra
        JOIN posts p ON p.id = ra.post_id
        JOIN users pa ON pa.id = p.author_id
        JOIN users u ON u.id = ra.user_id
        WHERE ra.address = $1 AND ra.allowed_from_email = $2 AND ra.used_at IS NULL
    `, address, strings.ToLower(allowedFromEmail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReplyAddress{}, internal_errors.NotFound("Reply address not found")
		}
		return domain.ReplyAddress{}, fmt.Errorf("failed to fetch reply address: %w", err)
	}
	return row.toDomain(), nil
}

// ClaimReplyAddress marks the address used. It reports false when someone else already did.
func (s *Storage) ClaimReplyAddress(ctx context.Context, id domain.ReplyAddressId) (time.Time, bool, error) {
	var usedAt time.Time
	err := s.db.QueryRowContext(ctx, `
        UPDATE reply_addresses SET used_at = now()
        WHERE id = $1 AND used_at IS NULL
        RETURNING used_at
    `, id).Scan(&usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to claim reply address: %w", err)
	}
	return usedAt, true, nil
}
