package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/userhub/internal/model"
)

var _ model.VerificationStore = (*VerificationRepository)(nil)

const verificationColumns = `id, user_id, token_hash, expires_at, consumed_at, created_at`

type VerificationRepository struct {
	db *Connection
}

func NewVerificationRepository(db *Connection) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func scanVerification(row pgx.Row) (model.VerificationToken, error) {
	var vt model.VerificationToken
	err := row.Scan(&vt.ID, &vt.UserID, &vt.TokenHash, &vt.ExpiresAt, &vt.ConsumedAt, &vt.CreatedAt)
	return vt, err
}

func (r *VerificationRepository) Create(ctx context.Context, token model.VerificationToken) error {
	const query = `
        INSERT INTO verification_tokens (id, user_id, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	if _, err := r.db.Exec(ctx, query, token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt); err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetByHash(ctx context.Context, hash []byte) (model.VerificationToken, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_tokens WHERE token_hash = $1`

	vt, err := scanVerification(r.db.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationToken{}, model.ErrNotFound
		}
		return model.VerificationToken{}, fmt.Errorf("failed to get verification token: %w", err)
	}
	return vt, nil
}

func (r *VerificationRepository) LatestForUser(ctx context.Context, userID uuid.UUID) (model.VerificationToken, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_tokens
			  WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	vt, err := scanVerification(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationToken{}, model.ErrNotFound
		}
		return model.VerificationToken{}, fmt.Errorf("failed to get latest verification token: %w", err)
	}
	return vt, nil
}

// ConsumeAndVerify consumes the token and marks its user verified. An
// ANONYMOUS user is promoted to promoteTo, other roles are kept.
func (r *VerificationRepository) ConsumeAndVerify(ctx context.Context, hash []byte, promoteTo model.Role) (model.User, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `UPDATE verification_tokens SET consumed_at = NOW()
			  WHERE token_hash = $1 AND consumed_at IS NULL
			  RETURNING user_id`, hash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to consume verification token: %w", err)
	}

	user, err := scanUser(tx.QueryRow(ctx, `UPDATE users SET
			  email_verified = TRUE,
			  role = CASE WHEN role = $2 THEN $3 ELSE role END,
			  updated_at = NOW()
			  WHERE id = $1
			  RETURNING `+userColumns, userID, string(model.RoleAnonymous), string(promoteTo)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to mark email verified: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("failed to commit verification: %w", err)
	}
	return user, nil
}
