package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/userhub/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, nickname, first_name, last_name, bio, profile_picture_url,
	linkedin_profile_url, github_profile_url, role, is_professional, professional_status_updated_at,
	hashed_password, email_verified, failed_login_attempts, is_locked, last_login_at, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user model.User
		role string
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Nickname, &user.FirstName, &user.LastName, &user.Bio,
		&user.ProfilePictureURL, &user.LinkedInProfileURL, &user.GitHubProfileURL, &role,
		&user.IsProfessional, &user.ProfessionalStatusUpdatedAt, &user.HashedPassword,
		&user.EmailVerified, &user.FailedLoginAttempts, &user.IsLocked, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(role)
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, nickname, first_name, last_name, bio, role,
			  hashed_password, email_verified, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Nickname, user.FirstName, user.LastName, user.Bio,
		string(user.Role), user.HashedPassword, user.EmailVerified,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	query := `UPDATE users SET
			  nickname = COALESCE($2, nickname),
			  first_name = COALESCE($3, first_name),
			  last_name = COALESCE($4, last_name),
			  bio = COALESCE($5, bio),
			  linkedin_profile_url = COALESCE($6, linkedin_profile_url),
			  github_profile_url = COALESCE($7, github_profile_url),
			  role = COALESCE($8, role),
			  professional_status_updated_at = CASE
			      WHEN $9::boolean IS NOT NULL AND $9::boolean IS DISTINCT FROM is_professional THEN NOW()
			      ELSE professional_status_updated_at END,
			  is_professional = COALESCE($9, is_professional),
			  updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns

	var role *string
	if update.Role != nil {
		s := string(*update.Role)
		role = &s
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, id,
		update.Nickname, update.FirstName, update.LastName, update.Bio,
		update.LinkedInProfileURL, update.GitHubProfileURL, role, update.IsProfessional,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// UpdateProfilePicture stores the picture URL and returns the updated row in
// one transaction.
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, id uuid.UUID, url string) (model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `UPDATE users SET profile_picture_url = $2, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRow(ctx, query, id, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update profile picture: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, fmt.Errorf("failed to commit profile picture: %w", err)
	}

	return user, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (model.User, error) {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, string(role)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update role: %w", err)
	}

	return user, nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET failed_login_attempts = 0, last_login_at = NOW(), updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RecordLoginFailure counts a failed login and locks the account once
// maxAttempts is reached.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	query := `UPDATE users SET
			  failed_login_attempts = failed_login_attempts + 1,
			  is_locked = is_locked OR failed_login_attempts + 1 >= $2,
			  updated_at = NOW()
			  WHERE id = $1
			  RETURNING is_locked`

	var locked bool
	if err := r.db.QueryRow(ctx, query, id, maxAttempts).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrNotFound
		}
		return false, fmt.Errorf("failed to record login failure: %w", err)
	}
	return locked, nil
}
