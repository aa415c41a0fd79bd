package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wordrun/wordrun-platform/internal/progress"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// User is a row in the users table.
type User struct {
	ID            uuid.UUID
	Email         *string
	PasswordHash  *string
	Username      string
	UserType      string // "registered" or "guest"
	OAuthProvider *string
	OAuthSubject  *string
	RunStatus     string
	CurrentScore  int
	Record        int
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// CreateUserParams holds the insertable user fields.
type CreateUserParams struct {
	Email         *string
	PasswordHash  *string
	Username      string
	UserType      string
	OAuthProvider *string
	OAuthSubject  *string
}

const userColumns = `user_id, email, password_hash, username, user_type,
	oauth_provider, oauth_subject, run_status, current_score, record,
	created_at, last_login_at`

// UserRepository exposes typed DB operations for accounts and progress.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps a pgx pool for user-specific operations.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account (registered or guest).
func (r *UserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, username, user_type, oauth_provider, oauth_subject)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.Username, params.UserType,
		params.OAuthProvider, params.OAuthSubject)
	return scanUser(row)
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

// GetByOAuth fetches a user by OAuth identity.
func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE oauth_provider = $1 AND oauth_subject = $2`, provider, subject)
	return scanUser(row)
}

// PromoteGuest upgrades a guest to a registered account atomically.
func (r *UserRepository) PromoteGuest(ctx context.Context, userID uuid.UUID, email, passwordHash string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, user_type = 'registered'
		WHERE user_id = $1 AND user_type = 'guest'
		RETURNING `+userColumns,
		userID, email, passwordHash)
	return scanUser(row)
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE user_id = $1`, userID)
	return err
}

// ApplyProgress writes run status and score, raising the record to at
// least the achieved value. Implements progress.Store.
func (r *UserRepository) ApplyProgress(ctx context.Context, userID uuid.UUID, update progress.Update) (progress.Row, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET run_status = $2, current_score = $3, record = GREATEST(record, $4)
		WHERE user_id = $1
		RETURNING user_id, username, run_status, current_score, record`,
		userID, update.Status, update.CurrentScore, update.Record)

	var out progress.Row
	if err := row.Scan(&out.UserID, &out.Username, &out.Status, &out.CurrentScore, &out.Record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress.Row{}, ErrNotFound
		}
		return progress.Row{}, fmt.Errorf("apply progress: %w", err)
	}
	return out, nil
}

// TopRecords returns the highest records, descending. Implements
// progress.Store.
func (r *UserRepository) TopRecords(ctx context.Context, limit int) ([]progress.Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, run_status, current_score, record
		FROM users
		WHERE record > 0
		ORDER BY record DESC, username ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top records: %w", err)
	}
	defer rows.Close()

	var out []progress.Row
	for rows.Next() {
		var row progress.Row
		if err := rows.Scan(&row.UserID, &row.Username, &row.Status, &row.CurrentScore, &row.Record); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.UserType,
		&u.OAuthProvider, &u.OAuthSubject, &u.RunStatus, &u.CurrentScore, &u.Record,
		&u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
