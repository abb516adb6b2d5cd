package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pong-auth/internal/domain"
)

// Errores de unicidad traducidos desde el constraint violado en Postgres.
var (
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	SetOnline(ctx context.Context, id string, online bool) error
	UpdateRefreshTokenHash(ctx context.Context, id, hash string) error
	ClearSession(ctx context.Context, id string) error
	UpdateVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	ClearVerificationCode(ctx context.Context, id string) error
	Set2FA(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, email, username, password_hash,
	COALESCE(profile_picture, ''), is_2fa_enabled,
	COALESCE(verification_code_hash, ''), verification_code_expires_at,
	COALESCE(hashed_rt, ''), is_online, created_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, username, password_hash, profile_picture, is_2fa_enabled, is_online, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.ProfilePicture,
		user.Is2FAEnabled,
		user.IsOnline,
		user.CreatedAt,
	)
	return translateUniqueViolation(err)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PgUserRepository) getBy(ctx context.Context, column, value string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.Is2FAEnabled,
		&u.CodeHash,
		&u.CodeExpiresAt,
		&u.HashedRT,
		&u.IsOnline,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) SetOnline(ctx context.Context, id string, online bool) error {
	const query = `UPDATE users SET is_online = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, online)
	return err
}

func (r *PgUserRepository) UpdateRefreshTokenHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE users SET hashed_rt = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, hash)
	return err
}

func (r *PgUserRepository) ClearSession(ctx context.Context, id string) error {
	const query = `UPDATE users SET hashed_rt = NULL, is_online = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) UpdateVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `UPDATE users SET verification_code_hash = $2, verification_code_expires_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, codeHash, expiresAt)
	return err
}

func (r *PgUserRepository) ClearVerificationCode(ctx context.Context, id string) error {
	const query = `UPDATE users SET verification_code_hash = NULL, verification_code_expires_at = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) Set2FA(ctx context.Context, id string, enabled bool) error {
	const query = `UPDATE users SET is_2fa_enabled = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, enabled)
	return err
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// translateUniqueViolation mapea el codigo 23505 de Postgres al campo en
// conflicto. El constraint de la base es la fuente de verdad; el pre-chequeo
// del servicio es solo una optimizacion.
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return ErrDuplicateEmail
	case "users_username_key":
		return ErrDuplicateUsername
	}
	return err
}
