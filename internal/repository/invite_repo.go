package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"pong-auth/internal/domain"
)

// GameInviteRepository define el contrato de persistencia para invitaciones.
type GameInviteRepository interface {
	Create(ctx context.Context, invite domain.GameInvite) error
	UpdateStatus(ctx context.Context, id, status string) error
	ListAccepted(ctx context.Context, userID string) ([]domain.GameInvite, error)
	ListWaiting(ctx context.Context, userID string) ([]domain.GameInvite, error)
	ListThinking(ctx context.Context, userID string) ([]domain.GameInvite, error)
}

// PgGameInviteRepository implementa GameInviteRepository usando pgxpool.
type PgGameInviteRepository struct {
	pool *pgxpool.Pool
}

func NewPgGameInviteRepository(pool *pgxpool.Pool) *PgGameInviteRepository {
	return &PgGameInviteRepository{pool: pool}
}

func (r *PgGameInviteRepository) Create(ctx context.Context, invite domain.GameInvite) error {
	const query = `
		INSERT INTO game_invites (id, inviter_id, invitee_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		invite.ID,
		invite.InviterID,
		invite.InviteeID,
		invite.Status,
		invite.CreatedAt,
	)
	return err
}

func (r *PgGameInviteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE game_invites SET status = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, status)
	return err
}

// ListAccepted devuelve invitaciones aceptadas donde participa el usuario.
func (r *PgGameInviteRepository) ListAccepted(ctx context.Context, userID string) ([]domain.GameInvite, error) {
	const query = `
		SELECT id, inviter_id, invitee_id, status, created_at
		FROM game_invites
		WHERE status = 'accepted' AND (inviter_id = $1 OR invitee_id = $1)
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListWaiting devuelve invitaciones pendientes de respuesta del usuario.
func (r *PgGameInviteRepository) ListWaiting(ctx context.Context, userID string) ([]domain.GameInvite, error) {
	const query = `
		SELECT id, inviter_id, invitee_id, status, created_at
		FROM game_invites
		WHERE status = 'waiting' AND invitee_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListThinking devuelve invitaciones enviadas por el usuario aun sin decidir.
func (r *PgGameInviteRepository) ListThinking(ctx context.Context, userID string) ([]domain.GameInvite, error) {
	const query = `
		SELECT id, inviter_id, invitee_id, status, created_at
		FROM game_invites
		WHERE status = 'thinking' AND inviter_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PgGameInviteRepository) list(ctx context.Context, query, userID string) ([]domain.GameInvite, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []domain.GameInvite{}
	for rows.Next() {
		var inv domain.GameInvite
		if err := rows.Scan(&inv.ID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
