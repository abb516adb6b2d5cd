package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Invite refleja una invitacion de partida tal como la entrega el backend.
type Invite struct {
	ID        string    `json:"id"`
	InviterID string    `json:"inviter_id"`
	InviteeID string    `json:"invitee_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteStore mantiene las listas de invitaciones que el frontend sondea
// periodicamente. Los errores de fetch se registran y no interrumpen el
// sondeo.
type InviteStore struct {
	mu       sync.Mutex
	client   *Client
	logger   *zap.Logger
	accepted []Invite
	waiting  []Invite
	thinking []Invite
}

func NewInviteStore(client *Client, logger *zap.Logger) *InviteStore {
	return &InviteStore{
		client: client,
		logger: logger,
	}
}

// Update refresca las tres listas desde el backend.
func (s *InviteStore) Update(ctx context.Context) error {
	var accepted, waiting, thinking []Invite
	if err := s.client.get(ctx, "/invites/accepted", &accepted); err != nil {
		return err
	}
	if err := s.client.get(ctx, "/invites/waiting", &waiting); err != nil {
		return err
	}
	if err := s.client.get(ctx, "/invites/thinking", &thinking); err != nil {
		return err
	}

	s.mu.Lock()
	s.accepted = accepted
	s.waiting = waiting
	s.thinking = thinking
	s.mu.Unlock()
	return nil
}

// Poll actualiza las listas cada interval hasta que el contexto se cancele.
func (s *InviteStore) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Update(ctx); err != nil && s.logger != nil {
				s.logger.Warn("invite poll failed", zap.Error(err))
			}
		}
	}
}

func (s *InviteStore) Accepted() []Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Invite(nil), s.accepted...)
}

func (s *InviteStore) Waiting() []Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Invite(nil), s.waiting...)
}

func (s *InviteStore) Thinking() []Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Invite(nil), s.thinking...)
}
