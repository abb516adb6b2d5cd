package domain

import "time"

// Estados posibles de una invitación de partida.
const (
	InviteWaiting  = "waiting"
	InviteThinking = "thinking"
	InviteAccepted = "accepted"
)

// GameInvite representa una invitación de partida entre dos jugadores.
type GameInvite struct {
	ID        string    `json:"id"`
	InviterID string    `json:"inviter_id"`
	InviteeID string    `json:"invitee_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
