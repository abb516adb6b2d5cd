package client

import "sync"

// Session guarda los tokens del lado cliente. Es el equivalente del store
// de autenticacion del frontend: estado en memoria, nunca persistido.
type Session struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	needsRefresh bool
}

func NewSession() *Session {
	return &Session{}
}

// SetTokens reemplaza el par actual y sale del modo refresh.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
	s.needsRefresh = false
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// NeedsRefresh indica si la proxima request debe llevar el refresh bearer.
func (s *Session) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRefresh
}

func (s *Session) SetNeedsRefresh(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsRefresh = v
}

// Clear descarta todo el estado de sesion del cliente.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.needsRefresh = false
}
