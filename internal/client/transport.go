package client

import (
	"net/http"
	"strings"
)

// Transport adjunta el bearer correspondiente a cada request saliente y,
// ante un 401 que no venga de un refresh, ejecuta el flujo de refresh y
// reintenta la request original exactamente una vez.
type Transport struct {
	base    http.RoundTripper
	session *Session
	refresh func(req *http.Request) error
}

func NewTransport(base http.RoundTripper, session *Session, refresh func(req *http.Request) error) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		session: session,
		refresh: refresh,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := t.withBearer(req)
	resp, err := t.base.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Un 401 del propio refresh corta el ciclo: la sesion ya no sirve.
	if isRefreshRequest(req) {
		t.session.Clear()
		return resp, nil
	}
	if t.session.RefreshToken() == "" || t.refresh == nil {
		t.session.Clear()
		return resp, nil
	}

	resp.Body.Close()
	t.session.SetNeedsRefresh(true)
	if err := t.refresh(req); err != nil {
		t.session.Clear()
		return nil, err
	}

	retry := t.withBearer(req)
	return t.base.RoundTrip(retry)
}

// withBearer clona la request y agrega el Authorization que corresponda:
// refresh bearer mientras un refresh esta pendiente, access bearer si hay
// token, nada en caso contrario.
func (t *Transport) withBearer(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	switch {
	case t.session.NeedsRefresh() && t.session.RefreshToken() != "":
		clone.Header.Set("Authorization", "Bearer "+t.session.RefreshToken())
	case t.session.AccessToken() != "" && !t.session.NeedsRefresh():
		clone.Header.Set("Authorization", "Bearer "+t.session.AccessToken())
	}
	return clone
}

func isRefreshRequest(req *http.Request) bool {
	return strings.Contains(req.URL.Path, "/auth/refresh")
}
