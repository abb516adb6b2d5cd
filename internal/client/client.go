package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client es el adaptador HTTP del frontend: envuelve la API de auth con el
// transporte que refresca tokens de forma transparente.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *zap.Logger
}

// TokenPair refleja la respuesta de emision de tokens del backend.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// SigninResponse es la respuesta de signin: tokens o desafio 2FA.
type SigninResponse struct {
	Tokens            *TokenPair `json:"tokens"`
	TwoFactorRequired bool       `json:"is2faEnabled"`
	Email             string     `json:"email"`
}

func New(baseURL string, logger *zap.Logger) *Client {
	session := NewSession()
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		logger:  logger,
	}
	c.http = &http.Client{
		Timeout:   15 * time.Second,
		Transport: NewTransport(nil, session, c.refreshForRetry),
	}
	return c
}

// Session expone el estado de sesion del cliente.
func (c *Client) Session() *Session {
	return c.session
}

// SignupLocal registra una cuenta nueva y guarda los tokens emitidos.
func (c *Client) SignupLocal(ctx context.Context, email, username, password string) (TokenPair, error) {
	var tokens TokenPair
	err := c.post(ctx, "/auth/local/signup", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &tokens)
	if err != nil {
		return TokenPair{}, err
	}
	c.session.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return tokens, nil
}

// SigninLocal inicia sesion por email o username segun isEmail.
func (c *Client) SigninLocal(ctx context.Context, identifier, password string, isEmail bool) (SigninResponse, error) {
	body := map[string]string{"password": password}
	if isEmail {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var result SigninResponse
	if err := c.post(ctx, "/auth/local/signin", body, &result); err != nil {
		return SigninResponse{}, err
	}
	if result.Tokens != nil {
		c.session.SetTokens(result.Tokens.AccessToken, result.Tokens.RefreshToken)
	}
	return result, nil
}

// Verify2FA completa el desafio 2FA pendiente.
func (c *Client) Verify2FA(ctx context.Context, identifier, code string, isEmail bool) (TokenPair, error) {
	body := map[string]string{"verificationCode": code}
	if isEmail {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var tokens TokenPair
	if err := c.post(ctx, "/auth/local/signin/2fa", body, &tokens); err != nil {
		return TokenPair{}, err
	}
	c.session.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return tokens, nil
}

// SigninFortyTwo canjea los parametros de OAuth contra el backend.
func (c *Client) SigninFortyTwo(ctx context.Context, params string) (SigninResponse, error) {
	var result SigninResponse
	if err := c.get(ctx, "/auth/42/signin"+params, &result); err != nil {
		return SigninResponse{}, err
	}
	if result.Tokens != nil {
		c.session.SetTokens(result.Tokens.AccessToken, result.Tokens.RefreshToken)
	}
	return result, nil
}

// Refresh pide un par nuevo usando el refresh token vigente.
func (c *Client) Refresh(ctx context.Context) (TokenPair, error) {
	if c.session.RefreshToken() == "" {
		c.session.Clear()
		return TokenPair{}, fmt.Errorf("no refresh token available")
	}
	c.session.SetNeedsRefresh(true)

	var tokens TokenPair
	if err := c.post(ctx, "/auth/refresh", nil, &tokens); err != nil {
		c.session.Clear()
		return TokenPair{}, err
	}
	c.session.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return tokens, nil
}

// Logout invalida el refresh token en el backend y limpia la sesion local.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/auth/logout", nil, nil)
	c.session.Clear()
	return err
}

// refreshForRetry es el callback del transporte para el reintento tras 401.
func (c *Client) refreshForRetry(req *http.Request) error {
	_, err := c.Refresh(req.Context())
	if err != nil && c.logger != nil {
		c.logger.Warn("token refresh failed", zap.Error(err))
	}
	return err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// APIError es una respuesta de error del backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.Status, e.Body)
}
