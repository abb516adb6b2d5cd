package oauth42

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

// Client intercambia codigos de autorizacion contra la API de 42 y obtiene
// el perfil del usuario autenticado.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	client       *http.Client
	logger       *zap.Logger
}

// Profile contiene los campos del perfil que usa el signin.
type Profile struct {
	Email    string `json:"email"`
	Login    string `json:"login"`
	ImageURL string `json:"image_url"`
}

func NewClient(baseURL, clientID, clientSecret, redirectURI string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.intra.42.fr"
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// ExchangeCode canjea el codigo de autorizacion y devuelve el perfil.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Profile, error) {
	token, err := c.fetchToken(ctx, code)
	if err != nil {
		return Profile{}, err
	}
	return c.fetchProfile(ctx, token)
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) fetchToken(ctx context.Context, code string) (string, error) {
	reqBody := tokenRequest{
		GrantType:    "authorization_code",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Code:         code,
		RedirectURI:  c.redirectURI,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do token request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("oauth token exchange failed",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		return "", fmt.Errorf("oauth token http error: status=%d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("oauth token response without access_token")
	}
	return tr.AccessToken, nil
}

func (c *Client) fetchProfile(ctx context.Context, token string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/me", nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("do profile request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Profile{}, fmt.Errorf("oauth profile http error: status=%d", resp.StatusCode)
	}

	var p Profile
	if err := json.Unmarshal(respBody, &p); err != nil {
		return Profile{}, fmt.Errorf("unmarshal profile response: %w", err)
	}
	if p.Email == "" {
		return Profile{}, fmt.Errorf("oauth profile without email")
	}
	return p, nil
}
