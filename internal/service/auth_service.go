package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pong-auth/internal/domain"
	"pong-auth/internal/email"
	"pong-auth/internal/repository"
)

// AuthService coordina signup, signin, 2FA, signin de terceros, logout y
// rotacion de refresh tokens.
type AuthService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	tokens  *TokenService
	sender  email.Sender
	limiter SendLimiter
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, tokens *TokenService, sender email.Sender, limiter SendLimiter) *AuthService {
	if limiter == nil {
		limiter = NewSendLimiter(codeTTL, 3)
	}
	return &AuthService{
		logger:  logger,
		users:   users,
		tokens:  tokens,
		sender:  sender,
		limiter: limiter,
	}
}

var (
	ErrEmailInUse              = errors.New("email already in use")
	ErrUsernameInUse           = errors.New("username already in use")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUserNotFound            = errors.New("user not found")
	ErrNoVerificationPending   = errors.New("no verification code pending")
	ErrVerificationCodeExpired = errors.New("verification code expired")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrAccessDenied            = errors.New("access denied")
	ErrEmailSendFailure        = errors.New("email send failed")
	ErrRateLimited             = errors.New("rate limited")
)

const codeTTL = 10 * time.Minute

const codeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SigninResult es la respuesta de un signin: tokens, o un desafio 2FA
// pendiente sin tokens.
type SigninResult struct {
	Tokens            *TokenPair `json:"tokens,omitempty"`
	TwoFactorRequired bool       `json:"is2faEnabled"`
	Email             string     `json:"email,omitempty"`
}

// SignupLocal crea la cuenta y devuelve el primer par de tokens. La
// unicidad real la garantiza el constraint de la base; los lookups previos
// solo adelantan el error mas comun.
func (s *AuthService) SignupLocal(ctx context.Context, emailAddr, username, password string) (TokenPair, error) {
	emailAddr = normalizeEmail(emailAddr)
	username = strings.TrimSpace(username)
	if emailAddr == "" || username == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return TokenPair{}, ErrEmailInUse
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return TokenPair{}, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return TokenPair{}, ErrUsernameInUse
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return TokenPair{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		Username:     username,
		PasswordHash: string(hashBytes),
		IsOnline:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return TokenPair{}, ErrEmailInUse
		case errors.Is(err, repository.ErrDuplicateUsername):
			return TokenPair{}, ErrUsernameInUse
		}
		return TokenPair{}, err
	}

	return s.issueSession(ctx, user)
}

// SigninLocal autentica por email o username. No revela cual de las dos
// partes de la credencial fallo.
func (s *AuthService) SigninLocal(ctx context.Context, emailAddr, username, password string) (SigninResult, error) {
	user, err := s.findByIdentifier(ctx, emailAddr, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SigninResult{}, ErrInvalidCredentials
		}
		return SigninResult{}, err
	}
	if user.PasswordHash == "" {
		return SigninResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return SigninResult{}, ErrInvalidCredentials
	}

	if user.Is2FAEnabled {
		return s.startTwoFactor(ctx, user)
	}

	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		return SigninResult{}, err
	}
	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return SigninResult{}, err
	}
	return SigninResult{Tokens: &tokens}, nil
}

// Verify2FA consume el codigo pendiente y entrega tokens. Un codigo errado
// no limpia el pendiente, asi el usuario puede reintentar hasta que expire.
func (s *AuthService) Verify2FA(ctx context.Context, emailAddr, username, code string) (TokenPair, error) {
	user, err := s.findByIdentifier(ctx, emailAddr, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}

	if err := s.checkCode(user, code); err != nil {
		return TokenPair{}, err
	}

	if err := s.users.ClearVerificationCode(ctx, user.ID); err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		return TokenPair{}, err
	}
	return s.issueSession(ctx, user)
}

// FortyTwoProfile es el perfil minimo que entrega el intercambio OAuth.
type FortyTwoProfile struct {
	Email    string
	Username string
	Avatar   string
}

// SigninFortyTwo inicia sesion con un perfil de la intra. La primera vez
// crea la cuenta con una password aleatoria inutilizable.
func (s *AuthService) SigninFortyTwo(ctx context.Context, profile FortyTwoProfile) (SigninResult, error) {
	emailAddr := normalizeEmail(profile.Email)
	if emailAddr == "" {
		return SigninResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return SigninResult{}, err
		}
		randomPass, err := randomPassword()
		if err != nil {
			return SigninResult{}, err
		}
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(randomPass), bcrypt.DefaultCost)
		if err != nil {
			return SigninResult{}, err
		}
		user = domain.User{
			ID:             uuid.NewString(),
			Email:          emailAddr,
			Username:       strings.TrimSpace(profile.Username),
			PasswordHash:   string(hashBytes),
			ProfilePicture: profile.Avatar,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) {
				return SigninResult{}, ErrUsernameInUse
			}
			return SigninResult{}, err
		}
	}

	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		return SigninResult{}, err
	}

	if user.Is2FAEnabled {
		return s.startTwoFactor(ctx, user)
	}

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return SigninResult{}, err
	}
	return SigninResult{Tokens: &tokens}, nil
}

// Logout invalida el refresh token y marca al usuario offline. Idempotente.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearSession(ctx, userID)
}

// RefreshTokens rota el par: el refresh presentado debe verificar contra el
// hash guardado, y el hash nuevo lo reemplaza de forma permanente.
func (s *AuthService) RefreshTokens(ctx context.Context, userID, presented string) (TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenPair{}, ErrAccessDenied
		}
		return TokenPair{}, err
	}
	if user.HashedRT == "" {
		return TokenPair{}, ErrAccessDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedRT), refreshTokenDigest(presented)); err != nil {
		return TokenPair{}, ErrAccessDenied
	}
	return s.issueSession(ctx, user)
}

// RequestEmailVerification genera un codigo nuevo y lo envia. El resultado
// del envio se reporta al caller; la politica de fallback la decide el.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if s.limiter != nil && !s.limiter.Allow(user.Email) {
		return ErrRateLimited
	}

	code, err := s.storeNewCode(ctx, user.ID)
	if err != nil {
		return err
	}
	if !s.sender.Send(ctx, user.Email, code) {
		return ErrEmailSendFailure
	}
	return nil
}

// VerifyEmailCode valida el codigo pendiente del usuario y lo consume.
func (s *AuthService) VerifyEmailCode(ctx context.Context, userID, code string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	if err := s.checkCode(user, code); err != nil {
		return false, err
	}
	if err := s.users.ClearVerificationCode(ctx, user.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Toggle2FA invierte el flag de 2FA y devuelve el estado nuevo. Al
// desactivar se descarta cualquier codigo pendiente.
func (s *AuthService) Toggle2FA(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	enabled := !user.Is2FAEnabled
	if err := s.users.Set2FA(ctx, user.ID, enabled); err != nil {
		return false, err
	}
	if !enabled && user.CodeHash != "" {
		if err := s.users.ClearVerificationCode(ctx, user.ID); err != nil {
			return false, err
		}
	}
	return enabled, nil
}

// SetOnline actualiza la presencia del usuario.
func (s *AuthService) SetOnline(ctx context.Context, userID string, online bool) error {
	return s.users.SetOnline(ctx, userID, online)
}

// DeleteAccount elimina la cuenta definitivamente.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

// startTwoFactor persiste un codigo nuevo y lo envia. Si la entrega falla,
// el flujo degrada a entregar tokens de inmediato; es un fallback pensado
// para entornos sin correo y deberia ser un error reintentable en
// produccion.
func (s *AuthService) startTwoFactor(ctx context.Context, user domain.User) (SigninResult, error) {
	code, err := s.storeNewCode(ctx, user.ID)
	if err != nil {
		return SigninResult{}, err
	}

	if s.sender.Send(ctx, user.Email, code) {
		return SigninResult{TwoFactorRequired: true, Email: user.Email}, nil
	}

	s.logger.Warn("verification email failed, skipping 2fa for this attempt",
		zap.String("email", user.Email),
	)
	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		return SigninResult{}, err
	}
	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return SigninResult{}, err
	}
	return SigninResult{Tokens: &tokens}, nil
}

// storeNewCode genera un codigo, guarda su hash con expiracion y devuelve
// el codigo en claro para el envio. Siempre se persiste antes de enviar.
func (s *AuthService) storeNewCode(ctx context.Context, userID string) (string, error) {
	code, err := generateCode(6)
	if err != nil {
		return "", err
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().UTC().Add(codeTTL)
	if err := s.users.UpdateVerificationCode(ctx, userID, string(hashBytes), expiresAt); err != nil {
		return "", err
	}
	return code, nil
}

// checkCode valida el codigo contra el hash pendiente del usuario.
func (s *AuthService) checkCode(user domain.User, code string) error {
	if user.CodeHash == "" {
		return ErrNoVerificationPending
	}
	if user.CodeExpiresAt != nil && time.Now().UTC().After(*user.CodeExpiresAt) {
		return ErrVerificationCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		return ErrInvalidVerificationCode
	}
	return nil
}

// issueSession emite un par nuevo y persiste el hash del refresh,
// invalidando cualquier refresh anterior.
func (s *AuthService) issueSession(ctx context.Context, user domain.User) (TokenPair, error) {
	tokens, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	hashBytes, err := bcrypt.GenerateFromPassword(refreshTokenDigest(tokens.RefreshToken), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.UpdateRefreshTokenHash(ctx, user.ID, string(hashBytes)); err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

// refreshTokenDigest reduce el token a un digest de largo fijo antes de
// bcrypt: un JWT supera el limite de 72 bytes de entrada de bcrypt.
func refreshTokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func (s *AuthService) findByIdentifier(ctx context.Context, emailAddr, username string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	username = strings.TrimSpace(username)
	if emailAddr != "" {
		return s.users.GetByEmail(ctx, emailAddr)
	}
	if username != "" {
		return s.users.GetByUsername(ctx, username)
	}
	return domain.User{}, pgx.ErrNoRows
}

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
