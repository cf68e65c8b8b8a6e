package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hexaosint/api/internal/config"
	"hexaosint/api/internal/ids"
	"hexaosint/api/internal/models"
	"hexaosint/api/internal/repository"
	"hexaosint/api/internal/security"
)

// UserStore is the persistence contract the auth facade needs for user
// records. Satisfied by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]models.User, error)
}

// TokenStore is the persistence contract for refresh tokens. Satisfied by
// repository.TokenRepository. Rotate must be atomic: at most one caller
// presenting the same token may win.
type TokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash []byte, now time.Time) (models.RefreshToken, error)
	Rotate(ctx context.Context, oldHash []byte, next models.RefreshToken, now time.Time) error
	Revoke(ctx context.Context, tokenHash []byte, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// dummyHash is compared against when the email is unknown, keeping login
// latency independent of account existence.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    config.SecurityConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, cfg config.SecurityConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type LoginInput struct {
	Email     string
	Password  string
	Device    string
	IPAddress string
}

// AuthResult is a freshly minted token pair plus the authenticated user.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Email == "" || input.FirstName == "" || input.LastName == "" {
		return models.User{}, ErrInvalidInput
	}
	if len(input.Password) < 8 || len(input.Password) > 100 {
		return models.User{}, ErrInvalidInput
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: passwordHash,
		IsActive:     true,
		IsAdmin:      false,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown email, wrong
// password and inactive account all collapse to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			security.VerifyPassword(input.Password, dummyHash)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return AuthResult{}, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("set last login failed")
	} else {
		user.LastLoginAt = &now
	}

	result, _, err := s.issuePair(ctx, user, input.Device, input.IPAddress)
	return result, err
}

func (s *AuthService) issuePair(ctx context.Context, user models.User, device, ip string) (AuthResult, models.RefreshToken, error) {
	now := s.now()

	accessToken, err := security.GenerateAccessToken(s.cfg.JWTSecret, user, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return AuthResult{}, models.RefreshToken{}, err
	}

	rawToken, tokenHash, err := security.GenerateRefreshToken()
	if err != nil {
		return AuthResult{}, models.RefreshToken{}, err
	}

	record := models.RefreshToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		Device:    device,
		IPAddress: ip,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return AuthResult{}, models.RefreshToken{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: rawToken,
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		User:         user,
	}, record, nil
}

// Refresh rotates the presented token: the caller gets a new pair and the
// presented token is revoked in the same store transaction. A replayed
// token loses the rotation race and fails.
func (s *AuthService) Refresh(ctx context.Context, rawToken, device, ip string) (AuthResult, error) {
	now := s.now()
	oldHash := security.HashRefreshToken(rawToken)

	record, err := s.tokens.FindActive(ctx, oldHash, now)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, ErrInvalidToken
	}

	if device == "" {
		device = record.Device
	}

	accessToken, err := security.GenerateAccessToken(s.cfg.JWTSecret, user, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return AuthResult{}, err
	}

	rawNext, nextHash, err := security.GenerateRefreshToken()
	if err != nil {
		return AuthResult{}, err
	}
	next := models.RefreshToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: nextHash,
		Device:    device,
		IPAddress: ip,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	if err := s.tokens.Rotate(ctx, oldHash, next, now); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			// Consumed by a concurrent refresh between lookup and rotate.
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: rawNext,
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		User:         user,
	}, nil
}

// ValidateRefresh resolves an opaque token to its owner without side
// effects.
func (s *AuthService) ValidateRefresh(ctx context.Context, rawToken string) (models.User, error) {
	record, err := s.tokens.FindActive(ctx, security.HashRefreshToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, ErrInvalidToken
	}
	return user, nil
}

// Logout revokes a single refresh token.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	err := s.tokens.Revoke(ctx, security.HashRefreshToken(rawToken), s.now())
	if errors.Is(err, repository.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}

// LogoutAll revokes every active token for the user and returns the count.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	count, err := s.tokens.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("user_id", userID).Int64("revoked", count).Msg("logout everywhere")
	return count, nil
}

// VerifyAccess checks an access token and resolves its subject to an active
// user. The returned error distinguishes expiry from malformation
// (security.ErrTokenExpired vs security.ErrTokenInvalid) so the transport
// layer can tell the client whether a refresh is worth attempting.
func (s *AuthService) VerifyAccess(ctx context.Context, tokenStr string) (models.User, *security.AccessClaims, error) {
	claims, err := security.ParseAccessToken(tokenStr, s.cfg.JWTSecret, s.now())
	if err != nil {
		return models.User{}, nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, nil, ErrUnauthenticated
		}
		return models.User{}, nil, err
	}
	if !user.IsActive {
		return models.User{}, nil, ErrUnauthenticated
	}
	return user, claims, nil
}

// Sessions lists the caller's active refresh-token sessions.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]models.RefreshToken, error) {
	return s.tokens.ListActiveByUser(ctx, userID, s.now())
}

// SetUserActive enables or disables an account. Disabling also revokes all
// refresh tokens so outstanding sessions die with the account.
func (s *AuthService) SetUserActive(ctx context.Context, userID string, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return err
	}
	if !active {
		count, err := s.tokens.RevokeAllForUser(ctx, userID, s.now())
		if err != nil {
			return err
		}
		s.log.Info().Str("user_id", userID).Int64("revoked", count).Msg("user disabled")
	}
	return nil
}

// ListUsers returns all accounts. Admin surface only.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
