package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	"github.com/wordrun/wordrun-platform/internal/db/repository"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	GetByOAuth(ctx context.Context, provider, subject string) (repository.User, error)
	PromoteGuest(ctx context.Context, userID uuid.UUID, email, passwordHash string) (repository.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
}

// Service handles authentication and user management.
type Service struct {
	users    UserStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger,
	}
}

// Register creates a new registered user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, nil, fmt.Errorf("email required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return nil, nil, fmt.Errorf("username required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, fmt.Errorf("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	dbUser, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:        &email,
		PasswordHash: &passwordHash,
		Username:     req.Username,
		UserType:     "registered",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := toAuthUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates a user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	dbUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}
	if dbUser.PasswordHash == nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}
	if err := VerifyPassword(*dbUser.PasswordHash, req.Password); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}

	_ = s.users.UpdateLogin(ctx, dbUser.ID)

	user := toAuthUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// CreateGuest creates an ephemeral guest account.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*User, *TokenPair, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "Guest-" + uuid.New().String()[:8]
	}

	dbUser, err := s.users.Create(ctx, repository.CreateUserParams{
		Username: username,
		UserType: "guest",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	user := toAuthUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest created")
	return user, tokens, nil
}

// ConvertGuest upgrades a guest account to registered, keeping its
// progress and record.
func (s *Service) ConvertGuest(ctx context.Context, req ConvertGuestRequest) (*User, *TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, nil, fmt.Errorf("email required")
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	dbUser, err := s.users.PromoteGuest(ctx, req.GuestID, email, passwordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("convert guest: %w", err)
	}

	user := toAuthUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest converted to registered")
	return user, tokens, nil
}

// LoginWithOAuth finds or creates a user for a verified OAuth identity.
func (s *Service) LoginWithOAuth(ctx context.Context, provider string, info *OAuthUserInfo) (*User, *TokenPair, error) {
	dbUser, err := s.users.GetByOAuth(ctx, provider, info.ProviderID)
	if errors.Is(err, repository.ErrNotFound) {
		username := info.Name
		if username == "" {
			username = "Player-" + uuid.New().String()[:8]
		}
		email := strings.TrimSpace(strings.ToLower(info.Email))
		params := repository.CreateUserParams{
			Username:      username,
			UserType:      "registered",
			OAuthProvider: &provider,
			OAuthSubject:  &info.ProviderID,
		}
		if email != "" {
			params.Email = &email
		}
		dbUser, err = s.users.Create(ctx, params)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("oauth login: %w", err)
	}

	_ = s.users.UpdateLogin(ctx, dbUser.ID)

	user := toAuthUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("provider", provider).
		Msg("oauth login")
	return user, tokens, nil
}

// RefreshToken generates a new token pair from a refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	dbUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return s.generateTokenPair(*toAuthUser(dbUser))
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

func (s *Service) generateTokenPair(user User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		UserType: user.UserType,
		IsGuest:  user.IsGuest,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func toAuthUser(u repository.User) *User {
	return &User{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		UserType: u.UserType,
		IsGuest:  u.UserType == "guest",
	}
}
