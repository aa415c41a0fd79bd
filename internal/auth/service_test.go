package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	"github.com/wordrun/wordrun-platform/internal/db/repository"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) GetByOAuth(ctx context.Context, provider, subject string) (repository.User, error) {
	args := m.Called(ctx, provider, subject)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) PromoteGuest(ctx context.Context, userID uuid.UUID, email, passwordHash string) (repository.User, error) {
	args := m.Called(ctx, userID, email, passwordHash)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func newTestService(store UserStore) *Service {
	return NewService(store, ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.True(t, len(hash) > 20) // bcrypt hashes are long
}

func TestVerifyPassword(t *testing.T) {
	hash, _ := HashPassword("testpassword123")

	err := VerifyPassword(hash, "testpassword123")
	assert.NoError(t, err)

	err = VerifyPassword(hash, "wrongpassword")
	assert.Error(t, err)
}

func TestPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
	assert.Equal(t, ErrPasswordTooShort, err)
}

func TestRegisterCreatesUserAndTokens(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	email := "player@example.com"
	store.On("GetByEmail", mock.Anything, email).Return(repository.User{}, repository.ErrNotFound)
	store.On("Create", mock.Anything, mock.MatchedBy(func(p repository.CreateUserParams) bool {
		return p.UserType == "registered" && p.Email != nil && *p.Email == email && p.PasswordHash != nil
	})).Return(repository.User{
		ID:       uuid.New(),
		Email:    &email,
		Username: "player1",
		UserType: "registered",
	}, nil)

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Player@Example.com",
		Password: "testpassword123",
		Username: "player1",
	})
	require.NoError(t, err)
	assert.Equal(t, "player1", user.Username)
	assert.False(t, user.IsGuest)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "player1", claims.Username)
	store.AssertExpectations(t)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	email := "taken@example.com"
	store.On("GetByEmail", mock.Anything, email).Return(repository.User{ID: uuid.New(), Email: &email}, nil)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpassword123",
		Username: "player2",
	})
	assert.Error(t, err)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	email := "player@example.com"
	hash, _ := HashPassword("correctpassword")
	store.On("GetByEmail", mock.Anything, email).Return(repository.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &hash,
		UserType:     "registered",
	}, nil)

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: email, Password: "wrongpassword"})
	assert.Error(t, err)
}

func TestCreateGuestGeneratesUsername(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	store.On("Create", mock.Anything, mock.MatchedBy(func(p repository.CreateUserParams) bool {
		return p.UserType == "guest" && p.Username != "" && p.Email == nil
	})).Return(repository.User{
		ID:       uuid.New(),
		Username: "Guest-abc12345",
		UserType: "guest",
	}, nil)

	user, tokens, err := svc.CreateGuest(context.Background(), GuestRequest{})
	require.NoError(t, err)
	assert.True(t, user.IsGuest)
	assert.NotEmpty(t, tokens.AccessToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	userID := uuid.New()
	store.On("Create", mock.Anything, mock.Anything).Return(repository.User{
		ID:       userID,
		Username: "guesty",
		UserType: "guest",
	}, nil)
	store.On("GetByID", mock.Anything, userID).Return(repository.User{
		ID:       userID,
		Username: "guesty",
		UserType: "guest",
	}, nil)

	_, tokens, err := svc.CreateGuest(context.Background(), GuestRequest{Username: "guesty"})
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// Access tokens never work as refresh tokens.
	_, err = svc.RefreshToken(context.Background(), tokens.AccessToken)
	assert.Error(t, err)
}
