package user

import (
	"context"
	"testing"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) SetBanned(ctx context.Context, id int, banned bool) error {
	args := m.Called(ctx, id, banned)
	return args.Error(0)
}

func (m *MockRepo) SetVerified(ctx context.Context, id int, emailVerified, phoneVerified bool) error {
	args := m.Called(ctx, id, emailVerified, phoneVerified)
	return args.Error(0)
}

const testSecret = "test-jwt-secret"

func TestRegisterSuccess(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	repo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Player One", "new@example.com", mock.Anything, auth.RoleUser).
		Return(&User{ID: 1, Name: "Player One", Email: "new@example.com", Role: auth.RoleUser}, nil)

	u, accessToken, refreshToken, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Player One",
		Email:    "new@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	repo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	repo.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

	_, _, _, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Player",
		Email:    "taken@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, ErrEmailExists)
	repo.AssertNotCalled(t, "Create")
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	repo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Player", "new@example.com",
		mock.MatchedBy(func(hash string) bool {
			return hash != "password123" && auth.CheckPassword(hash, "password123")
		}), auth.RoleUser).
		Return(&User{ID: 1, Email: "new@example.com", Role: auth.RoleUser}, nil)

	_, _, _, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Player",
		Email:    "new@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "player@example.com").
		Return(&User{ID: 2, Email: "player@example.com", PasswordHash: hash, Role: auth.RoleUser}, nil)

	u, accessToken, _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "player@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, u.ID)
	assert.NotEmpty(t, accessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "player@example.com").
		Return(&User{ID: 2, Email: "player@example.com", PasswordHash: hash}, nil)

	_, _, _, err = svc.Login(context.Background(), LoginRequest{
		Email:    "player@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, assert.AnError)

	_, _, _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, testSecret)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "player@example.com").
		Return(&User{ID: 2, Email: "player@example.com", PasswordHash: hash, Role: auth.RoleUser}, nil)

	_, _, refreshToken, err := svc.Login(context.Background(), LoginRequest{
		Email:    "player@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	accessToken, err := svc.RefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	svc := NewService(new(MockRepo), testSecret)

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
