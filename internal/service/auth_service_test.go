package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

func newAuthServiceFixture(t *testing.T) (*AuthService, *authUserRepoStub) {
	t.Helper()
	repo := &authUserRepoStub{users: map[string]*models.User{}}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "timetable-api",
	})
	return service, repo
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	service, repo := newAuthServiceFixture(t)
	ctx := context.Background()

	info, err := service.Register(ctx, models.RegisterRequest{
		Email:    "User@Example.com",
		Password: "sup3rsecret",
		FullName: "Dana Ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", info.Email)
	assert.Equal(t, models.RoleViewer, info.Role)
	require.Len(t, repo.users, 1)

	resp, err := service.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.Equal(t, models.RoleViewer, claims.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	service, _ := newAuthServiceFixture(t)
	ctx := context.Background()

	_, err := service.Register(ctx, models.RegisterRequest{Email: "a@example.com", Password: "sup3rsecret", FullName: "A"})
	require.NoError(t, err)

	_, err = service.Register(ctx, models.RegisterRequest{Email: "a@example.com", Password: "sup3rsecret", FullName: "A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	service, repo := newAuthServiceFixture(t)
	repo.seed(t, "a@example.com", "rightpassword", models.RoleAdmin, true)

	_, err := service.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "wrongpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	service, repo := newAuthServiceFixture(t)
	repo.seed(t, "a@example.com", "rightpassword", models.RoleAdmin, false)

	_, err := service.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "rightpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	service, _ := newAuthServiceFixture(t)

	_, err := service.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

type authUserRepoStub struct {
	users map[string]*models.User
}

func (s *authUserRepoStub) seed(t *testing.T, email, password string, role models.UserRole, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s.users[email] = &models.User{
		ID:           "u-" + email,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Seeded User",
		Role:         role,
		Active:       active,
	}
}

func (s *authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *authUserRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-" + user.Email
	}
	s.users[user.Email] = user
	return nil
}
