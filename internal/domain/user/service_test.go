package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, NewPasswordValidator(), slog.Default())
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u User) bool {
		return u.Email == "ana@acme.com" &&
			u.Active &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Ancoragem2024")) == nil
	})).Return("u-1", nil)

	id, err := service.Register(context.Background(), User{Email: " Ana@Acme.com ", CompanyID: "c1"}, "Ancoragem2024")

	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.Register(context.Background(), User{Email: "ana@acme.com"}, "weak")

	assert.ErrorIs(t, err, ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Authenticate(t *testing.T) {
	active := User{ID: "u-1", Email: "ana@acme.com", PasswordHash: hashed(t, "Ancoragem2024"), Active: true}
	inactive := active
	inactive.Active = false

	tests := []struct {
		name     string
		email    string
		password string
		found    User
		findErr  error
		wantErr  error
	}{
		{name: "success", email: "ana@acme.com", password: "Ancoragem2024", found: active},
		{name: "case insensitive email", email: "ANA@acme.com", password: "Ancoragem2024", found: active},
		{name: "wrong password", email: "ana@acme.com", password: "Errada2024", found: active, wantErr: ErrInvalidAuth},
		{name: "inactive", email: "ana@acme.com", password: "Ancoragem2024", found: inactive, wantErr: ErrInactive},
		{name: "not found", email: "ana@acme.com", password: "Ancoragem2024", findErr: ErrNotFound, wantErr: ErrNotFound},
		{name: "malformed email", email: "ana", password: "Ancoragem2024", wantErr: ErrInvalidAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockRepository)
			mockRepo.On("FindByEmail", mock.Anything, "ana@acme.com").Return(tt.found, tt.findErr).Maybe()
			service := newTestService(mockRepo)

			// Act
			u, err := service.Authenticate(context.Background(), tt.email, tt.password)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", u.ID)
		})
	}
}

func TestService_Authenticate_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByEmail", mock.Anything, "ana@acme.com").Return(User{}, errors.New("connection refused"))
	service := newTestService(mockRepo)

	_, err := service.Authenticate(context.Background(), "ana@acme.com", "Ancoragem2024")

	assert.ErrorContains(t, err, "connection refused")
}

func TestService_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		found   User
		findErr error
		wantErr error
	}{
		{name: "active user", found: User{Email: "ana@acme.com", CompanyID: "c1", Active: true}},
		{name: "inactive user", found: User{Email: "ana@acme.com", Active: false}, wantErr: ErrInactive},
		{name: "unknown user", findErr: ErrNotFound, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			mockRepo.On("FindByEmail", mock.Anything, "ana@acme.com").Return(tt.found, tt.findErr)

			// Act
			u, err := service.Lookup(context.Background(), " Ana@Acme.com")

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c1", u.CompanyID)
		})
	}
}
