package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"authgate/internal/apperr"
	"authgate/internal/auth"
	"authgate/internal/model"
	"authgate/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func localUser(id uint, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return &model.User{
		ID:           id,
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Kind:         model.KindLocal,
		Role:         "user",
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail(" A@X.com "))
	assert.Equal(t, "a@x.com", NormalizeEmail("a@x.com"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		userName      string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration normalizes email",
			userName: "A",
			email:    " A@X.com ",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "email already registered",
			userName: "A",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{Email: "a@x.com"}, nil)
			},
			expectedError: apperr.ErrEmailTaken,
		},
		{
			name:          "password too short",
			userName:      "A",
			email:         "a@x.com",
			password:      "12345",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperr.ErrMissingCredentials,
		},
		{
			name:          "missing name",
			userName:      "  ",
			email:         "a@x.com",
			password:      "secret1",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperr.ErrMissingCredentials,
		},
		{
			name:     "create race hits unique index",
			userName: "A",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
					Return(errors.New("Error 1062: Duplicate entry 'a@x.com' for key 'email'"))
			},
			expectedError: apperr.ErrEmailTaken,
		},
		{
			name:     "store unreachable",
			userName: "A",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dial tcp: connection refused"))
			},
			expectedError: apperr.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))
			user, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "a@x.com", user.Email)
				assert.Equal(t, model.KindLocal, user.Kind)
				assert.Equal(t, "user", user.Role)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(localUser(7, "test@example.com", "password123"), nil)
			},
		},
		{
			name:     "email lookup is normalized",
			email:    "  TEST@Example.COM ",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(localUser(7, "test@example.com", "password123"), nil)
			},
		},
		{
			name:     "user does not exist",
			email:    "nobody@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: apperr.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "not-the-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(localUser(7, "test@example.com", "password123"), nil)
			},
			expectedError: apperr.ErrIncorrectPassword,
		},
		{
			name:     "provider-only account rejects any password",
			email:    "oauth@example.com",
			password: "anything",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "oauth@example.com").Return(&model.User{
					ID:    8,
					Email: "oauth@example.com",
					Kind:  model.KindProvider,
					Role:  "user",
				}, nil)
			},
			expectedError: apperr.ErrIncorrectPassword,
		},
		{
			name:          "missing password",
			email:         "test@example.com",
			password:      "",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperr.ErrMissingCredentials,
		},
		{
			name:     "store unreachable fails closed",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").
					Return(nil, errors.New("dial tcp: connection refused"))
			},
			expectedError: apperr.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			svc := NewAuthService(mockRepo, jwtService)

			token, identity, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, uint(7), identity.ID)
				assert.Equal(t, "test@example.com", identity.Email)

				claims, err := jwtService.Validate(token)
				assert.NoError(t, err)
				assert.Equal(t, identity.ID, claims.UserID)
				assert.Equal(t, identity.Role, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
