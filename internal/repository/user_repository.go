package repository

import (
	"context"

	"gorm.io/gorm"

	"authgate/internal/db"
	"authgate/internal/model"
)

// ErrNotFound is the store-level miss, re-exported so services don't depend on
// gorm directly.
var ErrNotFound = gorm.ErrRecordNotFound

// UserRepository defines user persistence operations. Emails passed in must
// already be normalized by the caller.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepository struct {
	provider *db.Provider
}

// NewUserRepository builds a GORM-backed repository on the shared connection
// provider. Every operation awaits connection readiness before querying.
func NewUserRepository(provider *db.Provider) UserRepository {
	return &userRepository{provider: provider}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	conn, err := r.provider.Get(ctx)
	if err != nil {
		return err
	}
	// Single atomic insert; the unique email index backstops concurrent
	// registration of the same address.
	return conn.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	conn, err := r.provider.Get(ctx)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := conn.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	conn, err := r.provider.Get(ctx)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := conn.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
