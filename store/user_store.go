// user_store.go - User persistence

package store

import (
	"context"

	"envsense-backend/models"

	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (u *UserStore) Create(ctx context.Context, usr *models.User) error {
	return translate(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CountAdmins is used by the startup bootstrap.
func (u *UserStore) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := u.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, translate(err)
}

// PromoteToAdmin sets the admin role and returns the updated user.
func (u *UserStore) PromoteToAdmin(ctx context.Context, id string) (*models.User, error) {
	res := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", models.RoleAdmin) // Idempotent for existing admins
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return u.GetByID(ctx, id)
}
