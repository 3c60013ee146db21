package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserAlreadyExist = errors.New("user already exist")

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expires time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"reset_token": tokenHash, "reset_expires": expires}).Error
}

func (r *GormRepo) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("reset_token = ?", tokenHash).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword stores the new hash, clears the reset token and revokes
// every session of the user.
func (r *GormRepo) ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"password_hash": passwordHash,
				"reset_token":   nil,
				"reset_expires": nil,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.SessionToken{}).
			Where("user_id = ? AND revoked = ?", userID, false).
			Update("revoked", true).Error
	})
}

func (r *GormRepo) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
