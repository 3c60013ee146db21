package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionInvalid = errors.New("session expired or revoked")

func (r *GormRepo) CreateSession(ctx context.Context, s *models.SessionToken) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionToken, error) {
	var s models.SessionToken
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// PruneSessions deletes the user's sessions that can no longer be used.
func (r *GormRepo) PruneSessions(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND (revoked = ? OR expires_at < ?)", userID, true, now).
		Delete(&models.SessionToken{}).Error
}

func (r *GormRepo) RevokeSession(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}

// RotateSession revokes the session oldID when tokenHash matches it and it
// is still active, then stores next. Both happen in one transaction.
func (r *GormRepo) RotateSession(ctx context.Context, oldID uuid.UUID, tokenHash string, next *models.SessionToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.SessionToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", oldID).
			First(&old).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionInvalid
			}
			return err
		}
		if old.TokenHash != tokenHash || !old.Active(time.Now()) {
			return ErrSessionInvalid
		}

		if err := tx.Model(&old).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}
