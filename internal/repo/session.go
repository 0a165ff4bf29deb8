package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jsalmeida/ecommerce-api/internal/models"
)

var ErrSessionInactive = errors.New("session inactive")

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// ActiveSession looks up the session by JTI and rejects revoked or expired
// rows.
func (r *GormRepo) ActiveSession(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInactive
		}
		return nil, err
	}
	if s.Revoked || s.ExpiresAt < time.Now().Unix() {
		return nil, ErrSessionInactive
	}
	return &s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, jti string) error {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("jti = ?", jti).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionInactive
	}
	return nil
}
