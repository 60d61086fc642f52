package repository

import (
	"context"
	"time"

	"supplierportal/internal/model"

	"gorm.io/gorm"
)

type RegistrationTokenRepository interface {
	Create(ctx context.Context, token *model.RegistrationToken) error
	FindByToken(ctx context.Context, token string) (*model.RegistrationToken, error)
	// Consume marks the token used iff it is still unused and unexpired.
	// Returns false when the conditional update matched no row, so a token
	// cannot be spent twice even under concurrent submissions.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
}

type registrationTokenRepository struct {
	db *gorm.DB
}

func NewRegistrationTokenRepository(db *gorm.DB) RegistrationTokenRepository {
	return &registrationTokenRepository{db: db}
}

func (r *registrationTokenRepository) Create(ctx context.Context, token *model.RegistrationToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *registrationTokenRepository) FindByToken(ctx context.Context, token string) (*model.RegistrationToken, error) {
	var reg model.RegistrationToken
	if err := GetDB(ctx, r.db).First(&reg, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationTokenRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.RegistrationToken{}).
		Where("token = ? AND used = false AND expires_at > ?", token, now).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
