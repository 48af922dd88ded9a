package repository

import (
	"context"
	"errors"
	"time"

	"everest/internal/domain/model"
	domainrepo "everest/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type deviceGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewDeviceGormRepository(db *gorm.DB) domainrepo.DeviceRepository {
	return &deviceGormRepository{db: db}
}

// IDで端末を1件取得
func (r *deviceGormRepository) FindByID(ctx context.Context, deviceID string) (*model.Device, error) {
	var d model.Device

	err := r.db.WithContext(ctx).
		Where("id = ?", deviceID).
		First(&d).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrDeviceNotFound
		}
		return nil, err
	}

	return &d, nil
}

// あればlast_activeとclassを更新、なければ作成。
// ON CONFLICTで1回のクエリにする（blocked/nameは上書きしない）。
func (r *deviceGormRepository) Upsert(ctx context.Context, deviceID string, class model.DeviceClass, defaultName string) (*model.Device, error) {
	now := time.Now()

	d := model.Device{
		ID:         deviceID,
		Name:       defaultName,
		Class:      class,
		LastActive: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_active": now,
				"class":       class,
			}),
		}).
		Create(&d).Error
	if err != nil {
		return nil, err
	}

	//blocked等はDBの現在値を返したいので読み直す
	return r.FindByID(ctx, deviceID)
}

// blockedフラグを更新
func (r *deviceGormRepository) SetBlocked(ctx context.Context, deviceID string, blocked bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", deviceID).
		UpdateColumn("blocked", blocked)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrDeviceNotFound
	}
	return nil
}

// last_activeの新しい順に一覧
func (r *deviceGormRepository) List(ctx context.Context, page int, limit int) ([]model.Device, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Device{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var devices []model.Device
	err := r.db.WithContext(ctx).
		Order("last_active DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&devices).Error
	if err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}
