package repository

import (
	"context"
	"errors"

	"everest/internal/domain/model"
)

var ErrDeviceNotFound = errors.New("device not found")

// チャット端末の保存・取得
type DeviceRepository interface {
	// IDで1件取得。なければErrDeviceNotFound
	FindByID(ctx context.Context, deviceID string) (*model.Device, error)
	// あればlast_activeとclassを更新、なければ作成して返す
	Upsert(ctx context.Context, deviceID string, class model.DeviceClass, defaultName string) (*model.Device, error)
	// blockedフラグを変更
	SetBlocked(ctx context.Context, deviceID string, blocked bool) error
	// スタッフ画面用：last_activeの新しい順に一覧
	List(ctx context.Context, page int, limit int) ([]model.Device, int64, error)
}
