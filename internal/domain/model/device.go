package model

import "time"

// User-Agentから判定する端末種別。
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceUnknown DeviceClass = "unknown"
)

// 匿名チャット参加者の端末。ログイン不要で作られる。
// 削除はしない（保持期限はDB側のretentionで消す）。
type Device struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null" json:"name"`

	Class DeviceClass `gorm:"type:varchar(20);not null;default:'unknown'" json:"class"`

	//最終アクセス時刻。リクエストごとに更新
	LastActive time.Time `gorm:"not null;index" json:"last_active"`

	//ブロック済み端末は全ルートで403
	Blocked bool `gorm:"not null;default:false" json:"blocked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
