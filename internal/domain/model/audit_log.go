package model

import "time"

// 管理操作の種類。
type AuditAction string

const (
	//端末をブロックした操作。
	AuditActionBlockDevice AuditAction = "BLOCK_DEVICE"
	//端末のブロックを解除した操作。
	AuditActionUnblockDevice AuditAction = "UNBLOCK_DEVICE"
	//ユーザーを強制ログアウトさせた操作。
	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
)

// 何に対する操作か
type AuditResourceType string

const (
	//端末に対する操作。
	AuditResourceDevice AuditResourceType = "device"

	//ユーザーに対する操作。
	AuditResourceUser AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」行ったかを残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したスタッフのID。
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID（device id / user id）。
	ResourceID string `gorm:"not null;index" json:"resource_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
