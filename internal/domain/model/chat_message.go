package model

import "time"

// メッセージの送信者・受信者の種別。
type ParticipantType string

const (
	ParticipantGuest     ParticipantType = "guest"
	ParticipantModerator ParticipantType = "moderator"
	ParticipantAdmin     ParticipantType = "admin"
)

// 本文の最大文字数。
const ChatContentMaxLen = 1000

// ゲスト⇔スタッフのチャットメッセージ。
// スレッドはDeviceID単位（1端末=1会話）。
type ChatMessage struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Content string `gorm:"type:varchar(1000);not null" json:"content"`

	SenderType ParticipantType `gorm:"type:varchar(20);not null" json:"sender_type"`
	SenderID   string          `gorm:"not null" json:"sender_id"`
	SenderName string          `gorm:"type:varchar(50);not null" json:"sender_name"`

	RecipientType ParticipantType `gorm:"type:varchar(20);not null" json:"recipient_type"`
	RecipientID   string          `json:"recipient_id"`

	//会話キー
	DeviceID string `gorm:"type:uuid;not null;index" json:"device_id"`

	Read bool `gorm:"not null;default:false;index" json:"read"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
