package repository

import (
	"context"

	"everest/internal/domain/model"
)

// 端末単位の会話サマリ（スタッフ一覧用）。
type ConversationSummary struct {
	Device      model.Device       `json:"device"`
	LastMessage *model.ChatMessage `json:"last_message"`
	UnreadCount int64              `json:"unread_count"`
}

// チャットメッセージの保存・取得
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	// 端末の会話を新しい順にページング取得
	FindByDeviceID(ctx context.Context, deviceID string, page int, limit int) ([]model.ChatMessage, int64, error)
	// スタッフ発の未読数（ゲスト側バッジ用）
	CountUnreadFromStaff(ctx context.Context, deviceID string) (int64, error)
	// ゲスト発の未読数（スタッフ側バッジ用）
	CountUnreadFromGuest(ctx context.Context, deviceID string) (int64, error)
	// スレッド内のsenderType発メッセージを既読にする
	MarkRead(ctx context.Context, deviceID string, fromGuest bool) error
}
