package repository

import (
	"context"

	"everest/internal/domain/model"
	domainrepo "everest/internal/repository"

	"gorm.io/gorm"
)

type chatMessageGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewChatMessageGormRepository(db *gorm.DB) domainrepo.ChatMessageRepository {
	return &chatMessageGormRepository{db: db}
}

// メッセージを保存
func (r *chatMessageGormRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	return nil
}

// 端末の会話を新しい順にページング取得
func (r *chatMessageGormRepository) FindByDeviceID(ctx context.Context, deviceID string, page int, limit int) ([]model.ChatMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("device_id = ?", deviceID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var messages []model.ChatMessage
	err = r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// スタッフ発の未読数（ゲスト側バッジ用）
func (r *chatMessageGormRepository) CountUnreadFromStaff(ctx context.Context, deviceID string) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("device_id = ? AND sender_type <> ? AND read = ?", deviceID, model.ParticipantGuest, false).
		Count(&n).Error
	if err != nil {
		return 0, err
	}

	return n, nil
}

// ゲスト発の未読数（スタッフ側バッジ用）
func (r *chatMessageGormRepository) CountUnreadFromGuest(ctx context.Context, deviceID string) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("device_id = ? AND sender_type = ? AND read = ?", deviceID, model.ParticipantGuest, false).
		Count(&n).Error
	if err != nil {
		return 0, err
	}

	return n, nil
}

// スレッド内のメッセージを既読化。fromGuest=trueならゲスト発を、falseならスタッフ発を対象にする。
func (r *chatMessageGormRepository) MarkRead(ctx context.Context, deviceID string, fromGuest bool) error {
	q := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("device_id = ? AND read = ?", deviceID, false)

	if fromGuest {
		q = q.Where("sender_type = ?", model.ParticipantGuest)
	} else {
		q = q.Where("sender_type <> ?", model.ParticipantGuest)
	}

	return q.UpdateColumn("read", true).Error
}
