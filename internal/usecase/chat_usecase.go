package usecase

import (
	"context"
	"strings"

	"everest/internal/domain/model"
	"everest/internal/repository"

	"github.com/sirupsen/logrus"
)

// 解決済みの端末情報。device middlewareが詰める。
type DeviceInfo struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Class model.DeviceClass `json:"class"`
}

type ConversationResult struct {
	Messages    []model.ChatMessage `json:"messages"`
	Total       int64               `json:"total"`
	UnreadCount int64               `json:"unread_count"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
}

type ConversationListResult struct {
	Conversations []repository.ConversationSummary `json:"conversations"`
	Total         int64                            `json:"total"`
	Page          int                              `json:"page"`
	Limit         int                              `json:"limit"`
}

// ゲスト⇔スタッフチャット。会話はDeviceID単位。
type ChatUsecase struct {
	messages repository.ChatMessageRepository
	devices  repository.DeviceRepository
	log      *logrus.Logger
}

func NewChatUsecase(
	messages repository.ChatMessageRepository,
	devices repository.DeviceRepository,
	log *logrus.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		messages: messages,
		devices:  devices,
		log:      log,
	}
}

// ゲストがメッセージを送る。送信者は解決済み端末。
func (u *ChatUsecase) SendGuestMessage(ctx context.Context, device DeviceInfo, content string, recipientType model.ParticipantType) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > model.ChatContentMaxLen {
		return nil, ErrValidation
	}
	if recipientType != model.ParticipantAdmin && recipientType != model.ParticipantModerator {
		return nil, ErrValidation
	}

	senderName := strings.TrimSpace(device.Name)
	if senderName == "" {
		senderName = "Guest"
	}

	msg := &model.ChatMessage{
		Content:       content,
		SenderType:    model.ParticipantGuest,
		SenderID:      device.ID,
		SenderName:    senderName,
		RecipientType: recipientType,
		DeviceID:      device.ID,
	}

	if err := u.messages.Create(ctx, msg); err != nil {
		return nil, ErrInternal
	}

	return msg, nil
}

// スタッフがゲスト端末へ返信する。
func (u *ChatUsecase) SendStaffMessage(ctx context.Context, staff Identity, deviceID string, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > model.ChatContentMaxLen || deviceID == "" {
		return nil, ErrValidation
	}

	//宛先端末の実在確認
	if _, err := u.devices.FindByID(ctx, deviceID); err != nil {
		return nil, ErrNotFound
	}

	msg := &model.ChatMessage{
		Content:       content,
		SenderType:    model.ParticipantType(staff.Role),
		SenderID:      staff.UserID,
		SenderName:    staff.Username,
		RecipientType: model.ParticipantGuest,
		RecipientID:   deviceID,
		DeviceID:      deviceID,
	}

	if err := u.messages.Create(ctx, msg); err != nil {
		return nil, ErrInternal
	}

	return msg, nil
}

// 端末の会話を取得（ゲスト自身またはスタッフ）。
func (u *ChatUsecase) GetConversation(ctx context.Context, deviceID string, page int, limit int) (*ConversationResult, error) {
	if deviceID == "" {
		return nil, ErrValidation
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, total, err := u.messages.FindByDeviceID(ctx, deviceID, page, limit)
	if err != nil {
		return nil, ErrInternal
	}

	//ゲスト側バッジ：スタッフ発の未読数
	unread, err := u.messages.CountUnreadFromStaff(ctx, deviceID)
	if err != nil {
		return nil, ErrInternal
	}

	return &ConversationResult{
		Messages:    messages,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
	}, nil
}

// ゲストがスタッフ発メッセージを既読にする。
func (u *ChatUsecase) MarkReadByGuest(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrValidation
	}
	if err := u.messages.MarkRead(ctx, deviceID, false); err != nil {
		return ErrInternal
	}
	return nil
}

// スタッフがゲスト発メッセージを既読にする。
func (u *ChatUsecase) MarkReadByStaff(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrValidation
	}
	if err := u.messages.MarkRead(ctx, deviceID, true); err != nil {
		return ErrInternal
	}
	return nil
}

// スタッフ画面の会話一覧。端末ごとに最後のメッセージとスタッフ宛て未読数を付ける。
func (u *ChatUsecase) ListConversations(ctx context.Context, page int, limit int) (*ConversationListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	devices, total, err := u.devices.List(ctx, page, limit)
	if err != nil {
		return nil, ErrInternal
	}

	summaries := make([]repository.ConversationSummary, 0, len(devices))
	for _, d := range devices {
		msgs, _, err := u.messages.FindByDeviceID(ctx, d.ID, 1, 1)
		if err != nil {
			return nil, ErrInternal
		}

		var last *model.ChatMessage
		if len(msgs) > 0 {
			last = &msgs[0]
		}

		unread, err := u.messages.CountUnreadFromGuest(ctx, d.ID)
		if err != nil {
			return nil, ErrInternal
		}

		summaries = append(summaries, repository.ConversationSummary{
			Device:      d,
			LastMessage: last,
			UnreadCount: unread,
		})
	}

	return &ConversationListResult{
		Conversations: summaries,
		Total:         total,
		Page:          page,
		Limit:         limit,
	}, nil
}
