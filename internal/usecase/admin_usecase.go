package usecase

import (
	"context"
	"errors"

	"everest/internal/domain/model"
	"everest/internal/repository"

	"github.com/sirupsen/logrus"
)

type ForceLogoutResult struct {
	UserID         string `json:"user_id"`
	SessionVersion int    `json:"session_version"`
}

// 管理操作。端末のブロックとユーザーの強制ログアウト。
// 操作は監査ログに残す。
type AdminUsecase struct {
	users   repository.UserRepository
	devices repository.DeviceRepository
	audits  repository.AuditLogRepository
	log     *logrus.Logger
}

func NewAdminUsecase(
	users repository.UserRepository,
	devices repository.DeviceRepository,
	audits repository.AuditLogRepository,
	log *logrus.Logger,
) *AdminUsecase {
	return &AdminUsecase{
		users:   users,
		devices: devices,
		audits:  audits,
		log:     log,
	}
}

// 端末をブロック/解除する。
func (u *AdminUsecase) SetDeviceBlocked(ctx context.Context, actor Identity, deviceID string, blocked bool) (*model.Device, error) {
	if deviceID == "" {
		return nil, ErrValidation
	}

	if err := u.devices.SetBlocked(ctx, deviceID, blocked); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	action := model.AuditActionBlockDevice
	if !blocked {
		action = model.AuditActionUnblockDevice
	}
	u.writeAudit(ctx, actor, action, model.AuditResourceDevice, deviceID)

	device, err := u.devices.FindByID(ctx, deviceID)
	if err != nil {
		return nil, ErrInternal
	}

	return device, nil
}

// ユーザーを強制ログアウトさせる。session versionが上がるので
// 発行済みのaccess/refresh tokenは次のvalidationで全部弾かれる。
func (u *AdminUsecase) ForceLogout(ctx context.Context, actor Identity, targetUserID string) (*ForceLogoutResult, error) {
	if targetUserID == "" {
		return nil, ErrValidation
	}

	if err := u.users.ClearSession(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	u.writeAudit(ctx, actor, model.AuditActionForceLogout, model.AuditResourceUser, targetUserID)

	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	return &ForceLogoutResult{
		UserID:         user.ID,
		SessionVersion: user.SessionVersion,
	}, nil
}

// 監査ログは失敗しても操作自体は成功扱い（ログだけ残す）。
func (u *AdminUsecase) writeAudit(ctx context.Context, actor Identity, action model.AuditAction, resourceType model.AuditResourceType, resourceID string) {
	entry := &model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}

	if err := u.audits.Create(ctx, entry); err != nil {
		u.log.WithError(err).WithFields(logrus.Fields{
			"actor":    actor.UserID,
			"action":   action,
			"resource": resourceID,
		}).Error("failed to write audit log")
	}
}
