package repository

import (
	"context"

	"everest/internal/domain/model"
)

// 監査ログの保存
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
}
