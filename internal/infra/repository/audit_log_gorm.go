package repository

import (
	"context"

	"everest/internal/domain/model"
	domainrepo "everest/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewAuditLogGormRepository(db *gorm.DB) domainrepo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// 監査ログを1件保存
func (r *auditLogGormRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return err
	}
	return nil
}
