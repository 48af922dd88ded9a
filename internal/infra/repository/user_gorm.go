package repository

import (
	"context"
	"errors"

	"everest/internal/domain/model"
	domainrepo "everest/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}
	return nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// ユーザーを更新。
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	return nil
}

// refresh token hashだけ差し替える（ログイン時。versionは上げない）。
func (r *userGormRepository) SetRefreshTokenHash(ctx context.Context, userID string, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("refresh_token_hash", hash)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// rotation本体。期待hash+versionが一致する行だけを1回のUPDATEで更新する。
// 並行rotationでは先にcommitした方が勝ち、負けた方は0件更新=ErrStaleSession。
func (r *userGormRepository) RotateRefreshToken(ctx context.Context, userID string, expectedHash string, expectedVersion int, newHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token_hash = ? AND session_version = ?", userID, expectedHash, expectedVersion).
		UpdateColumns(map[string]interface{}{
			"refresh_token_hash": newHash,
			"session_version":    gorm.Expr("session_version + ?", 1),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrStaleSession
	}
	return nil
}

// hashをNULLにして session_version+1（logout/強制ログアウト）。
func (r *userGormRepository) ClearSession(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"refresh_token_hash": nil,
			"session_version":    gorm.Expr("session_version + ?", 1),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
