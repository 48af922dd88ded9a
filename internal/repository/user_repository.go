package repository

import (
	"context"
	"errors"

	"everest/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 楽観更新が競合した（期待したhash/versionと違った）
var ErrStaleSession = errors.New("stale session")

// ユーザーの保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを1件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>アクティブ変更・最終ログイン更新など
	Update(ctx context.Context, user *model.User) error
	// ログイン時：refresh token hashだけ差し替える（versionは上げない）
	SetRefreshTokenHash(ctx context.Context, userID string, hash string) error
	// rotation時：期待するhashとversionが一致する行だけ、新hash保存 + session_version+1 を
	// 1回のUPDATEで行う。0件更新ならErrStaleSession（並行rotationの負け側）。
	RotateRefreshToken(ctx context.Context, userID string, expectedHash string, expectedVersion int, newHash string) error
	// logout/強制ログアウト時：hashをNULLにして session_version+1
	ClearSession(ctx context.Context, userID string) error
}
