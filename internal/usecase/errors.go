package usecase

import "errors"

// usecase層の失敗種別。middlewareがHTTPのstatus/codeへ変換する。
var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//409 email重複など
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")

	//401 メール・パスワード不一致（凍結ユーザーも同じエラーにして列挙を防ぐ）
	ErrInvalidCredentials = errors.New("invalid credentials")

	//401 tokenが無い
	ErrNoToken = errors.New("no token")
	//400 JWTとして壊れている
	ErrMalformedToken = errors.New("malformed token")
	//401 署名不正
	ErrInvalidToken = errors.New("invalid token")
	//401 期限切れ
	ErrTokenExpired = errors.New("token expired")
	//401 nbfより前
	ErrTokenNotYetValid = errors.New("token not yet valid")
	//401 発行からの絶対上限を超過
	ErrSessionTimeout = errors.New("session timeout")
	//403 凍結・削除済みユーザー
	ErrUserInactive = errors.New("user inactive")
	//401 logout等で明示的に失効済み
	ErrRevoked = errors.New("revoked token")
	//401 refresh tokenが無い
	ErrMissingRefreshToken = errors.New("missing refresh token")
	//401 refresh tokenがDBのhashと合わない
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	//401 fingerprint不一致（別クライアントからの再生）
	ErrSessionHijack = errors.New("client fingerprint mismatch")
	//401 session versionが古い（新しいログイン・rotationで無効化済み）
	ErrSessionRevoked = errors.New("session revoked")

	//403 roleが足りない
	ErrForbidden = errors.New("forbidden")
	//404
	ErrNotFound = errors.New("not found")
	//403 ブロック済み端末
	ErrDeviceBlocked = errors.New("device blocked")
)
