package middleware

import (
	"errors"
	"net/http"

	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全エンドポイント共通のエラーレスポンス。
// codeはクライアントが分岐に使う安定した識別子。
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorInfo struct {
	status  int
	code    string
	message string
}

// usecaseのエラー種別 → HTTP status/code の対応表。
var errorMap = map[error]errorInfo{
	usecase.ErrValidation:         {http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request input"},
	usecase.ErrConflict:           {http.StatusConflict, "CONFLICT", "Resource already exists"},
	usecase.ErrNotFound:           {http.StatusNotFound, "NOT_FOUND", "Resource not found"},
	usecase.ErrInvalidCredentials: {http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"},

	usecase.ErrNoToken:             {http.StatusUnauthorized, "NO_TOKEN", "Authentication required"},
	usecase.ErrMalformedToken:      {http.StatusBadRequest, "INVALID_TOKEN", "Malformed authentication token"},
	usecase.ErrInvalidToken:        {http.StatusUnauthorized, "INVALID_TOKEN", "Invalid credentials"},
	usecase.ErrTokenExpired:        {http.StatusUnauthorized, "TOKEN_EXPIRED", "Session expired - please login again"},
	usecase.ErrTokenNotYetValid:    {http.StatusUnauthorized, "TOKEN_INACTIVE", "Token not yet valid"},
	usecase.ErrSessionTimeout:      {http.StatusUnauthorized, "SESSION_TIMEOUT", "Session expired due to inactivity"},
	usecase.ErrUserInactive:        {http.StatusForbidden, "USER_INACTIVE", "Account deactivated"},
	usecase.ErrRevoked:             {http.StatusUnauthorized, "REVOKED_TOKEN", "Session terminated"},
	usecase.ErrMissingRefreshToken: {http.StatusUnauthorized, "MISSING_REFRESH_TOKEN", "Refresh token required"},
	usecase.ErrInvalidRefreshToken: {http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token"},
	usecase.ErrSessionHijack:       {http.StatusUnauthorized, "SESSION_HIJACK", "Suspicious activity detected"},
	usecase.ErrSessionRevoked:      {http.StatusUnauthorized, "SESSION_REVOKED", "Session invalidated by new login"},

	usecase.ErrForbidden:     {http.StatusForbidden, "FORBIDDEN", "Insufficient permissions for this operation"},
	usecase.ErrDeviceBlocked: {http.StatusForbidden, "DEVICE_BLOCKED", "Your device is blocked from accessing this service"},
}

// usecaseのエラーをJSONレスポンスにして返す。
// 対応表にないエラーは500。本番では内部詳細を出さない。
func WriteError(c echo.Context, err error, production bool) error {
	for kind, info := range errorMap {
		if errors.Is(err, kind) {
			return c.JSON(info.status, ErrorResponse{
				Status:  "fail",
				Code:    info.code,
				Message: info.message,
			})
		}
	}

	msg := "Authentication system error"
	if !production && err != nil {
		msg = err.Error()
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL",
		Message: msg,
	})
}
