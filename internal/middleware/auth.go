package middleware

import (
	"strings"

	"everest/internal/config"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey         = "user_id"           // string
	CtxUsernameKey       = "username"          // string
	CtxUserRoleKey       = "user_role"         // model.Role
	CtxSessionVersionKey = "session_version"   // int
	CtxSessionIssuedKey  = "session_issued_at" // time.Time
	CtxAccessTokenKey    = "access_token"      // string（logoutで失効させる用）
	CtxIdentityKey       = "identity"          // usecase.Identity
)

// bearer > cookie の優先順でaccess tokenを取り出し、Session Managerに検証を委譲する。
// 期限切れ・期限間近はrefresh cookieがあればその場でrotationされ、
// 新しいpairがcookieで返る。
func Authenticate(uc *usecase.AuthUsecase, cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return WriteError(c, usecase.ErrNoToken, cfg.IsProduction())
			}

			//refresh cookieは無ければ空のまま渡す（rotation無しで検証される）
			refreshRaw := ""
			if ck, err := c.Cookie(RefreshCookieName); err == nil {
				refreshRaw = ck.Value
			}

			client := usecase.ClientContext{
				UserAgent: c.Request().UserAgent(),
				IP:        c.RealIP(),
			}

			identity, rotated, err := uc.ValidateAccessToken(c.Request().Context(), raw, refreshRaw, client)
			if err != nil {
				return WriteError(c, err, cfg.IsProduction())
			}

			//rotationが起きていたら新pairをcookieで返す
			if rotated != nil {
				SetSessionCookies(c, *rotated, cfg.IsProduction())
				raw = rotated.AccessToken
			}

			//contextへ保存
			c.Set(CtxUserIDKey, identity.UserID)
			c.Set(CtxUsernameKey, identity.Username)
			c.Set(CtxUserRoleKey, identity.Role)
			c.Set(CtxSessionVersionKey, identity.SessionVersion)
			c.Set(CtxSessionIssuedKey, identity.SessionIssuedAt)
			c.Set(CtxAccessTokenKey, raw)
			c.Set(CtxIdentityKey, *identity)

			return next(c)
		}
	}
}

// Authorizationヘッダ優先、無ければtoken cookie。
func extractToken(c echo.Context) string {
	authz := c.Request().Header.Get("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return t
			}
		}
		//Bearer形式でないヘッダは無視してcookieへフォールバック
	}

	if ck, err := c.Cookie(TokenCookieName); err == nil {
		return ck.Value
	}

	return ""
}
