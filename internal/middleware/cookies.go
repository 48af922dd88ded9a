package middleware

import (
	"net/http"
	"time"

	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	//access token cookie
	TokenCookieName = "token"
	//refresh token cookie
	RefreshCookieName = "refreshToken"
	//チャット端末ID cookie
	DeviceCookieName = "deviceId"
)

// token pairをhttpOnly cookieにセットする。
// 値はtoken文字列そのもの（optionsオブジェクト等を入れない）。
func SetSessionCookies(c echo.Context, pair usecase.TokenPair, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  pair.AccessExpiresAt,
	})

	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  pair.RefreshExpiresAt,
	})
}

// 両cookieを削除する（logout・rotation失敗時）。
func ClearSessionCookies(c echo.Context, secure bool) {
	expired := time.Unix(0, 0)

	c.SetCookie(&http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		Expires:  expired,
		MaxAge:   -1,
	})

	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		Expires:  expired,
		MaxAge:   -1,
	})
}
