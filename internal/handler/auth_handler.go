package handler

import (
	"net/http"

	"everest/internal/config"
	"everest/internal/middleware"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc  *usecase.AuthUsecase
	cfg config.Config
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{uc: uc, cfg: cfg}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/refresh のリクエストボディ（cookieが無い場合の代替）。
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type successResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// 認証系ルートを登録。authはAuthenticate済みのグループ。
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, authed *echo.Group) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)
	e.POST("/auth/refresh", h.refresh)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/auth/profile", h.profile)
}

// POST /auth/register
func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return middleware.WriteError(c, usecase.ErrValidation, h.cfg.IsProduction())
	}

	out, err := h.uc.Register(c.Request().Context(), req.Username, req.Email, req.Password, h.client(c))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusCreated, successResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user":  out.User,
			"token": out.AccessToken,
		},
	})
}

// POST /auth/login
func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return middleware.WriteError(c, usecase.ErrValidation, h.cfg.IsProduction())
	}

	out, err := h.uc.Login(c.Request().Context(), req.Email, req.Password, h.client(c))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	//token pairはhttpOnly cookieで返す
	middleware.SetSessionCookies(c, out.Pair, h.cfg.IsProduction())

	return c.JSON(http.StatusOK, successResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user":      out.User,
			"expiresIn": int(h.cfg.AccessTokenTTL.Seconds()),
		},
	})
}

// POST /auth/refresh
// refresh tokenはcookie優先、無ければボディから。
func (h *AuthHandler) refresh(c echo.Context) error {
	refreshRaw := ""
	if ck, err := c.Cookie(middleware.RefreshCookieName); err == nil {
		refreshRaw = ck.Value
	}
	if refreshRaw == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			refreshRaw = req.RefreshToken
		}
	}
	if refreshRaw == "" {
		return middleware.WriteError(c, usecase.ErrMissingRefreshToken, h.cfg.IsProduction())
	}

	out, err := h.uc.Rotate(c.Request().Context(), refreshRaw, h.client(c))
	if err != nil {
		//使い物にならないrefreshはcookieごと消してログインからやり直させる
		middleware.ClearSessionCookies(c, h.cfg.IsProduction())
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	middleware.SetSessionCookies(c, out.Pair, h.cfg.IsProduction())

	return c.JSON(http.StatusOK, successResponse{
		Status: "success",
		Data: map[string]interface{}{
			"expiresIn": int(h.cfg.AccessTokenTTL.Seconds()),
		},
	})
}

// POST /auth/logout（要認証）
func (h *AuthHandler) logout(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(string)
	accessRaw, _ := c.Get(middleware.CtxAccessTokenKey).(string)

	if err := h.uc.Logout(c.Request().Context(), userID, accessRaw); err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	middleware.ClearSessionCookies(c, h.cfg.IsProduction())

	return c.JSON(http.StatusOK, successResponse{Status: "success"})
}

// GET /auth/profile（要認証）
func (h *AuthHandler) profile(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(string)

	user, err := h.uc.Profile(c.Request().Context(), userID)
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, successResponse{
		Status: "success",
		Data:   map[string]interface{}{"user": user},
	})
}

func (h *AuthHandler) client(c echo.Context) usecase.ClientContext {
	return usecase.ClientContext{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	}
}
