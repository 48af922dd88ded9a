package handler

import (
	"net/http"

	"everest/internal/config"
	"everest/internal/middleware"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

// スタッフ向けAPI。認証 + role guardの後ろに置く。
type AdminHandler struct {
	adminUC *usecase.AdminUsecase
	chatUC  *usecase.ChatUsecase
	cfg     config.Config
}

// DI
func NewAdminHandler(adminUC *usecase.AdminUsecase, chatUC *usecase.ChatUsecase, cfg config.Config) *AdminHandler {
	return &AdminHandler{adminUC: adminUC, chatUC: chatUC, cfg: cfg}
}

type staffMessageRequest struct {
	DeviceID string `json:"device_id"`
	Content  string `json:"content"`
}

// staffはmoderator以上、adminOnlyはadminのみのグループ。
func (h *AdminHandler) RegisterRoutes(staff *echo.Group, adminOnly *echo.Group) {
	staff.POST("/chat/messages", h.sendStaffMessage)
	staff.GET("/chat/conversations", h.listConversations)
	staff.GET("/chat/conversations/:deviceId", h.conversation)
	staff.POST("/chat/conversations/:deviceId/read", h.markRead)
	staff.PATCH("/devices/:deviceId/block", h.blockDevice)
	staff.PATCH("/devices/:deviceId/unblock", h.unblockDevice)

	adminOnly.POST("/users/:userId/force-logout", h.forceLogout)
}

// POST /admin/chat/messages
func (h *AdminHandler) sendStaffMessage(c echo.Context) error {
	staff, ok := c.Get(middleware.CtxIdentityKey).(usecase.Identity)
	if !ok {
		return middleware.WriteError(c, usecase.ErrNoToken, h.cfg.IsProduction())
	}

	var req staffMessageRequest
	if err := c.Bind(&req); err != nil {
		return middleware.WriteError(c, usecase.ErrValidation, h.cfg.IsProduction())
	}

	msg, err := h.chatUC.SendStaffMessage(c.Request().Context(), staff, req.DeviceID, req.Content)
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusCreated, msg)
}

// GET /admin/chat/conversations?page=&limit=
func (h *AdminHandler) listConversations(c echo.Context) error {
	out, err := h.chatUC.ListConversations(c.Request().Context(), intQuery(c, "page", 1), intQuery(c, "limit", 20))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, out)
}

// GET /admin/chat/conversations/:deviceId
func (h *AdminHandler) conversation(c echo.Context) error {
	out, err := h.chatUC.GetConversation(c.Request().Context(), c.Param("deviceId"), intQuery(c, "page", 1), intQuery(c, "limit", 50))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, out)
}

// POST /admin/chat/conversations/:deviceId/read
func (h *AdminHandler) markRead(c echo.Context) error {
	if err := h.chatUC.MarkReadByStaff(c.Request().Context(), c.Param("deviceId")); err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

// PATCH /admin/devices/:deviceId/block
func (h *AdminHandler) blockDevice(c echo.Context) error {
	return h.setBlocked(c, true)
}

// PATCH /admin/devices/:deviceId/unblock
func (h *AdminHandler) unblockDevice(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c echo.Context, blocked bool) error {
	actor, ok := c.Get(middleware.CtxIdentityKey).(usecase.Identity)
	if !ok {
		return middleware.WriteError(c, usecase.ErrNoToken, h.cfg.IsProduction())
	}

	device, err := h.adminUC.SetDeviceBlocked(c.Request().Context(), actor, c.Param("deviceId"), blocked)
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, device)
}

// POST /admin/users/:userId/force-logout
func (h *AdminHandler) forceLogout(c echo.Context) error {
	actor, ok := c.Get(middleware.CtxIdentityKey).(usecase.Identity)
	if !ok {
		return middleware.WriteError(c, usecase.ErrNoToken, h.cfg.IsProduction())
	}

	out, err := h.adminUC.ForceLogout(c.Request().Context(), actor, c.Param("userId"))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, out)
}
