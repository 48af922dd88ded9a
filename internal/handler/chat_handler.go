package handler

import (
	"net/http"
	"strconv"

	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/middleware"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ゲスト向けチャットAPI。全ルートにdevice middlewareが掛かる。
type ChatHandler struct {
	uc  *usecase.ChatUsecase
	cfg config.Config
}

// DI
func NewChatHandler(uc *usecase.ChatUsecase, cfg config.Config) *ChatHandler {
	return &ChatHandler{uc: uc, cfg: cfg}
}

type sendMessageRequest struct {
	Content       string `json:"content"`
	RecipientType string `json:"recipient_type"`
}

// deviceはResolveDevice適用済みのグループ。
func (h *ChatHandler) RegisterRoutes(device *echo.Group) {
	device.POST("/chat/messages", h.send)
	device.GET("/chat/messages", h.conversation)
	device.POST("/chat/messages/read", h.markRead)
}

// POST /chat/messages
func (h *ChatHandler) send(c echo.Context) error {
	info, ok := c.Get(middleware.CtxDeviceKey).(usecase.DeviceInfo)
	if !ok {
		return middleware.WriteError(c, usecase.ErrInternal, h.cfg.IsProduction())
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return middleware.WriteError(c, usecase.ErrValidation, h.cfg.IsProduction())
	}

	msg, err := h.uc.SendGuestMessage(c.Request().Context(), info, req.Content, model.ParticipantType(req.RecipientType))
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusCreated, msg)
}

// GET /chat/messages?page=&limit=
func (h *ChatHandler) conversation(c echo.Context) error {
	info, ok := c.Get(middleware.CtxDeviceKey).(usecase.DeviceInfo)
	if !ok {
		return middleware.WriteError(c, usecase.ErrInternal, h.cfg.IsProduction())
	}

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 50)

	out, err := h.uc.GetConversation(c.Request().Context(), info.ID, page, limit)
	if err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, out)
}

// POST /chat/messages/read
func (h *ChatHandler) markRead(c echo.Context) error {
	info, ok := c.Get(middleware.CtxDeviceKey).(usecase.DeviceInfo)
	if !ok {
		return middleware.WriteError(c, usecase.ErrInternal, h.cfg.IsProduction())
	}

	if err := h.uc.MarkReadByGuest(c.Request().Context(), info.ID); err != nil {
		return middleware.WriteError(c, err, h.cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func intQuery(c echo.Context, key string, def int) int {
	v := c.QueryParam(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
