package server

import (
	"everest/internal/domain/model"
	"everest/internal/handler"
	"everest/internal/middleware"

	"github.com/labstack/echo/v4"
)

// ルート定義。グループごとにmiddlewareを重ねる。
func RegisterRoutes(e *echo.Echo, d Deps) {
	authH := handler.NewAuthHandler(d.AuthUC, d.Cfg)
	chatH := handler.NewChatHandler(d.ChatUC, d.Cfg)
	adminH := handler.NewAdminHandler(d.AdminUC, d.ChatUC, d.Cfg)

	//要ログイン
	authed := e.Group("", middleware.Authenticate(d.AuthUC, d.Cfg))

	//ゲストチャット（ログイン不要・端末ID必須）
	device := e.Group("", middleware.ResolveDevice(d.Devices, d.Cfg, d.Log))

	//スタッフ（moderator以上）
	staff := e.Group("/admin",
		middleware.Authenticate(d.AuthUC, d.Cfg),
		middleware.AuthorizeRoles(d.Log, d.Cfg, model.RoleModerator),
	)

	//adminのみ
	adminOnly := e.Group("/admin",
		middleware.Authenticate(d.AuthUC, d.Cfg),
		middleware.AuthorizeRoles(d.Log, d.Cfg, model.RoleAdmin),
	)

	authH.RegisterRoutes(e, authed)
	chatH.RegisterRoutes(device)
	adminH.RegisterRoutes(staff, adminOnly)
}
