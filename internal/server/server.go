package server

import (
	"everest/internal/config"
	"everest/internal/repository"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// 全ルートの依存をまとめて受け取る。
type Deps struct {
	Cfg     config.Config
	AuthUC  *usecase.AuthUsecase
	ChatUC  *usecase.ChatUsecase
	AdminUC *usecase.AdminUsecase
	Devices repository.DeviceRepository
	Log     *logrus.Logger
}

// echoを組み立てて返す。テストからも使う。
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	RegisterRoutes(e, d)

	return e
}

// Start はサーバーを起動する。
func Start(addr string, d Deps) error {
	return New(d).Start(addr)
}
