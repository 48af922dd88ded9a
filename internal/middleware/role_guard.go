package middleware

import (
	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// role階層による認可。requiredのどれか1つをカバーしていれば通す。
// Authenticateの後に置くこと。
func AuthorizeRoles(log *logrus.Logger, cfg config.Config, required ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return WriteError(c, usecase.ErrNoToken, cfg.IsProduction())
			}

			if !role.Covers(required...) {
				//監査用に試行を記録する（リクエスト自体はここで403で終わる）
				userID, _ := c.Get(CtxUserIDKey).(string)
				log.WithFields(logrus.Fields{
					"user_id":         userID,
					"required_roles":  required,
					"effective_roles": model.RoleHierarchy[role],
					"path":            c.Path(),
				}).Warn("role hierarchy violation")

				return WriteError(c, usecase.ErrForbidden, cfg.IsProduction())
			}

			return next(c)
		}
	}
}
