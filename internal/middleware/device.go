package middleware

import (
	"net/http"
	"strings"
	"time"

	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/repository"
	"everest/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	CtxDeviceKey = "device_info" // usecase.DeviceInfo

	//リクエスト側ヘッダ
	DeviceIDHeader = "device-id"
	//レスポンス側ヘッダ
	DeviceIDResponseHeader   = "Device-ID"
	DeviceNameResponseHeader = "Device-Name"

	deviceCookieTTL = 30 * 24 * time.Hour
)

// 匿名チャット参加者に安定した端末IDを与える。
// device-idヘッダが無い・壊れている場合は新しく発番する。
// ブロック済み端末はhandlerに到達する前に403で落とす。
func ResolveDevice(devices repository.DeviceRepository, cfg config.Config, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deviceID := c.Request().Header.Get(DeviceIDHeader)
			if !isValidDeviceID(deviceID) {
				deviceID = uuid.NewString()
			}

			class := detectDeviceClass(c.Request().UserAgent())

			//初回作成時のみ使われるデフォルト名
			defaultName := "Guest-" + deviceID[:4]

			device, err := devices.Upsert(c.Request().Context(), deviceID, class, defaultName)
			if err != nil {
				log.WithError(err).WithField("device_id", deviceID).Error("device upsert failed")
				return WriteError(c, usecase.ErrInternal, cfg.IsProduction())
			}

			//fail closed：ブロック端末はここで止める
			if device.Blocked {
				return WriteError(c, usecase.ErrDeviceBlocked, cfg.IsProduction())
			}

			info := usecase.DeviceInfo{
				ID:    device.ID,
				Name:  device.Name,
				Class: device.Class,
			}
			c.Set(CtxDeviceKey, info)

			//次回以降同じIDを使えるようにヘッダとcookieで返す
			c.Response().Header().Set(DeviceIDResponseHeader, device.ID)
			c.Response().Header().Set(DeviceNameResponseHeader, device.Name)

			c.SetCookie(&http.Cookie{
				Name:     DeviceCookieName,
				Value:    device.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.IsProduction(),
				SameSite: http.SameSiteStrictMode,
				Expires:  time.Now().Add(deviceCookieTTL),
			})

			return next(c)
		}
	}
}

// UUIDv4のみ受け付ける。
func isValidDeviceID(s string) bool {
	if s == "" {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4
}

// User-Agentから端末種別をざっくり判定。
func detectDeviceClass(userAgent string) model.DeviceClass {
	if userAgent == "" {
		return model.DeviceUnknown
	}

	switch {
	case strings.Contains(userAgent, "iPad"):
		return model.DeviceTablet
	case strings.Contains(userAgent, "iPhone"):
		return model.DeviceMobile
	case strings.Contains(userAgent, "Android"):
		return model.DeviceMobile
	default:
		return model.DeviceDesktop
	}
}
