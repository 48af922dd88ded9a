package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret        string // access token署名シークレット
	JWTRefreshSecret string // refresh token署名シークレット（accessと別物）

	AccessTokenTTL  time.Duration // access tokenの有効期限（default 1h）
	RefreshTokenTTL time.Duration // refresh tokenの有効期限（default 7d）
	SessionTimeout  time.Duration // 発行からの絶対上限（default 1h）
	RefreshWindow   time.Duration // 期限切れ前の自動rotation窓（default 5m）

	GoEnv string // dev/prod

	RedisAddr string // revocation cache用。空ならin-memory
}

// 本番モードかどうか。エラー詳細の隠蔽とsecure cookieに使う。
func (c Config) IsProduction() bool {
	return c.GoEnv == "production" || c.GoEnv == "prod"
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		AccessTokenTTL:  durationEnv("JWT_EXPIRES_IN", time.Hour),
		RefreshTokenTTL: durationEnv("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		SessionTimeout:  durationEnv("SESSION_TIMEOUT", time.Hour),
		RefreshWindow:   durationEnv("TOKEN_REFRESH_WINDOW", 5*time.Minute),

		GoEnv: os.Getenv("GO_ENV"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return Config{}, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	return cfg, nil
}

// "3600"（秒）か "1h30m" 形式を受け付ける。未設定はdefault。
func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
