package main

import (
	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/infra/db"
	infraRepo "everest/internal/infra/repository"
	"everest/internal/revocation"
	"everest/internal/server"
	"everest/internal/token"
	"everest/internal/usecase"
	"everest/internal/validator"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		log.Debug(".env not loaded, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.ChatMessage{},
		&model.AuditLog{},
	); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	deviceRepo := infraRepo.NewDeviceGormRepository(gormDB)
	chatRepo := infraRepo.NewChatMessageGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//token codec（accessとrefreshで別シークレット）
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	//revocation store：REDIS_ADDRがあれば共有型、無ければプロセス内set
	var revoked revocation.Store
	if cfg.RedisAddr != "" {
		revoked = revocation.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.WithField("addr", cfg.RedisAddr).Info("using redis revocation store")
	} else {
		revoked = revocation.NewMemoryStore()
	}

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, codec, revoked, authValidator, log)
	chatUC := usecase.NewChatUsecase(chatRepo, deviceRepo, log)
	adminUC := usecase.NewAdminUsecase(userRepo, deviceRepo, auditRepo, log)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	deps := server.Deps{
		Cfg:     cfg,
		AuthUC:  authUC,
		ChatUC:  chatUC,
		AdminUC: adminUC,
		Devices: deviceRepo,
		Log:     log,
	}

	if err := server.Start(addr, deps); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
