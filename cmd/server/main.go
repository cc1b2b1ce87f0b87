package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SageBrian/group-savings-app/config"
	"github.com/SageBrian/group-savings-app/internal/auth"
	"github.com/SageBrian/group-savings-app/internal/handlers"
	"github.com/SageBrian/group-savings-app/internal/ledger"
	"github.com/SageBrian/group-savings-app/internal/middleware"
	"github.com/SageBrian/group-savings-app/internal/routes"
	"github.com/SageBrian/group-savings-app/models"
)

func main() {
	cfg := config.Load()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		slog.Error("Ошибка подключения к БД", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.SavingsGroup{},
		&models.GroupMember{},
		&models.Contribution{},
		&models.WithdrawalRequest{},
	); err != nil {
		slog.Error("Ошибка миграции схемы БД", "error", err)
		os.Exit(1)
	}

	rdb := config.ConnectRedis(cfg)

	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.TokenTTL)
	groupLedger := ledger.New(db)

	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")

	routes.SetupRoutes(r, routes.Handlers{
		Auth:         handlers.NewAuthHandler(authSvc),
		Groups:       handlers.NewGroupHandler(groupLedger),
		Withdrawals:  handlers.NewWithdrawalHandler(groupLedger),
		Profile:      handlers.NewProfileHandler(db, rdb, cfg.UploadDir),
		AuthRequired: middleware.AuthMiddleware(authSvc, db, rdb),
	})

	slog.Info("Запуск сервера", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
