package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/SageBrian/group-savings-app/internal/handlers"
)

// Handlers собирает все обработчики приложения и middleware аутентификации.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Groups       *handlers.GroupHandler
	Withdrawals  *handlers.WithdrawalHandler
	Profile      *handlers.ProfileHandler
	AuthRequired gin.HandlerFunc
}

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine, h Handlers) {
	// Публичные маршруты: регистрация и вход.
	RegisterAuthRoutes(r, h)

	// Все остальные API-маршруты требуют валидный токен.
	api := r.Group("/api")
	api.Use(h.AuthRequired)
	RegisterAPIRoutes(api, h)
}
