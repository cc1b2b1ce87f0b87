package routes

import "github.com/gin-gonic/gin"

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup, h Handlers) {
	// --- ГРУППЫ ---
	groups := api.Group("/groups")
	{
		groups.GET("", h.Groups.ListGroups)
		groups.POST("", h.Groups.CreateGroup)
		groups.GET("/:id", h.Groups.GetGroup)
		groups.POST("/:id/join", h.Groups.JoinGroup)
		groups.POST("/:id/contribute", h.Groups.Contribute)
		groups.POST("/:id/withdraw", h.Groups.RequestWithdrawal)
		groups.GET("/:id/export", h.Groups.ExportHistory)
	}

	// --- ЗАПРОСЫ НА ВЫВОД ---
	api.POST("/withdrawals/:id/process", h.Withdrawals.Process)

	// --- ЛЕНТА ГРУПП ---
	api.GET("/discover", h.Groups.Discover)

	// --- ПРОФИЛЬ ---
	profile := api.Group("/profile")
	{
		profile.GET("", h.Profile.GetProfile)
		profile.PUT("", h.Profile.UpdateProfile)
		profile.POST("/avatar", h.Profile.UploadAvatar)
	}
}
