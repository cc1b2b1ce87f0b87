package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SageBrian/group-savings-app/internal/auth"
	"github.com/SageBrian/group-savings-app/models"
)

// CachedUserData - единая структура для данных пользователя в кэше.
type CachedUserData struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

const userCacheTTL = 10 * time.Minute

// UserCacheKey возвращает ключ кэша для данных пользователя.
// Тот же ключ инвалидируется при обновлении профиля.
func UserCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d:data", userID)
}

// AuthMiddleware проверяет токен (заголовок Authorization или cookie)
// и кладёт данные пользователя в контекст запроса. Данные кэшируются
// в Redis, если он настроен.
func AuthMiddleware(authSvc *auth.Service, db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token is missing")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		userID, err := authSvc.VerifyToken(tokenStr)
		if err != nil {
			handleAuthError(c, "Invalid or expired token")
			return
		}

		cacheKey := UserCacheKey(userID)
		if rdb != nil {
			cachedData, err := rdb.Get(c.Request.Context(), cacheKey).Result()
			if err == nil {
				var userData CachedUserData
				if json.Unmarshal([]byte(cachedData), &userData) == nil {
					setContextAndProceed(c, &userData)
					return
				}
				slog.Warn("Failed to unmarshal cached user data", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("Redis GET command failed", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := db.WithContext(c.Request.Context()).First(&dbUser, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				handleAuthError(c, "User from token not found")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		userData := CachedUserData{
			UserID: dbUser.ID,
			Name:   dbUser.Name,
			Email:  dbUser.Email,
			Avatar: dbUser.Avatar,
		}

		if rdb != nil {
			jsonData, err := json.Marshal(userData)
			if err != nil {
				slog.Error("Failed to marshal user data for caching", "error", err, "user_id", userID)
			} else if err := rdb.Set(context.Background(), cacheKey, jsonData, userCacheTTL).Err(); err != nil {
				slog.Error("Failed to SET user data to cache", "error", err, "user_id", userID)
			}
		}

		setContextAndProceed(c, &userData)
	}
}

func setContextAndProceed(c *gin.Context, userData *CachedUserData) {
	c.Set("user_id", userData.UserID)
	c.Set("userName", userData.Name)
	c.Set("email", userData.Email)
	c.Next()
}

func handleAuthError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
