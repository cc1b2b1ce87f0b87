package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SageBrian/group-savings-app/internal/middleware"
	"github.com/SageBrian/group-savings-app/models"
)

// ProfileHandler обслуживает просмотр и обновление профиля пользователя.
type ProfileHandler struct {
	db        *gorm.DB
	rdb       *redis.Client
	uploadDir string
}

func NewProfileHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) *ProfileHandler {
	return &ProfileHandler{db: db, rdb: rdb, uploadDir: uploadDir}
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// GetProfile возвращает данные текущего пользователя.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"avatar":     user.Avatar,
			"created_at": user.CreatedAt,
		},
	})
}

// UpdateProfile обновляет имя, email, пароль и ссылку на аватар.
// При смене email проверяется его уникальность.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}

	if newEmail := strings.TrimSpace(strings.ToLower(req.Email)); newEmail != "" && newEmail != user.Email {
		var existing models.User
		err := h.db.WithContext(c.Request.Context()).Where("email = ?", newEmail).First(&existing).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		user.Email = newEmail
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash new password"})
			return
		}
		user.Password = string(hashed)
	}

	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	h.invalidateCache(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userJSON(&user),
	})
}

// UploadAvatar принимает файл аватара, сохраняет его под случайным именем
// и записывает ссылку в профиль.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}

	if _, err := os.Stat(h.uploadDir); os.IsNotExist(err) {
		os.MkdirAll(h.uploadDir, os.ModePerm)
	}

	ext := filepath.Ext(file.Filename)
	newFileName := uuid.New().String() + ext
	filePath := filepath.Join(h.uploadDir, newFileName)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		slog.Error("Не удалось сохранить файл аватара", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save avatar"})
		return
	}

	user.Avatar = "/static/uploads/avatars/" + newFileName
	if err := h.db.WithContext(c.Request.Context()).Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	h.invalidateCache(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Avatar updated successfully",
		"user": gin.H{
			"avatar": user.Avatar,
		},
	})
}

func (h *ProfileHandler) invalidateCache(c *gin.Context, userID uint) {
	if h.rdb == nil {
		return
	}
	cacheKey := middleware.UserCacheKey(userID)
	if err := h.rdb.Del(c.Request.Context(), cacheKey).Err(); err != nil {
		slog.Warn("Failed to invalidate cache for user after profile update", "error", err, "user_id", userID)
	}
}
