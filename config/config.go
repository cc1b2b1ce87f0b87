package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config собирает все настройки приложения из переменных окружения.
type Config struct {
	DatabaseURL string
	SQLitePath  string
	RedisAddr   string
	JWTSecret   string
	TokenTTL    time.Duration
	ListenAddr  string
	UploadDir   string
}

// Load читает .env (если есть) и переменные окружения.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("Файл .env не найден, используются переменные окружения")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DB_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "instance/savingcircle.db"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    time.Hour,
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		UploadDir:   getEnv("UPLOAD_DIR", "./static/uploads/avatars"),
	}

	if cfg.JWTSecret == "" {
		slog.Error("Критическая ошибка: переменная окружения JWT_SECRET не установлена.")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
