package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectDB открывает соединение с базой данных.
// Если DB_URL не задан, используется локальный файл sqlite (как для разработки).
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("Переменная окружения DB_URL не установлена, используется sqlite", "path", cfg.SQLitePath)
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	slog.Info("Успешное подключение к базе данных!")
	return db, nil
}
