package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const (
	defaultTimezone = "Europe/Moscow"
	defaultDBPath   = "largo.db"
)

// Config хранит настройки приложения из переменных окружения.
type Config struct {
	BotToken    string
	OpenAIKey   string
	Timezone    string
	DBPath      string
	DatabaseURL string
	HTTPAddr    string
	APIUser     string
	APIPassword string
	CORSOrigins []string
}

// LoadConfig загружает переменные из .env в корне проекта и возвращает проверенную конфигурацию.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	config := Config{
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		Timezone:    envOrDefault("TIMEZONE", defaultTimezone),
		DBPath:      envOrDefault("DB_PATH", defaultDBPath),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
		APIUser:     os.Getenv("API_USER"),
		APIPassword: os.Getenv("API_PASSWORD"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}
	return config, config.Validate()
}

// Validate проверяет часовой пояс и адрес PostgreSQL.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.DatabaseURL != "" {
		if !isPostgresURL(c.DatabaseURL) {
			return errUnsupportedDatabaseURL
		}
		if _, err := pgx.ParseConfig(c.DatabaseURL); err != nil {
			return fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	} else if c.DBPath == "" {
		return errMissingDBPath
	}
	return nil
}

// Location возвращает часовой пояс для отображения сроков.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// APIEnabled сообщает, можно ли поднимать HTTP API.
func (c Config) APIEnabled() bool {
	return c.HTTPAddr != "" && c.APIUser != "" && c.APIPassword != ""
}

// envOrDefault возвращает значение переменной окружения или значение по умолчанию.
func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// splitList разбирает список через запятую, пропуская пустые элементы.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func isPostgresURL(value string) bool {
	return strings.HasPrefix(value, "postgres://") || strings.HasPrefix(value, "postgresql://")
}
