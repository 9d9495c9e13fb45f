package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type AI struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Config struct {
	PostgresURI      string
	RedisURI         string
	GraphBaseURL     string
	GraphAPIVersion  string
	ShortcutAPIKey   string
	FrontendURL      string
	R2               R2
	AI               AI
	SecretKey        string
	CookieName       string
	MaxImportItems   int
	RecentSyncLimit  int
	ForceResyncLimit int
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", "localhost:6379"),
		GraphBaseURL:    getEnv("GRAPH_BASE_URL", "https://graph.instagram.com"),
		GraphAPIVersion: getEnv("GRAPH_API_VERSION", "v21.0"),
		ShortcutAPIKey:  getEnv("SHORTCUT_API_KEY", ""),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		AI: AI{
			BaseURL: getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("AI_API_KEY", ""),
			Model:   getEnv("AI_MODEL", "gpt-4o-mini"),
		},
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", ""),
		MaxImportItems:   getEnvInt("MAX_IMPORT_ITEMS", 1000),
		RecentSyncLimit:  getEnvInt("RECENT_SYNC_LIMIT", 50),
		ForceResyncLimit: getEnvInt("FORCE_RESYNC_LIMIT", 20),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
