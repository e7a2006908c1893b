package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort             string
	DatabaseURL          string
	LLMProvider          string
	OpenAIAPIKey         string
	GeminiAPIKey         string
	DefaultAdminPassword string
	LogLevel             string
	UpdateQueueSize      int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:             getEnv("HTTP_PORT", "3003"),
		DatabaseURL:          getEnv("DATABASE_URL", "coach.db"),
		LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "UntireAdmin2024!"),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		UpdateQueueSize:      getEnvAsInt("UPDATE_QUEUE_SIZE", 32),
	}

	// A missing API key is not fatal: turns degrade to a fixed fallback
	// reply instead of surfacing an error to the user.
	if AppConfig.OpenAIAPIKey == "" && AppConfig.GeminiAPIKey == "" {
		log.Println("No LLM API key configured, running in demo mode with fallback replies")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
