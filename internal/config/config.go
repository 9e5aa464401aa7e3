package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	NatsURL          string
	LogLevel         string
	OpenRouterAPIKey string
	Model            string
	MaxTokens        int
	Temperature      float64
}

func Load() Config {
	// Best effort; env vars win over .env values.
	_ = godotenv.Load()

	return Config{
		Port:             envInt("ENCODER_PORT", 8080),
		NatsURL:          envStr("NATS_URL", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		OpenRouterAPIKey: envStr("OPENROUTER_API_KEY", ""),
		Model:            envStr("ENCODER_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),
		MaxTokens:        envInt("ENCODER_MAX_TOKENS", 4096),
		Temperature:      envFloat("ENCODER_TEMPERATURE", 0.1),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
