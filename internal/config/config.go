package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64
	OpenAIAPIKey   string

	ClaudeCLIPath string
	WorkingDir    string
	ClaudeTimeout time.Duration

	HistoryDBPath    string
	MaxHistoryRounds int

	FetchOutputDir string

	URLFetchTimeout time.Duration
	EnrichTimeout   time.Duration

	ImageAnalysisEnabled bool
	MaxImagesPerMessage  int
	ImageAnalysisTimeout time.Duration

	CacheRetention time.Duration
}

func Load() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		AllowedUserIDs: getEnvAsInt64List("ALLOWED_USER_IDS", nil),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		ClaudeCLIPath: getEnv("CLAUDE_CLI_PATH", "claude"),
		WorkingDir:    getEnv("WORKING_DIR", filepath.Join(home, "claude-workspace")),
		ClaudeTimeout: getEnvAsDuration("CLAUDE_TIMEOUT", 300*time.Second),

		HistoryDBPath:    getEnv("HISTORY_DB_PATH", "conversation_history.db"),
		MaxHistoryRounds: getEnvAsInt("MAX_HISTORY_ROUNDS", 10),

		FetchOutputDir: getEnv("FETCH_OUTPUT_DIR", "fetch_outputs"),

		URLFetchTimeout: getEnvAsDuration("URL_FETCH_TIMEOUT", 15*time.Second),
		EnrichTimeout:   getEnvAsDuration("ENRICH_TIMEOUT", 120*time.Second),

		ImageAnalysisEnabled: getEnvAsBool("IMAGE_ANALYSIS_ENABLED", true),
		MaxImagesPerMessage:  getEnvAsInt("MAX_IMAGES_PER_MESSAGE", 5),
		ImageAnalysisTimeout: getEnvAsDuration("IMAGE_ANALYSIS_TIMEOUT", 30*time.Second),

		CacheRetention: getEnvAsDuration("CACHE_RETENTION", 1*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Plain numbers mean seconds, so URL_FETCH_TIMEOUT=15 keeps working.
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsInt64List(key string, defaultValue []int64) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return defaultValue
	}
	return ids
}
