package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	InboxDir  string
	LogLevel  string

	ReferencePath      string
	ReferenceKeyColumn string

	WinsorLower      float64
	WinsorUpper      float64
	TitleMinTokenLen int

	WatchIntervalSec int
	WatchBatch       int
	WatchSchemaID    string

	PipelineConfigPath string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		InboxDir:  getEnv("INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		ReferencePath:      getEnv("REFERENCE_PATH", ""),
		ReferenceKeyColumn: getEnv("REFERENCE_KEY_COLUMN", "alpha_2"),

		WinsorLower:      getEnvFloat("WINSOR_LOWER", 0.01),
		WinsorUpper:      getEnvFloat("WINSOR_UPPER", 0.01),
		TitleMinTokenLen: getEnvInt("TITLE_MIN_TOKEN_LEN", 2),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),
		WatchBatch:       getEnvInt("WATCH_BATCH", 20),
		WatchSchemaID:    getEnv("WATCH_SCHEMA_ID", ""),

		PipelineConfigPath: getEnv("PIPELINE_CONFIG", ""),
	}

	if cfg.PipelineConfigPath != "" {
		file, err := LoadPipelineFile(cfg.PipelineConfigPath)
		if err != nil {
			return Config{}, err
		}
		file.ApplyTo(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the numeric settings after env and PIPELINE_CONFIG have
// both been applied.
func (c Config) Validate() error {
	if err := FileFromConfig(c).Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
