package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env is the process level configuration, read from the environment
// and an optional .env file. The message schedule lives in the YAML document.
type Env struct {
	ConfigFile        string
	DatabaseURL       string
	LogLevel          string
	LogFile           string
	PIDFile           string
	HTTPAddr          string
	JWTSecret         string
	AllowedOrigins    []string
	BrowserProfileDir string
	BrowserHeadless   bool
	// ImageDir bounds the image paths accepted by POST /api/send.
	ImageDir string

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

func LoadEnv(envFile string) *Env {
	if envFile == "" {
		envFile = ".env"
	}
	loaded := godotenv.Load(envFile) == nil

	return &Env{
		ConfigFile:        getEnv("CONFIG_FILE", "config.yaml"),
		DatabaseURL:       getEnv("DATABASE_URL", "sqlite3://file:wa-scheduler.db?_foreign_keys=on&_busy_timeout=5000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", "whatsapp_bot.log"),
		PIDFile:           getEnv("PID_FILE", "wa-scheduler.pid"),
		HTTPAddr:          getEnv("HTTP_ADDR", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
		BrowserProfileDir: getEnv("BROWSER_PROFILE_DIR", "browser-profile"),
		BrowserHeadless:   getBool("BROWSER_HEADLESS", false),
		ImageDir:          getEnv("IMAGE_DIR", "images"),
		EnvFileLoaded:     loaded,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
