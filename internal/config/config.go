package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env    string `validate:"required,oneof=dev prod"`
	Gemini struct {
		// APIKey may stay empty when a proxy injects it.
		APIKey      string
		BaseURL     string        `validate:"required,url"`
		Model       string        `validate:"required"`
		MaxAttempts int           `validate:"min=1,max=10"`
		Timeout     time.Duration `validate:"gt=0"`
	}
	HTTP struct {
		Addr              string        `validate:"required"`
		RateLimitInterval time.Duration `validate:"gte=0"`
		// TrustedProxies may set X-Forwarded-For; empty trusts none.
		TrustedProxies    []string      `validate:"dive,ip|cidr"`
	}
	Telegram struct {
		Token      string
		AllowedIDs []int64
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var (
		c   Config
		err error
	)
	c.Env = strings.ToLower(getenv("ENV", "prod"))
	c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	c.Gemini.BaseURL = strings.TrimRight(getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/")
	c.Gemini.Model = getenv("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025")
	if c.Gemini.MaxAttempts, err = getint("GEMINI_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if c.Gemini.Timeout, err = getduration("GEMINI_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	if c.HTTP.RateLimitInterval, err = getduration("RATE_LIMIT_INTERVAL", 2*time.Second); err != nil {
		return Config{}, err
	}
	c.HTTP.TrustedProxies = getlist("HTTP_TRUSTED_PROXIES")
	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if c.Telegram.AllowedIDs, err = ParseIDs(os.Getenv("TELEGRAM_ALLOWED_IDS")); err != nil {
		return Config{}, err
	}
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/repairguide.log")

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseIDs parses a comma or newline separated list of Telegram user IDs.
func ParseIDs(s string) ([]int64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\t' || r == ' ' })
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOWED_IDS: %q is not an id: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getlist(k string) []string {
	parts := strings.FieldsFunc(os.Getenv(k), func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) == 0 {
		return nil
	}
	return parts
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getduration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
