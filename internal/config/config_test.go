package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ENV", "GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL", "GEMINI_MAX_ATTEMPTS",
	"GEMINI_TIMEOUT", "HTTP_ADDR", "HTTP_TRUSTED_PROXIES", "RATE_LIMIT_INTERVAL", "TELEGRAM_BOT_TOKEN",
	"TELEGRAM_ALLOWED_IDS", "LOG_CONSOLE_LEVEL", "LOG_FILE_LEVEL", "LOG_FILE",
}

// cleanEnv runs the test in an empty directory with every known variable unset.
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "prod", c.Env)
	require.Equal(t, "https://generativelanguage.googleapis.com/v1beta", c.Gemini.BaseURL)
	require.Equal(t, "gemini-2.5-flash-preview-09-2025", c.Gemini.Model)
	require.Equal(t, 5, c.Gemini.MaxAttempts)
	require.Equal(t, 60*time.Second, c.Gemini.Timeout)
	require.Empty(t, c.Gemini.APIKey)
	require.Equal(t, ":8080", c.HTTP.Addr)
	require.Equal(t, 2*time.Second, c.HTTP.RateLimitInterval)
	require.Nil(t, c.HTTP.TrustedProxies)
	require.Empty(t, c.Telegram.Token)
	require.Nil(t, c.Telegram.AllowedIDs)
	require.Equal(t, "info", c.Log.ConsoleLevel)
	require.Equal(t, "debug", c.Log.FileLevel)
	require.Equal(t, "data/logs/repairguide.log", c.Log.File)
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ENV", "DEV")
	t.Setenv("GEMINI_API_KEY", "AIza-test")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9999/v1beta/")
	t.Setenv("GEMINI_MAX_ATTEMPTS", "3")
	t.Setenv("GEMINI_TIMEOUT", "15s")
	t.Setenv("RATE_LIMIT_INTERVAL", "0s")
	t.Setenv("HTTP_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7")
	t.Setenv("TELEGRAM_ALLOWED_IDS", "1, 2,3")
	t.Setenv("LOG_CONSOLE_LEVEL", "WARN")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev", c.Env)
	require.Equal(t, "AIza-test", c.Gemini.APIKey)
	require.Equal(t, "http://localhost:9999/v1beta", c.Gemini.BaseURL)
	require.Equal(t, 3, c.Gemini.MaxAttempts)
	require.Equal(t, 15*time.Second, c.Gemini.Timeout)
	require.Zero(t, c.HTTP.RateLimitInterval)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.7"}, c.HTTP.TrustedProxies)
	require.Equal(t, []int64{1, 2, 3}, c.Telegram.AllowedIDs)
	require.Equal(t, "warn", c.Log.ConsoleLevel)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	cleanEnv(t)
	os.Unsetenv("GEMINI_MODEL")
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_MODEL=gemini-from-file\n"), 0o600))

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini-from-file", c.Gemini.Model)
	os.Unsetenv("GEMINI_MODEL")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad env", "ENV", "staging"},
		{"attempts zero", "GEMINI_MAX_ATTEMPTS", "0"},
		{"attempts too many", "GEMINI_MAX_ATTEMPTS", "11"},
		{"attempts not a number", "GEMINI_MAX_ATTEMPTS", "five"},
		{"bad timeout", "GEMINI_TIMEOUT", "soon"},
		{"negative timeout", "GEMINI_TIMEOUT", "-1s"},
		{"bad url", "GEMINI_BASE_URL", "not a url"},
		{"bad level", "LOG_FILE_LEVEL", "trace"},
		{"bad ids", "TELEGRAM_ALLOWED_IDS", "1,abc"},
		{"bad interval", "RATE_LIMIT_INTERVAL", "fast"},
		{"bad proxy", "HTTP_TRUSTED_PROXIES", "10.0.0.1,proxy.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("1, 2,3,\n4")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4}, ids)

	ids, err = ParseIDs("")
	require.NoError(t, err)
	require.Nil(t, ids)

	_, err = ParseIDs("12x")
	require.Error(t, err)
}
