package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server().Addr)
	assert.Equal(t, "en", cfg.Global().Language)
	assert.Equal(t, DefaultStrategies, cfg.Pipeline().Strategies)
	assert.Equal(t, DefaultMirrors, cfg.Mirrors())
	assert.Equal(t, []string{"android", "ios", "web"}, cfg.Youtube().ClientProfiles)
	assert.Equal(t, 20*time.Second, cfg.Timeouts().Captions)
	assert.Equal(t, 10, cfg.STT().MinChars)
	assert.Equal(t, "https://api.openai.com/v1", cfg.STT().BaseURL)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
[global]
language = "de"

[timeouts]
mirror = "3s"

[mirrors]
urls = ["https://piped.example"]

[pipeline]
strategies = ["captions-scrape", "audio-piped"]

[stt]
base_url = "https://stt.example/v1/"

[youtube.headers]
X-Goog-Visitor-Id = "abc"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.Global().Language)
	assert.Equal(t, 3*time.Second, cfg.Timeouts().Mirror)
	assert.Equal(t, []string{"https://piped.example"}, cfg.Mirrors())
	assert.Equal(t, []string{"captions-scrape", "audio-piped"}, cfg.Pipeline().Strategies)
	assert.Equal(t, "https://stt.example/v1", cfg.STT().BaseURL)
	assert.Equal(t, "abc", cfg.Youtube().PlatformHeaders()["X-Goog-Visitor-Id"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("YTSCRIBE_STT_API_KEY", "secret")
	t.Setenv("YTSCRIBE_MIRRORS_URLS", "https://a.example, https://b.example")
	t.Setenv("YTSCRIBE_LOGGING_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.STT().APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Mirrors())
	assert.True(t, cfg.Log().IsDebug())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown strategy", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[pipeline]\nstrategies = [\"carrier-pigeon\"]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})

	t.Run("broken toml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[global\nlanguage="))
		require.Error(t, err)
	})
}

func TestEnvToKey(t *testing.T) {
	known := envKeys(defaults())

	tests := []struct {
		env      string
		expected string
	}{
		{"YTSCRIBE_STT_API_KEY", "stt.api_key"},
		{"YTSCRIBE_TIMEOUTS_AUDIO_DOWNLOAD", "timeouts.audio_download"},
		{"YTSCRIBE_GLOBAL_INTERFACE_LANGUAGE", "global.interface_language"},
		{"YTSCRIBE_YOUTUBE_HEADERS_ORIGIN", "youtube.headers.origin"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnvToKey(tt.env, known))
		})
	}
}

func TestYoutubeConfig_PlatformHeaders(t *testing.T) {
	cfg := YoutubeConfig{
		UserAgent: "ua",
		Cookie:    "SID=1",
		Headers:   map[string]string{"User-Agent": "override", "Accept-Language": "en"},
	}

	headers := cfg.PlatformHeaders()
	assert.Equal(t, "override", headers["User-Agent"])
	assert.Equal(t, "SID=1", headers["Cookie"])
	assert.Equal(t, "en", headers["Accept-Language"])
}

func TestHTTPConfig_GetProxy(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("https_proxy", "")
	t.Setenv("HTTP_PROXY", "http://env-proxy:3128")
	t.Setenv("http_proxy", "")

	assert.Equal(t, "socks5://cfg:1080", NewHTTPConfig("socks5://cfg:1080", nil).GetProxy())
	assert.Equal(t, "http://env-proxy:3128", NewHTTPConfig("", nil).GetProxy())
}
