package config

import (
	"os"
	"strings"
	"time"
)

type ServerConfig struct {
	Addr           string        `koanf:"addr"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type GlobalConfig struct {
	// Language is the caption language requested when the caller gives none.
	Language          string `koanf:"language"`
	InterfaceLanguage string `koanf:"interface_language"`
}

type HTTPConfig struct {
	proxy   string
	noProxy []string
}

func NewHTTPConfig(proxy string, noProxy []string) HTTPConfig {
	return HTTPConfig{proxy: proxy, noProxy: noProxy}
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != "" {
		return c.proxy
	}
	for _, name := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(name); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	raw := os.Getenv("NO_PROXY")
	if raw == "" {
		raw = os.Getenv("no_proxy")
	}
	if raw == "" {
		return nil
	}
	return splitList(raw)
}

type YoutubeConfig struct {
	UserAgent   string
	Cookie      string
	CookiesFile string
	// Headers are extra identity headers sent with every request to the video platform.
	Headers        map[string]string
	ClientProfiles []string
	TempDirectory  string
}

// PlatformHeaders merges the configured user agent and cookie into the custom headers.
func (c YoutubeConfig) PlatformHeaders() map[string]string {
	headers := make(map[string]string, len(c.Headers)+2)
	if c.UserAgent != "" {
		headers["User-Agent"] = c.UserAgent
	}
	if c.Cookie != "" {
		headers["Cookie"] = c.Cookie
	}
	for k, v := range c.Headers {
		headers[k] = v
	}
	return headers
}

func (c YoutubeConfig) TempDir() string {
	if dir := strings.TrimSpace(c.TempDirectory); dir != "" {
		return dir
	}
	return os.TempDir()
}

type TimeoutsConfig struct {
	Captions      time.Duration
	Metadata      time.Duration
	Mirror        time.Duration
	AudioDownload time.Duration
	Ytdlp         time.Duration
	Transcription time.Duration
}

type STTConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	MinChars int
}

type ThrottleConfig struct {
	Requests    int
	Period      time.Duration
	Concurrency int
}

type PipelineConfig struct {
	Strategies []string
}

type DatabaseConfig struct {
	DSN           string
	RetentionDays int
}

func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	Format      string `koanf:"format"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

func (c LoggingConfig) IsJSON() bool {
	return strings.EqualFold(c.Format, "json")
}
