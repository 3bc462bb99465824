package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const EnvPrefix = "YTSCRIBE_"

const (
	SERVER_ADDR               = "server.addr"
	SERVER_READ_TIMEOUT       = "server.read_timeout"
	SERVER_WRITE_TIMEOUT      = "server.write_timeout"
	SERVER_REQUEST_TIMEOUT    = "server.request_timeout"
	GLOBAL_LANGUAGE           = "global.language"
	GLOBAL_INTERFACE_LANGUAGE = "global.interface_language"
	HTTP_PROXY                = "http.proxy"
	HTTP_NO_PROXY             = "http.no_proxy"
	YOUTUBE_USER_AGENT        = "youtube.user_agent"
	YOUTUBE_COOKIE            = "youtube.cookie"
	YOUTUBE_COOKIES_FILE      = "youtube.cookies_file"
	YOUTUBE_HEADERS           = "youtube.headers"
	YOUTUBE_CLIENT_PROFILES   = "youtube.client_profiles"
	YOUTUBE_TEMP_DIRECTORY    = "youtube.temp_directory"
	MIRRORS_URLS              = "mirrors.urls"
	TIMEOUTS_CAPTIONS         = "timeouts.captions"
	TIMEOUTS_METADATA         = "timeouts.metadata"
	TIMEOUTS_MIRROR           = "timeouts.mirror"
	TIMEOUTS_AUDIO_DOWNLOAD   = "timeouts.audio_download"
	TIMEOUTS_YTDLP            = "timeouts.ytdlp"
	TIMEOUTS_TRANSCRIPTION    = "timeouts.transcription"
	STT_API_KEY               = "stt.api_key"
	STT_BASE_URL              = "stt.base_url"
	STT_MODEL                 = "stt.model"
	STT_MIN_CHARS             = "stt.min_chars"
	THROTTLE_REQUESTS         = "throttle.requests"
	THROTTLE_PERIOD           = "throttle.period"
	THROTTLE_CONCURRENCY      = "throttle.concurrency"
	PIPELINE_STRATEGIES       = "pipeline.strategies"
	DATABASE_DSN              = "database.dsn"
	DATABASE_RETENTION_DAYS   = "database.retention_days"
	LOGGING_LEVEL             = "logging.level"
	LOGGING_FORMAT            = "logging.format"
	LOGGING_WRITE_IN_FILE     = "logging.write_in_file"
	LOGGING_FILE_PATH         = "logging.file_path"
)

// Strategy names in their default fallback order.
var DefaultStrategies = []string{
	"captions-ytdlp",
	"captions-scrape",
	"audio-innertube",
	"audio-ytdlp",
	"audio-piped",
}

var DefaultMirrors = []string{
	"https://pipedapi.kavin.rocks",
	"https://pipedapi.adminforge.de",
	"https://api.piped.private.coffee",
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

type Config struct {
	k *koanf.Koanf
}

func defaults() map[string]any {
	return map[string]any{
		SERVER_ADDR:               ":8080",
		SERVER_READ_TIMEOUT:       15 * time.Second,
		SERVER_WRITE_TIMEOUT:      15 * time.Minute,
		SERVER_REQUEST_TIMEOUT:    14 * time.Minute,
		GLOBAL_LANGUAGE:           "en",
		GLOBAL_INTERFACE_LANGUAGE: "en",
		HTTP_PROXY:                "",
		HTTP_NO_PROXY:             []string{},
		YOUTUBE_USER_AGENT:        DefaultUserAgent,
		YOUTUBE_COOKIE:            "",
		YOUTUBE_COOKIES_FILE:      "",
		YOUTUBE_HEADERS:           map[string]any{},
		YOUTUBE_CLIENT_PROFILES:   []string{"android", "ios", "web"},
		YOUTUBE_TEMP_DIRECTORY:    "",
		MIRRORS_URLS:              DefaultMirrors,
		TIMEOUTS_CAPTIONS:         20 * time.Second,
		TIMEOUTS_METADATA:         20 * time.Second,
		TIMEOUTS_MIRROR:           15 * time.Second,
		TIMEOUTS_AUDIO_DOWNLOAD:   5 * time.Minute,
		TIMEOUTS_YTDLP:            10 * time.Minute,
		TIMEOUTS_TRANSCRIPTION:    10 * time.Minute,
		STT_API_KEY:               "",
		STT_BASE_URL:              "https://api.openai.com/v1",
		STT_MODEL:                 "whisper-1",
		STT_MIN_CHARS:             10,
		THROTTLE_REQUESTS:         5,
		THROTTLE_PERIOD:           10 * time.Second,
		THROTTLE_CONCURRENCY:      4,
		PIPELINE_STRATEGIES:       DefaultStrategies,
		DATABASE_DSN:              "ytscribe.db?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL",
		DATABASE_RETENTION_DAYS:   7,
		LOGGING_LEVEL:             "info",
		LOGGING_FORMAT:            "text",
		LOGGING_WRITE_IN_FILE:     false,
		LOGGING_FILE_PATH:         "ytscribe.log",
	}
}

// Load layers defaults, the first config file found, .env and YTSCRIBE_* variables.
// An empty configPath falls back to the standard search locations.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")
	def := defaults()
	if err := k.Load(confmap.Provider(def, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, path := range getConfigPaths(configPath) {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		} else if configPath != "" {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	known := envKeys(def)
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		key := EnvToKey(name, known)
		if _, isList := def[key].([]string); isList {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	cfg := &Config{k: k}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvToKey maps YTSCRIBE_STT_API_KEY to stt.api_key using the set of known keys,
// so underscores inside key names survive. Unknown variables are split on every underscore.
func EnvToKey(name string, known map[string]string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if key, ok := known[trimmed]; ok {
		return key
	}
	return strings.ReplaceAll(trimmed, "_", ".")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func envKeys(def map[string]any) map[string]string {
	keys := make(map[string]string, len(def))
	for key := range def {
		keys[strings.ReplaceAll(key, ".", "_")] = key
	}
	return keys
}

func (c *Config) validate() error {
	for _, name := range c.Pipeline().Strategies {
		if !slices.Contains(DefaultStrategies, name) {
			return fmt.Errorf("unknown strategy %q in %s", name, PIPELINE_STRATEGIES)
		}
	}
	if len(c.Pipeline().Strategies) == 0 {
		return fmt.Errorf("%s must list at least one strategy", PIPELINE_STRATEGIES)
	}
	return nil
}

func (c *Config) Server() ServerConfig {
	return ServerConfig{
		Addr:           c.k.String(SERVER_ADDR),
		ReadTimeout:    c.k.Duration(SERVER_READ_TIMEOUT),
		WriteTimeout:   c.k.Duration(SERVER_WRITE_TIMEOUT),
		RequestTimeout: c.k.Duration(SERVER_REQUEST_TIMEOUT),
	}
}

func (c *Config) Global() GlobalConfig {
	return GlobalConfig{
		Language:          c.k.String(GLOBAL_LANGUAGE),
		InterfaceLanguage: c.k.String(GLOBAL_INTERFACE_LANGUAGE),
	}
}

func (c *Config) HTTP() HTTPConfig {
	return HTTPConfig{
		proxy:   c.k.String(HTTP_PROXY),
		noProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func (c *Config) Youtube() YoutubeConfig {
	return YoutubeConfig{
		UserAgent:      c.k.String(YOUTUBE_USER_AGENT),
		Cookie:         c.k.String(YOUTUBE_COOKIE),
		CookiesFile:    c.k.String(YOUTUBE_COOKIES_FILE),
		Headers:        c.k.StringMap(YOUTUBE_HEADERS),
		ClientProfiles: c.k.Strings(YOUTUBE_CLIENT_PROFILES),
		TempDirectory:  c.k.String(YOUTUBE_TEMP_DIRECTORY),
	}
}

func (c *Config) Mirrors() []string {
	return c.k.Strings(MIRRORS_URLS)
}

func (c *Config) Timeouts() TimeoutsConfig {
	return TimeoutsConfig{
		Captions:      c.k.Duration(TIMEOUTS_CAPTIONS),
		Metadata:      c.k.Duration(TIMEOUTS_METADATA),
		Mirror:        c.k.Duration(TIMEOUTS_MIRROR),
		AudioDownload: c.k.Duration(TIMEOUTS_AUDIO_DOWNLOAD),
		Ytdlp:         c.k.Duration(TIMEOUTS_YTDLP),
		Transcription: c.k.Duration(TIMEOUTS_TRANSCRIPTION),
	}
}

func (c *Config) STT() STTConfig {
	return STTConfig{
		APIKey:   c.k.String(STT_API_KEY),
		BaseURL:  strings.TrimSuffix(c.k.String(STT_BASE_URL), "/"),
		Model:    c.k.String(STT_MODEL),
		MinChars: c.k.Int(STT_MIN_CHARS),
	}
}

func (c *Config) Throttle() ThrottleConfig {
	requests := c.k.Int(THROTTLE_REQUESTS)
	if requests <= 0 {
		requests = 1
	}
	period := c.k.Duration(THROTTLE_PERIOD)
	if period <= 0 {
		period = 10 * time.Second
	}
	concurrency := c.k.Int(THROTTLE_CONCURRENCY)
	if concurrency <= 0 {
		concurrency = 1
	}
	return ThrottleConfig{
		Requests:    requests,
		Period:      period,
		Concurrency: concurrency,
	}
}

func (c *Config) Pipeline() PipelineConfig {
	return PipelineConfig{
		Strategies: c.k.Strings(PIPELINE_STRATEGIES),
	}
}

func (c *Config) Database() DatabaseConfig {
	return DatabaseConfig{
		DSN:           c.k.String(DATABASE_DSN),
		RetentionDays: c.k.Int(DATABASE_RETENTION_DAYS),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		Format:      c.k.String(LOGGING_FORMAT),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func getConfigPaths(configPath string) []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"ytscribe.toml",
		"config.toml",
		filepath.Join(xdgConfig, "ytscribe", "config.toml"),
		"/etc/ytscribe/config.toml",
	}
}
