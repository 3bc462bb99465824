package youtube

import (
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

type Config struct {
	Proxy       string
	CookiesFile string
	Language    string
	PlayerURL   string
	Profiles    []ClientProfile
	Mirrors     []string

	CaptionsTimeout time.Duration
	MetadataTimeout time.Duration
	MirrorTimeout   time.Duration
	DownloadTimeout time.Duration
	YtdlpTimeout    time.Duration
}

// Clients are the outbound transports shared by every source.
type Clients struct {
	// Platform talks to watch pages, timed text and the player API.
	Platform *Fetcher
	// Mirror talks to Piped instances.
	Mirror *Fetcher
	// Media downloads audio bytes.
	Media     *Fetcher
	Extractor ContentExtractor
}

// Service holds one instance of every caption and audio source.
type Service struct {
	Subtitles  *SubtitleFetcher
	Scraper    *PageScraper
	Player     *PlayerAudio
	Downloader *DownloaderAudio
	Mirrors    *MirrorAudio
}

func NewService(l logger.Logger, clients Clients, config Config) *Service {
	options := FetchOptions{
		Proxy:       config.Proxy,
		CookiesFile: config.CookiesFile,
	}
	return &Service{
		Subtitles: NewSubtitleFetcher(clients.Extractor, clients.Platform, options,
			config.MetadataTimeout, config.CaptionsTimeout, l.WithField("source", StrategyCaptionsYtdlp)),
		Scraper: NewPageScraper(clients.Platform, config.CaptionsTimeout,
			l.WithField("source", StrategyCaptionsScrape)),
		Player: NewPlayerAudio(clients.Platform, clients.Media, PlayerAudioConfig{
			PlayerURL:       config.PlayerURL,
			Profiles:        config.Profiles,
			Language:        config.Language,
			MetadataTimeout: config.MetadataTimeout,
			DownloadTimeout: config.DownloadTimeout,
		}, l.WithField("source", StrategyAudioInnertube)),
		Downloader: NewDownloaderAudio(clients.Extractor, options, config.YtdlpTimeout,
			l.WithField("source", StrategyAudioYtdlp)),
		Mirrors: NewMirrorAudio(clients.Mirror, clients.Media, config.Mirrors,
			config.MirrorTimeout, config.DownloadTimeout, l.WithField("source", StrategyAudioPiped)),
	}
}
