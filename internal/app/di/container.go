package di

import (
	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/database"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/metrics"
	"github.com/muratoffalex/ytscribe/internal/network"
	"github.com/muratoffalex/ytscribe/internal/pipeline"
	"github.com/muratoffalex/ytscribe/internal/server"
	"github.com/muratoffalex/ytscribe/internal/service"
	"github.com/muratoffalex/ytscribe/internal/service/stt"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Logger       logger.Logger
	Cfg          *config.Config
	DB           database.Database
	Localizer    *service.Localizer
	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics
	Installer    *youtube.Installer
	YtService    *youtube.Service
	Transcriber  *stt.Transcriber
	Orchestrator *pipeline.Orchestrator
	Throttle     *server.Throttle
}

// NewContainer builds every dependency of the service. DB stays nil when
// the attempt history is disabled.
func NewContainer(cfg *config.Config, l logger.Logger) (*Container, error) {
	container := &Container{
		Logger: l,
		Cfg:    cfg,
	}

	if cfg.Database().Enabled() {
		db, err := database.NewSQLiteDB(cfg.Database(), l)
		if err != nil {
			return nil, err
		}
		container.DB = db
	} else {
		l.Info("Attempt history disabled")
	}

	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Localizer = localizer
	l.WithField("languages", localizer.Languages()).Debug("Hint translations loaded")

	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = metrics.New(container.Registry)

	platformHTTP, err := network.SetupHTTPClient(network.NewPlatformHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		container.Close()
		return nil, err
	}
	downloadHTTP, err := network.SetupHTTPClient(network.NewDownloadHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		container.Close()
		return nil, err
	}
	sttHTTP, err := network.SetupHTTPClient(network.NewSTTHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		container.Close()
		return nil, err
	}

	ytCfg := cfg.Youtube()
	profiles, err := youtube.ProfilesByName(ytCfg.ClientProfiles)
	if err != nil {
		container.Close()
		return nil, err
	}
	anonymous := map[string]string{"User-Agent": ytCfg.UserAgent}

	container.Installer = youtube.NewInstaller(l)
	timeouts := cfg.Timeouts()
	container.YtService = youtube.NewService(l, youtube.Clients{
		Platform:  youtube.NewFetcher(platformHTTP, ytCfg.PlatformHeaders(), l),
		Mirror:    youtube.NewFetcher(platformHTTP, anonymous, l),
		Media:     youtube.NewFetcher(downloadHTTP, anonymous, l),
		Extractor: youtube.NewYTDLPExtractor(container.Installer),
	}, youtube.Config{
		Proxy:           cfg.HTTP().GetProxy(),
		CookiesFile:     ytCfg.CookiesFile,
		Language:        cfg.Global().Language,
		Profiles:        profiles,
		Mirrors:         cfg.Mirrors(),
		CaptionsTimeout: timeouts.Captions,
		MetadataTimeout: timeouts.Metadata,
		MirrorTimeout:   timeouts.Mirror,
		DownloadTimeout: timeouts.AudioDownload,
		YtdlpTimeout:    timeouts.Ytdlp,
	})

	sttCfg := cfg.STT()
	container.Transcriber = stt.NewTranscriber(sttHTTP, stt.Config{
		APIKey:   sttCfg.APIKey,
		BaseURL:  sttCfg.BaseURL,
		Model:    sttCfg.Model,
		MinChars: sttCfg.MinChars,
		Timeout:  timeouts.Transcription,
	}, l.WithField("source", "stt"))
	if err := container.Transcriber.Ready(); err != nil {
		l.WithError(err).Warn("Audio strategies will fail until the speech-to-text key is set")
	}

	tempDir := ytCfg.TempDir()
	yt := container.YtService
	strategies, err := pipeline.Select(cfg.Pipeline().Strategies,
		pipeline.CaptionStrategy(yt.Subtitles),
		pipeline.CaptionStrategy(yt.Scraper),
		pipeline.AudioStrategy(yt.Player, container.Transcriber, tempDir, l),
		pipeline.AudioStrategy(yt.Downloader, container.Transcriber, tempDir, l),
		pipeline.AudioStrategy(yt.Mirrors, container.Transcriber, tempDir, l),
	)
	if err != nil {
		container.Close()
		return nil, err
	}

	recorders := []pipeline.Recorder{container.Metrics}
	if container.DB != nil {
		recorders = append(recorders, container.DB)
	}
	container.Orchestrator = pipeline.NewOrchestrator(strategies, l.WithField("component", "pipeline"), recorders...)
	container.Throttle = server.NewThrottle(cfg.Throttle(), l)

	l.WithField("strategies", container.Orchestrator.Strategies()).Info("Pipeline configured")
	return container, nil
}

// Handler builds the HTTP surface on top of the container.
func (c *Container) Handler() *server.Handler {
	var attempts server.AttemptStore
	if c.DB != nil {
		attempts = c.DB
	}
	return server.NewHandler(c.Orchestrator, attempts, c.Localizer, c.Throttle, c.Metrics, server.HandlerConfig{
		DefaultLanguage: c.Cfg.Global().Language,
		RequestTimeout:  c.Cfg.Server().RequestTimeout,
	}, c.Logger.WithField("component", "http"))
}

func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
