package youtube

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"golang.org/x/sync/singleflight"
)

const installTimeout = 5 * time.Minute

type FetchOptions struct {
	SkipDownload bool
	PrintJSON    bool
	NoPlaylist   bool
	Format       string
	Output       string
	WorkDir      string
	Proxy        string
	CookiesFile  string
}

type ContentExtractor interface {
	Extract(ctx context.Context, url string, options FetchOptions) (*ytdlp.Result, error)
}

// BinaryResolver returns the path of a usable yt-dlp executable.
type BinaryResolver interface {
	Ensure(ctx context.Context) (string, error)
}

type YtdlpContentExtractor struct {
	binary BinaryResolver
}

func NewYTDLPExtractor(binary BinaryResolver) ContentExtractor {
	return &YtdlpContentExtractor{binary: binary}
}

func (f *YtdlpContentExtractor) Extract(
	ctx context.Context,
	url string,
	options FetchOptions,
) (*ytdlp.Result, error) {
	dl := ytdlp.New()

	if f.binary != nil {
		executable, err := f.binary.Ensure(ctx)
		if err != nil {
			return nil, err
		}
		dl = dl.SetExecutable(executable)
	}

	if options.SkipDownload {
		dl = dl.SkipDownload()
	}

	if options.PrintJSON {
		dl = dl.PrintJSON()
	}

	if options.NoPlaylist {
		dl = dl.NoPlaylist()
	}

	if options.Format != "" {
		dl = dl.Format(options.Format)
	}

	if options.Output != "" {
		dl = dl.Output(options.Output)
	}

	if options.WorkDir != "" {
		dl = dl.SetWorkDir(options.WorkDir)
	}

	if options.Proxy != "" {
		dl = dl.Proxy(options.Proxy)
	}

	if options.CookiesFile != "" {
		dl = dl.Cookies(options.CookiesFile)
	}

	return dl.Run(ctx, url)
}

// Installer resolves the yt-dlp binary once per process. Concurrent first
// callers share a single download; failures are not remembered.
type Installer struct {
	mu      sync.RWMutex
	path    string
	group   singleflight.Group
	install func(ctx context.Context) (string, error)
	logger  logger.Logger
}

func NewInstaller(l logger.Logger) *Installer {
	return &Installer{
		install: installYtdlp,
		logger:  l,
	}
}

func installYtdlp(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", err
	}
	return resolved.Executable, nil
}

func (i *Installer) Ensure(ctx context.Context) (string, error) {
	i.mu.RLock()
	path := i.path
	i.mu.RUnlock()
	if path != "" {
		return path, nil
	}

	result := i.group.DoChan("yt-dlp", func() (any, error) {
		i.mu.RLock()
		cached := i.path
		i.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		installCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), installTimeout)
		defer cancel()

		started := time.Now()
		executable, err := i.install(installCtx)
		if err != nil {
			return "", fmt.Errorf("failed to install yt-dlp: %w", err)
		}

		i.mu.Lock()
		i.path = executable
		i.mu.Unlock()

		i.logger.WithFields(logger.Fields{
			"executable": executable,
			"duration":   time.Since(started).String(),
		}).Info("yt-dlp ready")
		return executable, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
