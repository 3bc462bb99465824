package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	"golang.org/x/net/html/charset"
)

const (
	defaultMaxBody = 8 << 20
	errorBodyLimit = 256
)

var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher performs single time-bounded requests. Every call carries its own
// deadline; expiry is reported as *transcript.TimeoutError.
type Fetcher struct {
	client  HTTPClient
	headers map[string]string
	maxBody int64
	logger  logger.Logger
}

func NewFetcher(client HTTPClient, headers map[string]string, l logger.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		headers: maps.Clone(headers),
		maxBody: defaultMaxBody,
		logger:  l,
	}
}

// Fetch GETs url and returns the body. Text bodies are decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	return f.read(ctx, http.MethodGet, url, nil, headers, timeout)
}

// Post sends body with the given headers and returns the response body.
func (f *Fetcher) Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) ([]byte, error) {
	return f.read(ctx, http.MethodPost, url, body, headers, timeout)
}

// Download streams the body of url into w and returns the number of bytes written.
func (f *Fetcher) Download(ctx context.Context, url string, headers map[string]string, timeout time.Duration, w io.Writer) (int64, error) {
	var written int64
	err := f.do(ctx, http.MethodGet, url, nil, headers, timeout, func(resp *http.Response) error {
		n, err := io.Copy(w, resp.Body)
		written = n
		return err
	})
	return written, err
}

func (f *Fetcher) read(ctx context.Context, method, url string, body []byte, headers map[string]string, timeout time.Duration) ([]byte, error) {
	var data []byte
	err := f.do(ctx, method, url, body, headers, timeout, func(resp *http.Response) error {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return err
		}
		if int64(len(raw)) > f.maxBody {
			return fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, f.maxBody, url)
		}
		data = raw

		if contentType := resp.Header.Get("Content-Type"); strings.HasPrefix(contentType, "text/") {
			decoded, err := charset.NewReader(bytes.NewReader(raw), contentType)
			if err != nil {
				return fmt.Errorf("decode charset: %w", err)
			}
			data, err = io.ReadAll(decoded)
			return err
		}
		return nil
	})
	return data, err
}

func (f *Fetcher) do(
	ctx context.Context,
	method, url string,
	body []byte,
	headers map[string]string,
	timeout time.Duration,
	consume func(resp *http.Response) error,
) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	f.logger.WithFields(logger.Fields{
		"method":  method,
		"url":     url,
		"timeout": timeout.String(),
	}).Trace("Outbound request")

	resp, err := f.client.Do(req)
	if err != nil {
		return deadlineError(ctx, reqCtx, url, timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &transcript.HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := consume(resp); err != nil {
		return deadlineError(ctx, reqCtx, url, timeout, err)
	}
	return nil
}

// deadlineError tells a per-call timeout apart from cancellation of the caller.
func deadlineError(parent, child context.Context, url string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(child.Err(), context.DeadlineExceeded) {
		return &transcript.TimeoutError{URL: url, Timeout: timeout}
	}
	return err
}
