package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const (
	StrategyCaptionsScrape = "captions-scrape"

	// ytInitialPlayerResponseMarker names the player response assigned in a watch page script.
	ytInitialPlayerResponseMarker = "ytInitialPlayerResponse"
)

var (
	ErrPlayerResponseNotFound = errors.New("ytInitialPlayerResponse not found in watch page")
	ErrNoCaptionTracks        = errors.New("no caption tracks in player response")
)

// PageScraper reads caption tracks from the watch page HTML.
type PageScraper struct {
	fetcher *Fetcher
	timeout time.Duration
	logger  logger.Logger
}

func NewPageScraper(fetcher *Fetcher, timeout time.Duration, l logger.Logger) *PageScraper {
	return &PageScraper{
		fetcher: fetcher,
		timeout: timeout,
		logger:  l,
	}
}

func (s *PageScraper) Name() string {
	return StrategyCaptionsScrape
}

func (s *PageScraper) FetchCaptions(ctx context.Context, ref transcript.VideoRef, lang string) ([]transcript.Segment, string, error) {
	page, err := s.fetcher.Fetch(ctx, ref.WatchURL(), map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": acceptLanguage(lang),
	}, s.timeout)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, fmt.Errorf("watch page: %w", err))
	}

	raw, err := ExtractPlayerResponse(page)
	if err != nil {
		return nil, "", err
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, "", errors.Join(transcript.ErrParse, fmt.Errorf("decode ytInitialPlayerResponse: %w", err))
	}

	tracks := player.captionTracks()
	if len(tracks) == 0 {
		if ok, reason := player.playable(); !ok {
			return nil, "", errors.Join(transcript.ErrParse, fmt.Errorf("%w: %s", ErrNoCaptionTracks, reason))
		}
		return nil, "", errors.Join(transcript.ErrParse, ErrNoCaptionTracks)
	}

	track, ok := selectCaptionTrack(tracks, lang)
	if !ok {
		return nil, "", fmt.Errorf("%w: all caption tracks require PoToken", transcript.ErrCaptionsUnavailable)
	}

	s.logger.WithFields(logger.Fields{
		"video_id": ref.ID,
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"tracks":   len(tracks),
	}).Debug("Caption track selected")

	data, err := s.fetcher.Fetch(ctx, timedTextURL(track.BaseURL), nil, s.timeout)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, fmt.Errorf("timedtext: %w", err))
	}

	segments, err := ParseTimedText(data)
	if err != nil {
		return nil, "", err
	}
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("%w: empty timedtext for %s", transcript.ErrCaptionsUnavailable, track.LanguageCode)
	}
	return segments, track.LanguageCode, nil
}

// ExtractPlayerResponse finds the script assigning ytInitialPlayerResponse and
// returns the balanced JSON object that follows the assignment.
func ExtractPlayerResponse(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Join(transcript.ErrParse, err)
	}

	var blob []byte
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		for offset := 0; ; {
			idx := strings.Index(text[offset:], ytInitialPlayerResponseMarker)
			if idx < 0 {
				return true
			}
			rest := text[offset+idx+len(ytInitialPlayerResponseMarker):]
			offset += idx + len(ytInitialPlayerResponseMarker)

			brace := strings.IndexByte(rest, '{')
			if brace < 0 || strings.Trim(rest[:brace], " \t\r\n=]'\"") != "" {
				continue
			}
			if blob = extractJSON([]byte(rest[brace:])); blob != nil {
				return false
			}
		}
	})

	if blob == nil {
		return nil, errors.Join(transcript.ErrParse, ErrPlayerResponseNotFound)
	}
	return blob, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// timedTextURL makes a track URL absolute and drops the fmt parameter so the
// default <transcript><text> document is served.
func timedTextURL(baseURL string) string {
	if strings.HasPrefix(baseURL, "/") {
		baseURL = youtubeOrigin + baseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	query := parsed.Query()
	if !query.Has("fmt") {
		return baseURL
	}
	query.Del("fmt")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func acceptLanguage(lang string) string {
	if lang == "" {
		return "en-US,en;q=0.9"
	}
	return lang + ",en;q=0.8"
}
