package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Markers that precede a video id, checked in order.
var videoIDMarkers = []string{"youtu.be/", "/shorts/", "/embed/", "/live/", "?v=", "&v="}

// VideoRef identifies one video by its 11-character id.
type VideoRef struct {
	ID string
}

// ParseVideoRef extracts the id from watch, youtu.be and shorts URLs.
// The id runs up to the next '&', '?', '#' or '/'.
func ParseVideoRef(raw string) (VideoRef, error) {
	raw = strings.TrimSpace(raw)
	for _, marker := range videoIDMarkers {
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}
		id := raw[idx+len(marker):]
		if end := strings.IndexAny(id, "&?#/"); end >= 0 {
			id = id[:end]
		}
		if videoIDPattern.MatchString(id) {
			return VideoRef{ID: id}, nil
		}
	}
	return VideoRef{}, fmt.Errorf("%w: no video id in %q", ErrInvalidInput, raw)
}

func (r VideoRef) WatchURL() string {
	return watchURLPrefix + r.ID
}

// NormalizeURL rewrites any accepted URL shape to the canonical watch URL.
func NormalizeURL(raw string) (string, error) {
	ref, err := ParseVideoRef(raw)
	if err != nil {
		return "", err
	}
	return ref.WatchURL(), nil
}

func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}
