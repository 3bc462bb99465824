package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

type Format string

const (
	FormatText Format = "txt"
	FormatSRT  Format = "srt"
)

// ParseFormat accepts txt, text and srt. An empty value means txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "srt":
		return FormatSRT, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatSRT {
		return "application/x-subrip; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) Render(segments []Segment) string {
	if f == FormatSRT {
		return ToSRT(segments)
	}
	return ToText(segments)
}

func ToText(segments []Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}

func ToSRT(segments []Segment) string {
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(FormatTimestamp(s.StartMs))
		sb.WriteString(" --> ")
		sb.WriteString(FormatTimestamp(s.EndMs()))
		sb.WriteString("\n")
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
