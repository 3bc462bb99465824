package youtube

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/muratoffalex/ytscribe/internal/transcript"
)

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

// Caption payloads are often escaped twice, so entities survive XML decoding.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#39;", "'",
	"&quot;", `"`,
)

// ParseTimedText parses <transcript><text start="" dur="">...</text></transcript> documents.
func ParseTimedText(data []byte) ([]transcript.Segment, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(transcript.ErrParse, fmt.Errorf("timedtext xml: %w", err))
	}

	segments := make([]transcript.Segment, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		text := cleanCaptionText(entityReplacer.Replace(line.Text))
		if text == "" {
			continue
		}
		segments = append(segments, transcript.NewSegment(text, line.Start, line.Dur))
	}
	return segments, nil
}

var srtTimestampRE = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})[,.](\d{3})`)

// ParseSRT parses SubRip blocks. Cue numbers are ignored; order follows the input.
func ParseSRT(data []byte) ([]transcript.Segment, error) {
	var segments []transcript.Segment
	var start, end int64
	var text []string
	inCue := false

	flush := func() {
		if inCue {
			if joined := cleanCaptionText(strings.Join(text, " ")); joined != "" {
				segments = append(segments, transcript.Segment{
					Text:       joined,
					StartMs:    start,
					DurationMs: max(end-start, 0),
				})
			}
		}
		inCue = false
		text = text[:0]
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			stamps := srtTimestampRE.FindAllStringSubmatch(line, 2)
			if len(stamps) != 2 {
				return nil, fmt.Errorf("%w: bad srt timing line %q", transcript.ErrParse, line)
			}
			start, end = srtMillis(stamps[0]), srtMillis(stamps[1])
			inCue = true
		case inCue:
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Join(transcript.ErrParse, err)
	}
	flush()

	if len(segments) == 0 && len(bytes.TrimSpace(data)) > 0 {
		return nil, fmt.Errorf("%w: no srt cues found", transcript.ErrParse)
	}
	return segments, nil
}

func srtMillis(m []string) int64 {
	h, _ := strconv.ParseInt(m[1], 10, 64)
	mi, _ := strconv.ParseInt(m[2], 10, 64)
	s, _ := strconv.ParseInt(m[3], 10, 64)
	ms, _ := strconv.ParseInt(m[4], 10, 64)
	return ((h*60+mi)*60+s)*1000 + ms
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func cleanCaptionText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
