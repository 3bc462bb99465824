package youtube

import (
	"fmt"
	"strings"

	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const (
	DefaultPlayerURL = "https://www.youtube.com/youtubei/v1/player"
	youtubeOrigin    = "https://www.youtube.com"

	ytWebVersion     = "2.20250222.10.00"
	ytAndroidVersion = "20.10.38"
	ytIOSVersion     = "20.10.4"
)

// ClientProfile is one identity presented to the player API.
type ClientProfile struct {
	Name              string
	ClientName        string
	ClientVersion     string
	HeaderClientName  string
	UserAgent         string
	AndroidSdkVersion int
	DeviceModel       string
	OSName            string
	OSVersion         string
}

var clientProfiles = map[string]ClientProfile{
	"android": {
		Name:              "android",
		ClientName:        "ANDROID",
		ClientVersion:     ytAndroidVersion,
		HeaderClientName:  "3",
		UserAgent:         "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip",
		AndroidSdkVersion: 30,
		OSName:            "Android",
		OSVersion:         "11",
	},
	"ios": {
		Name:             "ios",
		ClientName:       "IOS",
		ClientVersion:    ytIOSVersion,
		HeaderClientName: "5",
		UserAgent:        "com.google.ios.youtube/" + ytIOSVersion + " (iPhone16,2; U; CPU iOS 18_3_2 like Mac OS X;)",
		DeviceModel:      "iPhone16,2",
		OSName:           "iPhone",
		OSVersion:        "18.3.2.22D82",
	},
	"web": {
		Name:             "web",
		ClientName:       "WEB",
		ClientVersion:    ytWebVersion,
		HeaderClientName: "1",
	},
}

// ProfilesByName resolves configured profile names, keeping their order.
func ProfilesByName(names []string) ([]ClientProfile, error) {
	profiles := make([]ClientProfile, 0, len(names))
	for _, name := range names {
		profile, ok := clientProfiles[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown client profile %q", name)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	DeviceModel       string `json:"deviceModel,omitempty"`
	OSName            string `json:"osName,omitempty"`
	OSVersion         string `json:"osVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

func newPlayerRequest(videoID string, profile ClientProfile, hl string) playerRequest {
	return playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        profile.ClientName,
				ClientVersion:     profile.ClientVersion,
				AndroidSdkVersion: profile.AndroidSdkVersion,
				DeviceModel:       profile.DeviceModel,
				OSName:            profile.OSName,
				OSVersion:         profile.OSVersion,
				Hl:                hl,
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
}

// playerResponse covers both the player API answer and ytInitialPlayerResponse.
type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	StreamingData *struct {
		AdaptiveFormats []adaptiveFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type adaptiveFormat struct {
	Itag          int    `json:"itag"`
	URL           string `json:"url"`
	MimeType      string `json:"mimeType"`
	Bitrate       int64  `json:"bitrate"`
	AudioQuality  string `json:"audioQuality"`
	ContentLength string `json:"contentLength"`
}

func (r *playerResponse) captionTracks() []captionTrack {
	if r.Captions == nil {
		return nil
	}
	return r.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func (r *playerResponse) playable() (bool, string) {
	if r.PlayabilityStatus == nil || r.PlayabilityStatus.Status == "" || r.PlayabilityStatus.Status == "OK" {
		return true, ""
	}
	reason := r.PlayabilityStatus.Reason
	if reason == "" {
		reason = r.PlayabilityStatus.Status
	}
	return false, reason
}

// bestAudioFormat picks the audio-only format with the highest bitrate that has a direct URL.
func (r *playerResponse) bestAudioFormat() (adaptiveFormat, bool) {
	var best adaptiveFormat
	found := false
	if r.StreamingData == nil {
		return best, false
	}
	for _, format := range r.StreamingData.AdaptiveFormats {
		if format.URL == "" || !strings.HasPrefix(format.MimeType, "audio/") {
			continue
		}
		if !found || format.Bitrate > best.Bitrate {
			best = format
			found = true
		}
	}
	return best, found
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// selectCaptionTrack prefers an exact language match, then the same base
// language, manual tracks before auto-generated ones, else the first usable track.
func selectCaptionTrack(tracks []captionTrack, lang string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	matchers := []func(captionTrack) bool{
		func(t captionTrack) bool { return strings.EqualFold(t.LanguageCode, lang) && t.Kind != "asr" },
		func(t captionTrack) bool { return strings.EqualFold(t.LanguageCode, lang) },
		func(t captionTrack) bool { return transcript.SameLanguage(t.LanguageCode, lang) && t.Kind != "asr" },
		func(t captionTrack) bool { return transcript.SameLanguage(t.LanguageCode, lang) },
	}
	for _, match := range matchers {
		for _, t := range usable {
			if match(t) {
				return t, true
			}
		}
	}
	return usable[0], true
}
