package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitrate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw      string
		expected Bitrate
	}{
		{`128`, 128},
		{`"64 kbps"`, 64},
		{`"96kbps"`, 96},
		{`"160 Kbps"`, 160},
		{`130868`, 130.868},
		{`"131072 bps"`, 131.072},
		{`"unknown"`, 0},
		{`null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var b Bitrate
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &b))
			assert.InDelta(t, float64(tt.expected), float64(b), 0.0001)
		})
	}

	var b Bitrate
	assert.Error(t, json.Unmarshal([]byte(`{}`), &b))
}

func TestPickBestStream(t *testing.T) {
	var streams []pipedStream
	require.NoError(t, json.Unmarshal([]byte(`[
		{"url":"https://a/64","bitrate":"64 kbps"},
		{"url":"https://a/128","bitrate":128},
		{"url":"https://a/96","bitrate":"96kbps"}
	]`), &streams))

	best, ok := pickBestStream(streams)
	require.True(t, ok)
	assert.Equal(t, "https://a/128", best.URL)

	_, ok = pickBestStream([]pipedStream{{Bitrate: 300}, {URL: "v", VideoOnly: true, Bitrate: 500}})
	assert.False(t, ok)
}

func pipedResponse(serverURL string) string {
	return fmt.Sprintf(`{"title":"t","audioStreams":[
		{"url":"%[1]s/audio/low","bitrate":48000,"format":"M4A","mimeType":"audio/mp4"},
		{"url":"%[1]s/audio/high","bitrate":"160 kbps","format":"WEBMA_OPUS","mimeType":"audio/webm"}
	]}`, serverURL)
}

func TestMirrorAudio_FetchAudio(t *testing.T) {
	t.Run("falls through mirrors in order", func(t *testing.T) {
		var calls []string
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, r.URL.Path)
			switch {
			case strings.HasPrefix(r.URL.Path, "/broken/streams/"):
				w.WriteHeader(http.StatusBadGateway)
			case strings.HasPrefix(r.URL.Path, "/empty/streams/"):
				_, _ = w.Write([]byte(`{"audioStreams":[]}`))
			case r.URL.Path == "/good/streams/"+testVideoID:
				_, _ = w.Write([]byte(pipedResponse(server.URL)))
			case r.URL.Path == "/audio/high":
				_, _ = w.Write([]byte("opus-bytes"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		fetcher := NewFetcher(server.Client(), nil, logger.NewTestLogger())
		m := NewMirrorAudio(fetcher, fetcher, []string{
			server.URL + "/broken/",
			" " + server.URL + "/empty",
			server.URL + "/good",
		}, time.Second, time.Second, logger.NewTestLogger())

		dir := t.TempDir()
		audio, err := m.FetchAudio(context.Background(), testRef, dir)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"/broken/streams/" + testVideoID,
			"/empty/streams/" + testVideoID,
			"/good/streams/" + testVideoID,
			"/audio/high",
		}, calls)
		assert.Equal(t, "webm", audio.Ext)
		assert.Equal(t, int64(len("opus-bytes")), audio.Size)
		content, err := os.ReadFile(audio.Path)
		require.NoError(t, err)
		assert.Equal(t, "opus-bytes", string(content))

		require.Len(t, audio.Steps, 3)
		assert.False(t, audio.Steps[0].Succeeded)
		assert.Equal(t, transcript.KindDownloadFailed, audio.Steps[0].Kind)
		assert.Equal(t, transcript.KindNoAudioAvailable, audio.Steps[1].Kind)
		assert.True(t, audio.Steps[2].Succeeded)
	})

	t.Run("unknown format stays inside the request dir", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/streams/" + testVideoID:
				_, _ = fmt.Fprintf(w, `{"audioStreams":[{"url":%q,"bitrate":128,"format":"/../../escaped"}]}`,
					server.URL+"/audio")
			case "/audio":
				_, _ = w.Write([]byte("audio-bytes"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		fetcher := NewFetcher(server.Client(), nil, logger.NewTestLogger())
		m := NewMirrorAudio(fetcher, fetcher, []string{server.URL}, time.Second, time.Second, logger.NewTestLogger())

		dir := t.TempDir()
		audio, err := m.FetchAudio(context.Background(), testRef, dir)
		require.NoError(t, err)

		assert.Equal(t, "webm", audio.Ext)
		assert.Equal(t, filepath.Join(dir, testVideoID+".webm"), audio.Path)
		entries, err := os.ReadDir(filepath.Dir(dir))
		require.NoError(t, err)
		for _, entry := range entries {
			assert.NotEqual(t, "escaped", entry.Name())
		}
	})

	t.Run("every mirror fails", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/slow/") {
				select {
				case <-r.Context().Done():
				case <-release:
				}
				return
			}
			_, _ = w.Write([]byte(`{"error":"Video unavailable","message":"This video is private"}`))
		}))
		defer server.Close()
		defer close(release)

		fetcher := NewFetcher(server.Client(), nil, logger.NewTestLogger())
		m := NewMirrorAudio(fetcher, fetcher, []string{server.URL + "/slow", server.URL + "/private"},
			30*time.Millisecond, time.Second, logger.NewTestLogger())

		_, err := m.FetchAudio(context.Background(), testRef, t.TempDir())
		require.Error(t, err)

		steps := transcript.StepsOf(err)
		require.Len(t, steps, 2)
		assert.Equal(t, transcript.KindTimeout, steps[0].Kind)
		assert.Equal(t, transcript.KindNoAudioAvailable, steps[1].Kind)
		assert.Contains(t, steps[1].Error, "This video is private")
	})

	t.Run("download failure removes partial file", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "/streams/") {
				_, _ = w.Write([]byte(pipedResponse(server.URL)))
				return
			}
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		fetcher := NewFetcher(server.Client(), nil, logger.NewTestLogger())
		m := NewMirrorAudio(fetcher, fetcher, []string{server.URL}, time.Second, time.Second, logger.NewTestLogger())

		dir := t.TempDir()
		_, err := m.FetchAudio(context.Background(), testRef, dir)
		require.ErrorIs(t, err, transcript.ErrDownloadFailed)

		entries, readErr := os.ReadDir(dir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("no mirrors", func(t *testing.T) {
		m := NewMirrorAudio(nil, nil, []string{" "}, time.Second, time.Second, logger.NewTestLogger())
		_, err := m.FetchAudio(context.Background(), testRef, t.TempDir())
		require.ErrorIs(t, err, transcript.ErrNoAudioAvailable)
	})
}
