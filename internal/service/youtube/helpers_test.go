package youtube

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/stretchr/testify/require"
)

// rewriteClient sends every request to the test server, keeping path and query.
type rewriteClient struct {
	target *url.URL
	client *http.Client
}

func (c *rewriteClient) Do(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = c.target.Scheme
	req.URL.Host = c.target.Host
	req.Host = c.target.Host
	return c.client.Do(req)
}

func newTestFetcher(t *testing.T, server *httptest.Server, headers map[string]string) *Fetcher {
	t.Helper()
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return NewFetcher(&rewriteClient{target: target, client: server.Client()}, headers, logger.NewTestLogger())
}

func createMockResult(info *ytdlp.ExtractedInfo) *ytdlp.Result {
	rawJSON, _ := json.Marshal(info)
	jsonMsg := json.RawMessage(rawJSON)

	return &ytdlp.Result{
		ExitCode: 0,
		OutputLogs: []*ytdlp.ResultLog{
			{
				Timestamp: time.Now(),
				Line:      string(rawJSON),
				JSON:      &jsonMsg,
				Pipe:      "stdout",
			},
		},
	}
}

func createMockResultWithoutInfo() *ytdlp.Result {
	return &ytdlp.Result{
		ExitCode:   0,
		OutputLogs: nil,
	}
}

func stringPtr(s string) *string {
	return &s
}
