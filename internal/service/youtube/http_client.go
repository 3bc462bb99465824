package youtube

import "net/http"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ensure http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)
