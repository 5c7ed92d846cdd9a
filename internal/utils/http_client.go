package utils

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly,
// while allowing extension with additional application-specific behavior.
//
// Example usage:
//
//	client := utils.NewHTTPClient("http://localhost:8080", 5*time.Second)
//	resp, err := client.R().Get("/api/version")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client bound to baseURL. A zero timeout leaves
// requests unbounded. JSON bodies are encoded with goccy/go-json.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPClient{Client: client}
}
