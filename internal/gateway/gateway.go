package gateway

import (
	"encoding/json"
	"fmt"
	"time"
)

// TokenSource is the gateway's view of the persisted session tokens. The
// session store owns the implementation; the gateway only reads the pair
// and swaps it after a successful refresh.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	// UpdateTokens replaces the stored pair. An empty refresh token means
	// the backend did not rotate it and the old one stays valid.
	UpdateTokens(access, refresh string) error
	Clear() error
}

// Config carries the knobs the gateway needs from the application config.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// HTTPError is returned for any non-2xx response that survives the
// refresh-and-retry path. Details is a best-effort flattening of the
// backend's error body; Fields keeps the parsed body for callers that
// want per-field validation messages.
type HTTPError struct {
	Status  int
	Details string
	Fields  map[string]interface{}
}

func (e *HTTPError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Details)
}

// StatusOf unwraps err to the backend status code, or 0 when err is not
// an HTTPError.
func StatusOf(err error) int {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.Status
	}
	return 0
}

// listEnvelope is the DRF pagination wrapper. Some endpoints return it,
// some return a bare array; DecodeList accepts both.
type listEnvelope struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// DecodeList normalizes a collection response to one canonical slice of
// raw records, regardless of whether the backend paginated it.
func DecodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return []json.RawMessage{}, nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("response is neither a list nor a paginated envelope: %w", err)
	}
	if envelope.Results == nil {
		return []json.RawMessage{}, nil
	}
	return envelope.Results, nil
}
