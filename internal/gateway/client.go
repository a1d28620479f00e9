package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Client wraps the CRM backend's REST API. It attaches the bearer token,
// transparently refreshes it once on a 401 and retries the original
// request a single time. Concurrent 401s from parallel requests share one
// refresh call through the singleflight group.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokens        TokenSource
	logger        *slog.Logger
	refreshGroup  singleflight.Group
	onAuthFailure func()
}

func NewClient(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// SetAuthFailureHandler registers the session-teardown hook invoked when
// a refresh attempt itself fails. Must be called before the client is
// shared across goroutines.
func (c *Client) SetAuthFailureHandler(fn func()) {
	c.onAuthFailure = fn
}

// Do sends one JSON request. A nil body sends no payload. The result is
// nil for 204 responses and for 2xx responses without a parsable JSON
// body; callers must not assume a body exists.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload, "application/json")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
			c.logger.Warn("token refresh failed, tearing down session", "error", refreshErr)
			if c.onAuthFailure != nil {
				c.onAuthFailure()
			}
			return nil, &HTTPError{Status: http.StatusUnauthorized, Details: "session expired"}
		}

		c.logger.Debug("token refreshed, retrying request", "method", method, "path", path)
		resp, err = c.send(ctx, method, path, payload, "application/json")
		if err != nil {
			return nil, err
		}
		// no second refresh: a 401 on the retry falls through to the
		// error path below
	}

	return c.decode(resp)
}

// DoForm sends a multipart upload (image attachments on projects and
// holidays). Content-Type is left to the multipart writer.
func (c *Client) DoForm(ctx context.Context, method, path, field, filename string, content io.Reader, extra map[string]string) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy form content: %w", err)
	}
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	resp, err := c.send(ctx, method, path, buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
			if c.onAuthFailure != nil {
				c.onAuthFailure()
			}
			return nil, &HTTPError{Status: http.StatusUnauthorized, Details: "session expired"}
		}
		resp, err = c.send(ctx, method, path, buf.Bytes(), writer.FormDataContentType())
		if err != nil {
			return nil, err
		}
	}

	return c.decode(resp)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// refreshAccessToken performs one refresh call shared across concurrent
// callers. The token pair is swapped in a single UpdateTokens call so
// readers never observe a half-updated pair.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		refresh := c.tokens.RefreshToken()
		if refresh == "" {
			return nil, fmt.Errorf("no refresh token")
		}

		payload, err := json.Marshal(map[string]string{"refresh": refresh})
		if err != nil {
			return nil, fmt.Errorf("marshal refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token/refresh/", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("refresh request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
		}

		var tokens struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		if tokens.Access == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}

		if err := c.tokens.UpdateTokens(tokens.Access, tokens.Refresh); err != nil {
			return nil, fmt.Errorf("persist refreshed tokens: %w", err)
		}
		return nil, nil
	})
	return err
}

func (c *Client) decode(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.httpError(resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	if !json.Valid(raw) {
		c.logger.Warn("unparsable body on success response, treating as empty", "status", resp.StatusCode)
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

func (c *Client) httpError(status int, raw []byte) *HTTPError {
	httpErr := &HTTPError{Status: status}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		httpErr.Details = http.StatusText(status)
		return httpErr
	}

	httpErr.Fields = fields
	parts := make([]string, 0, len(fields))
	for field, value := range fields {
		switch v := value.(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", field, v))
		case []interface{}:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", field, v))
		}
	}
	httpErr.Details = strings.Join(parts, "; ")
	return httpErr
}
