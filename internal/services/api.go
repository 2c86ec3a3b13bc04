// API service for making raw HTTP requests to the practice tracker backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rehearse/internal/shared"
)

const defaultBaseURL = "http://127.0.0.1:5000"

// UnauthorizedFunc is called with the request path whenever the backend answers 401.
type UnauthorizedFunc func(path string)

// APIService performs raw HTTP requests against the backend with the stored session cookie.
type APIService struct {
	baseURL        string
	httpClient     *http.Client
	cookie         string
	onUnauthorized UnauthorizedFunc
	logger         *log.Logger
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithSession sends cookie (a "name=value" Cookie header value) on every request.
func WithSession(cookie string) APIOption {
	return func(a *APIService) { a.cookie = cookie }
}

// WithUnauthorized installs the global 401 hook.
func WithUnauthorized(fn UnauthorizedFunc) APIOption {
	return func(a *APIService) { a.onUnauthorized = fn }
}

// WithLogger sets the logger used for transport failures.
func WithLogger(l *log.Logger) APIOption {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = shared.NewLogger(nil)
	}
	return a
}

// BaseURL returns the backend base URL.
func (a *APIService) BaseURL() string { return a.baseURL }

// SetSession replaces the session cookie.
func (a *APIService) SetSession(cookie string) { a.cookie = cookie }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// APIError is a non-2xx response. Message is the server's error text or a generic fallback.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// UserMessage returns the text to show to the user.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Session expired, please log in again"
	case errors.Is(err, shared.ErrTransport):
		return "Could not reach the server"
	default:
		return err.Error()
	}
}

// Do performs a request with an optional JSON body.
//
// Transport failures wrap [shared.ErrTransport]. A 401 fires the unauthorized hook and
// returns the response together with [shared.ErrNotAuthenticated]. Other statuses are
// returned as-is for the caller to interpret.
func (a *APIService) Do(ctx context.Context, method, path string, body []byte) (*APIResponse, error) {
	return a.do(ctx, method, path, body, true)
}

func (a *APIService) do(ctx context.Context, method, path string, body []byte, intercept bool) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cookie != "" {
		req.Header.Set("Cookie", a.cookie)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if intercept && resp.StatusCode == http.StatusUnauthorized {
		a.logger.Warn("session rejected", "method", method, "path", path, "request_id", requestID)
		if a.onUnauthorized != nil {
			a.onUnauthorized(path)
		}
		return apiResp, fmt.Errorf("%w: %s %s", shared.ErrNotAuthenticated, method, path)
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Put performs a PUT request with the given JSON data.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, data)
}

// Delete performs a DELETE request with an optional JSON body.
func (a *APIService) Delete(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, data)
}

// errorMessage extracts the server's error text from a JSON body.
func errorMessage(resp *APIResponse) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		for _, msg := range []string{body.Error, body.Message, body.Detail} {
			if msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("Request failed (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode))
}
