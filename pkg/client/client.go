package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/xhad/pdfchat/internal/models"
)

const (
	uploadPath = "/upload_pdf"
	statusPath = "/session_status"
	chatPath   = "/chat"

	// FileField is the multipart field the service reads the PDF from.
	FileField = "pdf"

	maxBodyBytes = 4 << 20
)

var ErrNoSessionID = errors.New("upload response has no session_id")

// ClientConfig represents the configuration for a document service client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     log.Logger
}

// Client talks to the remote document chat service.
type Client struct {
	config ClientConfig
	base   *url.URL
	http   *http.Client
	logger log.Logger
}

// NewWithConfig creates a new Client with the given configuration.
func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:5000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "pdfchat"
	}
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config: config,
		base:   base,
		http:   httpClient,
		logger: config.Logger,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

// Upload sends the PDF read from r as a multipart form and returns the
// session the service created for it.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*models.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(FileField, name)
	if err != nil {
		return nil, fmt.Errorf("upload: failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("upload: failed to read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload: failed to finish form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, uploadPath, nil, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.UploadResponse
	if err := c.do(req, "upload", &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, fmt.Errorf("upload: %w", ErrNoSessionID)
	}
	return &out, nil
}

// Status reports the processing status of a session. The service answers
// unknown sessions with 404 and a status body; that status is returned as is.
func (c *Client) Status(ctx context.Context, sessionID string) (models.Status, error) {
	query := url.Values{"session_id": {sessionID}}

	req, err := c.newRequest(ctx, http.MethodGet, statusPath, query, nil)
	if err != nil {
		return "", err
	}

	var out models.StatusResponse
	err = c.do(req, "status", &out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != "" {
		return apiErr.Status, nil
	}
	if err != nil {
		return "", err
	}
	return out.Status, nil
}

// Chat asks the service a question about the session's document.
func (c *Client) Chat(ctx context.Context, sessionID, query string) (string, error) {
	payload, err := json.Marshal(models.ChatRequest{
		SessionID: sessionID,
		Query:     query,
	})
	if err != nil {
		return "", fmt.Errorf("chat: failed to encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, chatPath, nil, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out models.ChatResponse
	if err := c.do(req, "chat", &out); err != nil {
		return "", err
	}
	// The service answers some failures with 200 and an error body.
	if out.Error != "" {
		return "", &APIError{Op: "chat", StatusCode: http.StatusOK, Message: out.Error}
	}
	return out.Response, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	requestID := req.Header.Get("X-Request-ID")

	resp, err := c.http.Do(req)
	if err != nil {
		level.Debug(c.logger).Log("op", op, "method", req.Method, "path", req.URL.Path,
			"request_id", requestID, "err", err, "took", time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	level.Debug(c.logger).Log("op", op, "method", req.Method, "path", req.URL.Path,
		"request_id", requestID, "code", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(op, resp, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
