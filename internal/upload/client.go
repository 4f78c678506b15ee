package upload

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
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundpack/internal/services"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 3
	defaultGateway        = "https://ipfs.io/ipfs/"
)

// Config captures the pinning service endpoints and credentials.
type Config struct {
	JWT            string
	FileURL        string
	JSONURL        string
	Gateway        string
	TimeoutSeconds int
}

// Pin is the service response for a pinned object.
type Pin struct {
	CID         string `json:"IpfsHash"`
	Size        int64  `json:"PinSize"`
	Timestamp   string `json:"Timestamp"`
	IsDuplicate bool   `json:"isDuplicate,omitempty"`
	// URL is the gateway address for CID.
	URL string `json:"url"`
}

// Uploader publishes local content and returns where it can be fetched.
type Uploader interface {
	PinFile(ctx context.Context, path, name string) (Pin, error)
	PinJSON(ctx context.Context, content any, name string) (Pin, error)
}

// Client is the HTTP Uploader.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a pinning client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			JWT:            strings.TrimSpace(cfg.JWT),
			FileURL:        strings.TrimSpace(cfg.FileURL),
			JSONURL:        strings.TrimSpace(cfg.JSONURL),
			Gateway:        strings.TrimSpace(cfg.Gateway),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.Gateway == "" {
		client.cfg.Gateway = defaultGateway
	}
	if !strings.HasSuffix(client.cfg.Gateway, "/") {
		client.cfg.Gateway += "/"
	}
	return client
}

// GatewayURL returns the fetch URL for cid.
func (c *Client) GatewayURL(cid string) string {
	return c.cfg.Gateway + cid
}

type pinOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinJSONRequest struct {
	Options  pinOptions   `json:"pinataOptions"`
	Content  any          `json:"pinataContent"`
	Metadata *pinMetadata `json:"pinataMetadata,omitempty"`
}

var cidV1 = pinOptions{CIDVersion: 1}

// PinFile uploads the file at path. name labels the pin and defaults to the
// file's base name.
func (c *Client) PinFile(ctx context.Context, path, name string) (Pin, error) {
	if err := c.requireAuth("pin file"); err != nil {
		return Pin{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Pin{}, services.WrapIO("upload", "pin file", path, err)
	}
	if info.IsDir() {
		return Pin{}, services.Wrap(services.ErrValidation, "upload", "pin file", path+" is a directory", nil)
	}
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}
	options, err := json.Marshal(cidV1)
	if err != nil {
		return Pin{}, fmt.Errorf("upload pin file: encode options: %w", err)
	}
	metadata, err := json.Marshal(pinMetadata{Name: name})
	if err != nil {
		return Pin{}, fmt.Errorf("upload pin file: encode metadata: %w", err)
	}

	build := func() (io.ReadCloser, string, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, "", services.WrapIO("upload", "pin file", path, err)
		}
		reader, writer := io.Pipe()
		form := multipart.NewWriter(writer)
		go func() {
			defer file.Close()
			writer.CloseWithError(writeFileForm(form, file, name, options, metadata))
		}()
		return reader, form.FormDataContentType(), nil
	}
	return c.pinWithRetry(ctx, c.cfg.FileURL, build, "upload pin file")
}

func writeFileForm(form *multipart.Writer, file io.Reader, name string, options, metadata []byte) error {
	if err := form.WriteField("pinataOptions", string(options)); err != nil {
		return err
	}
	if err := form.WriteField("pinataMetadata", string(metadata)); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return form.Close()
}

// PinJSON uploads content as a JSON document.
func (c *Client) PinJSON(ctx context.Context, content any, name string) (Pin, error) {
	if err := c.requireAuth("pin json"); err != nil {
		return Pin{}, err
	}
	payload := pinJSONRequest{Options: cidV1, Content: content}
	if name = strings.TrimSpace(name); name != "" {
		payload.Metadata = &pinMetadata{Name: name}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Pin{}, services.Wrap(services.ErrValidation, "upload", "pin json", "encode body", err)
	}
	build := func() (io.ReadCloser, string, error) {
		return io.NopCloser(bytes.NewReader(encoded)), "application/json", nil
	}
	return c.pinWithRetry(ctx, c.cfg.JSONURL, build, "upload pin json")
}

func (c *Client) requireAuth(op string) error {
	if c.cfg.JWT == "" {
		return services.Wrap(services.ErrConfiguration, "upload", op, "jwt required (set upload.jwt or PINATA_JWT)", nil)
	}
	return nil
}

type bodyBuilder func() (io.ReadCloser, string, error)

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("pin request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) pinWithRetry(ctx context.Context, endpoint string, build bodyBuilder, op string) (Pin, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		pin, err := c.pinOnce(ctx, endpoint, build)
		if err == nil {
			return pin, nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return Pin{}, classify(op, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return Pin{}, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return Pin{}, services.Wrap(services.ErrTransient, "upload", op, fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (c *Client) pinOnce(ctx context.Context, endpoint string, build bodyBuilder) (Pin, error) {
	body, contentType, err := build()
	if err != nil {
		return Pin{}, err
	}
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Pin{}, fmt.Errorf("pin request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Pin{}, fmt.Errorf("pin request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Pin{}, fmt.Errorf("pin request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return Pin{}, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(payload),
			RetryAfter: retryAfter,
		}
	}
	var pin Pin
	if err := json.Unmarshal(payload, &pin); err != nil {
		return Pin{}, fmt.Errorf("pin request: decode response: %w", err)
	}
	if strings.TrimSpace(pin.CID) == "" {
		return Pin{}, errors.New("pin request: response missing IpfsHash")
	}
	pin.URL = c.GatewayURL(pin.CID)
	return pin, nil
}

// classify tags terminal failures with a services marker.
func classify(op string, err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrPermission, "upload", op, "pinning service rejected credentials", err)
		default:
			return services.Wrap(services.ErrExternalTool, "upload", op, "", err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrPermission) {
		return err
	}
	return services.Wrap(services.ErrExternalTool, "upload", op, "", err)
}

// CheckAuth calls the service's authentication test endpoint once, without
// retries.
func (c *Client) CheckAuth(ctx context.Context) error {
	if err := c.requireAuth("check auth"); err != nil {
		return err
	}
	endpoint, err := authURL(c.cfg.FileURL)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "upload", "check auth", "file_url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("upload check auth: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "upload", "check auth", "", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return classify("check auth", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	return nil
}

// authURL derives the authentication test endpoint from the pin endpoint's host.
func authURL(pinURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(pinURL))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%q is not an absolute url", pinURL)
	}
	return parsed.Scheme + "://" + parsed.Host + "/data/testAuthentication", nil
}
