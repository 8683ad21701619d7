package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voicetrans/internal/logging"
	"voicetrans/internal/services"
	"voicetrans/internal/textrepair"
	"voicetrans/internal/transcript"
)

const (
	createPath            = "translate-voice/create"
	serviceName           = "translate"
	acceptHeader          = "application/json; charset=utf-8"
	defaultHTTPTimeout    = 120 * time.Second
	healthTimeout         = 5 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Config captures the runtime settings required to talk to the service.
type Config struct {
	BaseURL        string
	Token          string
	Model          string
	TimeoutSeconds int
}

// Request describes one translation. Exactly one of Audio or VoiceURL is
// normally set; the server accepts both.
type Request struct {
	Model     string
	AudioName string
	Audio     io.Reader
	VoiceURL  string
}

// Client wraps the translation API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	repairer   *textrepair.Repairer
	logger     *slog.Logger

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

// WithRepairer overrides the text repair applied to response bodies.
func WithRepairer(repairer *textrepair.Repairer) Option {
	return func(c *Client) {
		if repairer != nil {
			c.repairer = repairer
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a translation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Token:          strings.TrimSpace(cfg.Token),
			Model:          strings.TrimSpace(cfg.Model),
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
	client.logger = logging.NewComponentLogger(client.logger, serviceName)
	if client.repairer == nil {
		client.repairer = &textrepair.Repairer{Logger: client.logger}
	}
	return client
}

// Translate uploads the request and returns the decoded, repaired result.
func (c *Client) Translate(ctx context.Context, req Request) (transcript.Result, error) {
	var empty transcript.Result
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.cfg.Model
	}
	if model == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "create", "model required", nil)
	}
	voiceURL := strings.TrimSpace(req.VoiceURL)
	if req.Audio == nil && voiceURL == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "create", "audio file or voice url required", nil)
	}

	body, contentType, err := encodeForm(req, voiceURL, model)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, serviceName, "create", "encode form", err)
	}

	var result transcript.Result
	err = c.withRetry(ctx, "create", func() error {
		result = transcript.Result{}
		payload, err := c.send(ctx, http.MethodPost, createPath, bytes.NewReader(body), contentType)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(payload, &result); err != nil {
			return services.Wrap(services.ErrDecode, serviceName, "create", "decode response", err)
		}
		return nil
	})
	if err != nil {
		return empty, err
	}

	c.logger.Info("translation received",
		logging.String("model", result.Model),
		logging.String("file_name", result.AudioInfo.FileName),
		logging.Bool("complete", result.Storable()),
	)
	return result, nil
}

// HealthCheck pings the service root with a short timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, err := c.send(ctx, http.MethodGet, "", nil, "")
	return err
}

func encodeForm(req Request, voiceURL, model string) ([]byte, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if req.Audio != nil {
		name := filepath.Base(strings.TrimSpace(req.AudioName))
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = "voice"
		}
		part, err := form.CreateFormFile("voice", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, req.Audio); err != nil {
			return nil, "", fmt.Errorf("read audio: %w", err)
		}
	}
	if voiceURL != "" {
		if err := form.WriteField("voice_url", voiceURL); err != nil {
			return nil, "", err
		}
	}
	if err := form.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), form.FormDataContentType(), nil
}

// send performs one request and returns the repaired response body.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, serviceName, path, "build url", err)
	}
	if path == "" && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, serviceName, path, "new request", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	c.logger.Debug("sending request", logging.String("method", method), logging.String("url", endpoint))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		marker := services.ErrTransport
		if isTimeout(err) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, serviceName, method+" "+endpoint, fmt.Sprintf("timeout=%s", c.timeoutDuration()), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, serviceName, method+" "+endpoint, "read body", err)
	}
	repaired := c.repairBody(raw)

	if resp.StatusCode >= http.StatusBadRequest {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, serverMessage(repaired)),
			Body:       strings.TrimSpace(string(repaired)),
			RetryAfter: retryAfter,
		}
		logging.WarnWithContext(c.logger, "request failed", "translate_http_error",
			logging.Int("status", resp.StatusCode),
			logging.String("url", endpoint),
			logging.String("message", statusErr.Message),
			logging.String(logging.FieldImpact, "request not completed"),
		)
		return nil, statusErr
	}
	return repaired, nil
}

// repairBody repairs JSON bodies; anything that is not JSON passes through.
func (c *Client) repairBody(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return raw
	}
	repaired, err := c.repairer.JSON(trimmed)
	if err != nil {
		return raw
	}
	return repaired
}

func serverMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		c.logger.Debug("retrying request",
			logging.String("op", op),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("translate %s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

// retryDelay retries throttling, gateway failures, and timeouts. Other
// failures, including 500, are returned immediately.
func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}
	if errors.Is(err, services.ErrTimeout) {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if base <= 0 {
		return 0
	}
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
