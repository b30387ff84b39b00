// Package llm calls the local model service through its Ollama-style
// chat endpoint, with bounded retries and a hard per-attempt timeout.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/recetario/backend/internal/logger"
)

// Failure classes surfaced to callers.
var (
	// ErrUnavailable: transport failure or transient server fault,
	// surfaced after retries are exhausted.
	ErrUnavailable = errors.New("model service unavailable")
	// ErrTimeout: an attempt exceeded the hard per-attempt deadline.
	ErrTimeout = errors.New("model call timed out")
	// ErrProtocol: the service answered in a way retrying cannot fix.
	ErrProtocol = errors.New("model service protocol error")
)

const (
	chatPath = "/api/chat"

	// maxRetries is on top of the initial attempt: 3 attempts total.
	maxRetries = 2

	defaultAttemptTimeout = 120 * time.Second
	defaultBackoffStep    = time.Second
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   string    `json:"format"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Client talks to the model service.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     *logger.Logger

	attemptTimeout time.Duration
	backoffStep    time.Duration
}

// NewClient creates a new Client instance
func NewClient(baseURL, model string, log *logger.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		http:           &http.Client{},
		log:            log.WithComponent("llm"),
		attemptTimeout: defaultAttemptTimeout,
		backoffStep:    defaultBackoffStep,
	}
}

// linearBackOff sleeps step before the second attempt, 2*step before the
// third, and so on.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Chat sends the two-message prompt and returns the raw model text.
// HTTP 500, transport failures and attempt timeouts are retried up to
// maxRetries times; any other non-2xx status fails immediately. The last
// observed failure is returned once attempts are exhausted.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProtocol, err)
	}

	var content string
	attempt := 0
	operation := func() error {
		attempt++
		reply, err := c.attempt(ctx, payload)
		if err != nil {
			c.log.WithError(err).WithField("attempt", attempt).Warn("model call attempt failed")
			return err
		}
		content = reply
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.backoffStep}, maxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) attempt(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: build request: %v", ErrProtocol, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.attemptTimeout)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusInternalServerError:
		// Transient server fault assumed; worth retrying.
		return "", fmt.Errorf("%w: status 500: %s", ErrUnavailable, snippet(body))
	case resp.StatusCode/100 != 2:
		return "", backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrProtocol, resp.StatusCode, snippet(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: decode envelope: %v", ErrProtocol, err))
	}
	if parsed.Message.Content == "" {
		return "", backoff.Permanent(fmt.Errorf("%w: empty message content", ErrProtocol))
	}
	return parsed.Message.Content, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
