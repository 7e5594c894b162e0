package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"stickygoals/internal/metrics"
)

const (
	DefaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.1-8b-instant"

	// MaxSteps caps how many suggestions are handed back.
	MaxSteps = 5
)

const stepsPrompt = `You are a goal-planning assistant.
Break the user's goal into 3 to 5 short, concrete, actionable steps.
Write one step per line. No introduction, no closing remarks, no blank lines.`

// ErrNoChoices means the provider answered 2xx with nothing to use.
var ErrNoChoices = errors.New("no response from completion provider")

// ProviderError carries the provider's own message for a failed call.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider error (%d): %s", e.Status, e.Message)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithURL(u string) Option { return func(c *Client) { c.url = u } }
func WithModel(m string) Option { return func(c *Client) { c.model = m } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateSteps asks the provider to break goal into steps and returns the
// non-empty lines of its answer. No retries.
func (c *Client) GenerateSteps(ctx context.Context, goal string) ([]string, error) {
	text, err := c.chat(ctx, stepsPrompt, goal)
	if err != nil {
		return nil, err
	}
	steps := SplitSteps(text)
	c.logger.Debug("steps generated", zap.Int("count", len(steps)))
	return steps, nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	b, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordCompletionCall("error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()
	metrics.RecordCompletionCall(fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(body))
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("completion call failed", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return "", &ProviderError{Status: resp.StatusCode, Message: msg}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return out.Choices[0].Message.Content, nil
}

// Markers only count when whitespace follows, so "2.5 km" keeps its number.
var listMarker = regexp.MustCompile(`(?i)^(?:[-*•]+|\d+[.)]|step\s+\d+[:.)]?)\s+`)

// SplitSteps turns free text into at most MaxSteps suggestion strings: one
// per non-empty line, with list markers like "1." or "-" stripped.
func SplitSteps(text string) []string {
	steps := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		steps = append(steps, line)
		if len(steps) == MaxSteps {
			break
		}
	}
	return steps
}
