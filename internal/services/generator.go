package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

const defaultSystemPrompt = "You are a helpful assistant for understanding video and audio content. " +
	"Answer based on the provided context when it is available, and say so when it is not."

// GeneratorConfig configures the text generation client.
type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GenerationClient talks to an OpenAI-compatible chat completions endpoint.
// It satisfies types.TextGenerator for both blocking and streaming use.
type GenerationClient struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

var _ types.TextGenerator = (*GenerationClient)(nil)

// NewGenerationClient builds a client from config, applying defaults.
func NewGenerationClient(cfg GeneratorConfig) *GenerationClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &GenerationClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *wireMessage `json:"message,omitempty"`
		Delta   *wireMessage `json:"delta,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// toWire maps conversation history onto the chat completions wire format.
// Tool messages are downgraded to labeled user messages since most serving
// stacks reject the tool role without tool-call ids. A system prompt is
// prepended when the history carries none.
func toWire(messages []types.Message) []wireMessage {
	wire := make([]wireMessage, 0, len(messages)+1)

	hasSystem := false
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			hasSystem = true
			break
		}
	}
	if !hasSystem {
		wire = append(wire, wireMessage{Role: "system", Content: defaultSystemPrompt})
	}

	for _, m := range messages {
		switch m.Role {
		case types.RoleTool:
			wire = append(wire, wireMessage{Role: "user", Content: "Tool output: " + m.Content})
		default:
			wire = append(wire, wireMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	return wire
}

// throttle spaces requests at least 100ms apart.
func (c *GenerationClient) throttle() {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

// Generate sends the conversation and returns the full completion.
func (c *GenerationClient) Generate(ctx context.Context, messages []types.Message) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[Generator] Generate: model=%s messages=%d", c.model, len(messages))

	c.throttle()

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    toWire(messages),
		MaxTokens:   2048,
		Temperature: 0.7,
	}

	maxRetries := 3
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		body, err := c.post(ctx, reqBody)
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return "", types.E(types.KindGeneration, "generate", err)
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", types.E(types.KindGeneration, "generate", fmt.Errorf("failed to parse response: %w", err))
		}
		if parsed.Error != nil {
			return "", types.Errorf(types.KindGeneration, "generate", "API error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
			return "", types.Errorf(types.KindGeneration, "generate", "no completion returned")
		}

		response := strings.TrimSpace(parsed.Choices[0].Message.Content)
		logging.API("[Generator] Generate: completed in %v response_len=%d", time.Since(startTime), len(response))
		return response, nil
	}

	return "", types.E(types.KindGeneration, "generate", fmt.Errorf("max retries exceeded: %w", lastErr))
}

// GenerateStream sends the conversation with streaming enabled and returns
// token and error channels. Both close when the stream finishes; the error
// channel receives at most one error.
func (c *GenerationClient) GenerateStream(ctx context.Context, messages []types.Message) (<-chan string, <-chan error) {
	tokenChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	logging.StreamDebug("[Generator] GenerateStream: starting model=%s messages=%d", c.model, len(messages))

	go func() {
		defer close(tokenChan)
		defer close(errorChan)

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
			defer cancel()
		}

		startTime := time.Now()
		c.throttle()

		reqBody := chatRequest{
			Model:       c.model,
			Messages:    toWire(messages),
			MaxTokens:   2048,
			Temperature: 0.7,
			Stream:      true,
		}

		maxRetries := 3
		var lastErr error

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
			}

			jsonData, err := json.Marshal(reqBody)
			if err != nil {
				errorChan <- types.E(types.KindGeneration, "generate_stream", fmt.Errorf("failed to marshal request: %w", err))
				return
			}

			req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
			if err != nil {
				errorChan <- types.E(types.KindGeneration, "generate_stream", fmt.Errorf("failed to create request: %w", err))
				return
			}
			req.Header.Set("Content-Type", "application/json")
			if c.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+c.apiKey)
			}
			req.Header.Set("Accept", "text/event-stream")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = fmt.Errorf("request failed: %w", err)
				continue
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				lastErr = fmt.Errorf("rate limit exceeded (429): %s", strings.TrimSpace(string(body)))
				continue
			}
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				errorChan <- types.Errorf(types.KindGeneration, "generate_stream",
					"API request failed with status %d: %s", resp.StatusCode, string(body))
				return
			}

			err = c.consumeStream(ctx, resp, tokenChan)
			resp.Body.Close()
			if err != nil {
				logging.Stream("[Generator] GenerateStream: stream error after %v: %v", time.Since(startTime), err)
				errorChan <- err
			} else {
				logging.Stream("[Generator] GenerateStream: completed in %v", time.Since(startTime))
			}
			return
		}

		errorChan <- types.E(types.KindGeneration, "generate_stream", fmt.Errorf("max retries exceeded: %w", lastErr))
	}()

	return tokenChan, errorChan
}

// consumeStream parses SSE lines and forwards content deltas.
func (c *GenerationClient) consumeStream(ctx context.Context, resp *http.Response, tokenChan chan<- string) error {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return types.Errorf(types.KindGeneration, "generate_stream", "API error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil {
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case tokenChan <- delta:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return types.E(types.KindGeneration, "generate_stream", err)
	}
	return nil
}

// post marshals and sends a non-streaming request, returning the body.
func (c *GenerationClient) post(ctx context.Context, reqBody chatRequest) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retryableError{fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryableError{fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retryableError{fmt.Errorf("rate limit exceeded (429)")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(retryableError)
	return ok
}

// SetModel changes the model used for completions.
func (c *GenerationClient) SetModel(model string) {
	c.model = model
}
