package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// VisionClient calls a vision-language service that describes a burst of
// frames. Frames are sent base64-encoded so the service can run anywhere.
type VisionClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ types.VisionDescriber = (*VisionClient)(nil)

// NewVisionClient builds a client for the given endpoint.
func NewVisionClient(baseURL string, timeout time.Duration) *VisionClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &VisionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type describeRequest struct {
	Frames     []string `json:"frames"` // base64 JPEG
	ASRContext string   `json:"asr_context,omitempty"`
}

type describeResponse struct {
	Description string `json:"description"`
	Error       string `json:"error,omitempty"`
}

// Describe sends the frames and optional transcript context and returns the
// generated visual description.
func (c *VisionClient) Describe(ctx context.Context, framePaths []string, asrContext string) (string, error) {
	timer := logging.StartTimer(logging.CategoryVision, "Describe")
	defer timer.Stop()

	if len(framePaths) == 0 {
		return "", types.Errorf(types.KindDescription, "describe", "no frames provided")
	}

	frames := make([]string, 0, len(framePaths))
	for _, p := range framePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", types.E(types.KindDescription, "describe", fmt.Errorf("failed to read frame %s: %w", p, err))
		}
		frames = append(frames, base64.StdEncoding.EncodeToString(data))
	}

	body, err := json.Marshal(describeRequest{Frames: frames, ASRContext: asrContext})
	if err != nil {
		return "", types.E(types.KindDescription, "describe", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/describe", bytes.NewReader(body))
	if err != nil {
		return "", types.E(types.KindDescription, "describe", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.E(types.KindDescription, "describe", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.E(types.KindDescription, "describe", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.Errorf(types.KindDescription, "describe",
			"service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed describeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", types.E(types.KindDescription, "describe", fmt.Errorf("failed to parse response: %w", err))
	}
	if parsed.Error != "" {
		return "", types.Errorf(types.KindDescription, "describe", "service error: %s", parsed.Error)
	}

	logging.VisionDebug("Described %d frames: %d chars", len(framePaths), len(parsed.Description))
	return strings.TrimSpace(parsed.Description), nil
}
