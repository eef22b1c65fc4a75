// Package services holds the HTTP clients for the external model services:
// speech-to-text, vision description, and text generation. Each client
// implements the matching contract from the types package so the pipeline
// never depends on a concrete backend.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// TranscriberClient calls a speech-to-text service over HTTP. The service
// shares a filesystem with this process, so requests carry the media path
// rather than the media bytes.
type TranscriberClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ types.Transcriber = (*TranscriberClient)(nil)

// NewTranscriberClient builds a client for the given endpoint.
func NewTranscriberClient(baseURL string, timeout time.Duration) *TranscriberClient {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &TranscriberClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transcribeRequest struct {
	MediaPath string `json:"media_path"`
}

type transcribeResponse struct {
	Text     string                    `json:"text"`
	Segments []types.TranscriptSegment `json:"segments"`
	Error    string                    `json:"error,omitempty"`
}

// Transcribe runs speech-to-text on the media file.
func (c *TranscriberClient) Transcribe(ctx context.Context, mediaPath string) (*types.Transcription, error) {
	timer := logging.StartTimer(logging.CategoryASR, "Transcribe")
	defer timer.Stop()

	logging.ASR("Transcribing %s", filepath.Base(mediaPath))

	body, err := json.Marshal(transcribeRequest{MediaPath: mediaPath})
	if err != nil {
		return nil, types.E(types.KindTranscription, "transcribe", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, types.E(types.KindTranscription, "transcribe", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.E(types.KindTranscription, "transcribe", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.E(types.KindTranscription, "transcribe", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.Errorf(types.KindTranscription, "transcribe",
			"service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, types.E(types.KindTranscription, "transcribe", fmt.Errorf("failed to parse response: %w", err))
	}
	if parsed.Error != "" {
		return nil, types.Errorf(types.KindTranscription, "transcribe", "service error: %s", parsed.Error)
	}

	logging.ASR("Transcription returned %d segments, %d chars", len(parsed.Segments), len(parsed.Text))
	return &types.Transcription{
		FullText: parsed.Text,
		Segments: parsed.Segments,
	}, nil
}
