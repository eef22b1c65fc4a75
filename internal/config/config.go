// Package config loads vidmind configuration from .vidmind/config.json with
// environment variable overrides (VIDMIND_*). Missing file means defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Store     StoreConfig     `json:"store"`
	Embedding EmbeddingConfig `json:"embedding"`
	Services  ServicesConfig  `json:"services"`
	Chunking  ChunkingConfig  `json:"chunking"`
	Sampler   SamplerConfig   `json:"sampler"`
	Executor  ExecutorConfig  `json:"executor"`
	Watch     WatchConfig     `json:"watch"`
	Logging   LoggingConfig   `json:"logging"`
}

// StoreConfig configures the SQLite cache.
type StoreConfig struct {
	// Path to the SQLite database file.
	Path string `json:"path"`
}

// EmbeddingConfig selects and configures the embedding engine.
type EmbeddingConfig struct {
	// Provider: "ollama", "genai", or "none" (keyword fallback).
	Provider string `json:"provider"`

	OllamaEndpoint string `json:"ollama_endpoint"`
	OllamaModel    string `json:"ollama_model"`

	GenAIAPIKey string `json:"genai_api_key"`
	GenAIModel  string `json:"genai_model"`
}

// ServicesConfig holds the endpoints of the three external model services.
type ServicesConfig struct {
	TranscriberURL string `json:"transcriber_url"`
	VisionURL      string `json:"vision_url"`
	GeneratorURL   string `json:"generator_url"`
	GeneratorModel string `json:"generator_model"`
	APIKey         string `json:"api_key"`

	// RequestTimeout bounds non-streaming service calls.
	RequestTimeout time.Duration `json:"request_timeout"`
}

// ChunkingConfig carries the chunking constants. Defaults match the tuned
// production values; they exist as config so operators can experiment.
type ChunkingConfig struct {
	MaxGapSeconds  float64 `json:"max_gap_seconds"`
	MaxSpanSeconds float64 `json:"max_span_seconds"`
	WindowSeconds  float64 `json:"window_seconds"`
	OverlapSeconds float64 `json:"overlap_seconds"`
}

// SamplerConfig bounds frame extraction per chunk.
type SamplerConfig struct {
	FramesPerSecond float64       `json:"frames_per_second"`
	MaxFrames       int           `json:"max_frames"`
	FrameDir        string        `json:"frame_dir"`
	Timeout         time.Duration `json:"timeout"`
}

// ExecutorConfig bounds the graph executor.
type ExecutorConfig struct {
	// MaxConcurrentRuns limits conversation threads executing at once.
	MaxConcurrentRuns int `json:"max_concurrent_runs"`
}

// WatchConfig configures the media drop-folder watcher.
type WatchConfig struct {
	Dir      string        `json:"dir"`
	Debounce time.Duration `json:"debounce"`
}

// LoggingConfig mirrors the logging package's expectations.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path: filepath.Join(".vidmind", "knowledge.db"),
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
		},
		Services: ServicesConfig{
			TranscriberURL: "http://localhost:9010",
			VisionURL:      "http://localhost:9020",
			GeneratorURL:   "http://localhost:9030",
			GeneratorModel: "local-slm",
			RequestTimeout: 120 * time.Second,
		},
		Chunking: ChunkingConfig{
			MaxGapSeconds:  0.5,
			MaxSpanSeconds: 10.0,
			WindowSeconds:  4.0,
			OverlapSeconds: 1.0,
		},
		Sampler: SamplerConfig{
			FramesPerSecond: 1.0,
			MaxFrames:       8,
			FrameDir:        filepath.Join(".vidmind", "frames"),
			Timeout:         30 * time.Second,
		},
		Executor: ExecutorConfig{
			MaxConcurrentRuns: 2,
		},
		Watch: WatchConfig{
			Dir:      "",
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads config from the workspace, applying env overrides on top.
// A missing file is not an error; defaults are used.
func Load(workspace string) (Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, ".vidmind", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VIDMIND_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("VIDMIND_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("VIDMIND_OLLAMA_ENDPOINT"); v != "" {
		c.Embedding.OllamaEndpoint = v
	}
	if v := os.Getenv("VIDMIND_GENAI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
	}
	if v := os.Getenv("VIDMIND_TRANSCRIBER_URL"); v != "" {
		c.Services.TranscriberURL = v
	}
	if v := os.Getenv("VIDMIND_VISION_URL"); v != "" {
		c.Services.VisionURL = v
	}
	if v := os.Getenv("VIDMIND_GENERATOR_URL"); v != "" {
		c.Services.GeneratorURL = v
	}
	if v := os.Getenv("VIDMIND_API_KEY"); v != "" {
		c.Services.APIKey = v
	}
	if v := os.Getenv("VIDMIND_WATCH_DIR"); v != "" {
		c.Watch.Dir = v
	}
	if v := os.Getenv("VIDMIND_MAX_CONCURRENT_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Executor.MaxConcurrentRuns = n
		}
	}
	if v := os.Getenv("VIDMIND_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Chunking.MaxGapSeconds < 0 || c.Chunking.MaxSpanSeconds <= 0 {
		return fmt.Errorf("invalid chunking config: gap=%v span=%v", c.Chunking.MaxGapSeconds, c.Chunking.MaxSpanSeconds)
	}
	if c.Chunking.OverlapSeconds >= c.Chunking.WindowSeconds {
		return fmt.Errorf("chunking overlap (%v) must be smaller than window (%v)", c.Chunking.OverlapSeconds, c.Chunking.WindowSeconds)
	}
	if c.Sampler.MaxFrames <= 0 {
		return fmt.Errorf("sampler.max_frames must be positive")
	}
	if c.Executor.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("executor.max_concurrent_runs must be positive")
	}
	return nil
}
