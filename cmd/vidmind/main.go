// Package main provides the vidmind CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vidmind/internal/chunking"
	"vidmind/internal/config"
	"vidmind/internal/embedding"
	"vidmind/internal/graph"
	"vidmind/internal/logging"
	"vidmind/internal/media"
	"vidmind/internal/nodes"
	"vidmind/internal/services"
	"vidmind/internal/store"
	"vidmind/internal/vision"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose   bool
	workspace string
	threadID  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vidmind",
	Short: "vidmind - multimodal video/audio knowledge base",
	Long: `vidmind ingests video and audio files into a local knowledge base and
answers questions about them.

Media is transcribed, usable speech is chunked along transcript boundaries,
video is described visually, and the fused audio-visual chunks are indexed
for retrieval. A small local LLM handles intent routing and responses.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		if verbose {
			logging.SetDebugMode(true)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory (holds .vidmind/)")
	rootCmd.PersistentFlags().StringVarP(&threadID, "thread", "t", "default", "conversation thread id")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}

// runtime bundles everything a command needs to execute turns.
type runtime struct {
	cfg   config.Config
	store *store.LocalStore
	exec  *graph.Executor
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// resolvePath anchors relative config paths at the workspace.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// buildRuntime loads config and wires the full pipeline.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}

	s, err := store.NewLocalStore(resolvePath(cfg.Store.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}

	if cfg.Embedding.Provider != "" && cfg.Embedding.Provider != "none" {
		engine, err := embedding.NewEngine(embedding.Config{
			Provider:       cfg.Embedding.Provider,
			OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
			OllamaModel:    cfg.Embedding.OllamaModel,
			GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
			GenAIModel:     cfg.Embedding.GenAIModel,
		})
		if err != nil {
			// Keyword search still works without embeddings.
			logger.Warn("embedding engine unavailable, falling back to keyword search", zap.Error(err))
		} else {
			s.SetEmbeddingEngine(engine)
			logger.Debug("embedding engine ready", zap.String("engine", engine.Name()))
		}
	}

	sampler := media.NewFFmpegSampler(resolvePath(cfg.Sampler.FrameDir), cfg.Sampler.Timeout)

	visionClient := services.NewVisionClient(cfg.Services.VisionURL, cfg.Services.RequestTimeout)
	driver := vision.NewDriver(sampler, visionClient)
	driver.FramesPerSecond = cfg.Sampler.FramesPerSecond
	driver.MaxFrames = cfg.Sampler.MaxFrames

	exec := nodes.BuildExecutor(nodes.PipelineDeps{
		Store:       s,
		Transcriber: services.NewTranscriberClient(cfg.Services.TranscriberURL, cfg.Services.RequestTimeout),
		Sampler:     sampler,
		Vision:      driver,
		Generator: services.NewGenerationClient(services.GeneratorConfig{
			BaseURL: cfg.Services.GeneratorURL,
			APIKey:  cfg.Services.APIKey,
			Model:   cfg.Services.GeneratorModel,
			Timeout: cfg.Services.RequestTimeout,
		}),
		Chunking: chunking.Options{
			MaxGapSeconds:  cfg.Chunking.MaxGapSeconds,
			MaxSpanSeconds: cfg.Chunking.MaxSpanSeconds,
			WindowSeconds:  cfg.Chunking.WindowSeconds,
			OverlapSeconds: cfg.Chunking.OverlapSeconds,
		},
		ExportDir:         resolvePath(filepath.Join(".vidmind", "exports")),
		MaxConcurrentRuns: cfg.Executor.MaxConcurrentRuns,
	})

	return &runtime{cfg: cfg, store: s, exec: exec}, nil
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		logger.Warn("failed to close store", zap.Error(err))
	}
}

// elapsed formats durations for status lines.
func elapsed(start time.Time) string {
	return time.Since(start).Round(100 * time.Millisecond).String()
}
