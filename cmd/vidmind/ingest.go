package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidmind/internal/graph"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [media-file...]",
	Short: "Ingest media files into the knowledge base",
	Long: `Runs the full processing pipeline for each file: transcription,
usability analysis, chunking, visual description and fusion. Results are
cached by content hash, so re-ingesting an unchanged file is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		input := graph.TurnInput{}
		if err := attachMedia(&input, path); err != nil {
			fmt.Println(errorStyle.Render("Skipping " + path + ": " + err.Error()))
			continue
		}

		start := time.Now()
		fmt.Println(statusStyle.Render("Ingesting " + path + " ..."))

		state, err := rt.exec.Run(ctx, threadID, input)
		if err != nil {
			logger.Error("ingest failed", zap.String("path", path), zap.Error(err))
			fmt.Println(errorStyle.Render("Failed: " + err.Error()))
			continue
		}

		status := "transcript indexed"
		if state.VLMProcessed {
			status = "transcript and visual chunks indexed"
		}
		fmt.Printf("%s %s (%s, %s)\n", headerStyle.Render("Done:"), path, status, elapsed(start))
	}
	return nil
}
