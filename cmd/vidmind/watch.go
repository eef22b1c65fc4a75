package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vidmind/internal/graph"
	"vidmind/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop folder and ingest media automatically",
	Long: `Watches a directory for new media files. Files are ingested once
they stop changing, so partially copied files are picked up exactly once.
Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "directory to watch (default: config watch.dir or <workspace>/inbox)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	dir := watchDir
	if dir == "" {
		dir = rt.cfg.Watch.Dir
	}
	if dir == "" {
		dir = resolvePath("inbox")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := watch.NewWatcher(dir, rt.cfg.Watch.Debounce, func(ctx context.Context, m watch.IncomingMedia) {
		input := graph.TurnInput{}
		if m.Audio {
			input.AudioPath = m.Path
		} else {
			input.VideoPath = m.Path
		}

		fmt.Println(statusStyle.Render("Ingesting " + m.Path + " ..."))
		state, err := rt.exec.Run(ctx, threadID, input)
		if err != nil {
			logger.Error("drop-folder ingest failed", zap.String("path", m.Path), zap.Error(err))
			fmt.Println(errorStyle.Render("Failed: " + m.Path + ": " + err.Error()))
			return
		}

		status := "transcript indexed"
		if state.VLMProcessed {
			status = "transcript and visual chunks indexed"
		}
		fmt.Printf("%s %s (%s)\n", headerStyle.Render("Done:"), m.Path, status)
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Println(headerStyle.Render("Watching ") + dir + statusStyle.Render("  (Ctrl-C to stop)"))
	<-ctx.Done()

	watcher.Stop()

	stats := watcher.GetStats()
	fmt.Printf("\n%s seen=%d ingested=%d skipped=%d errors=%d\n",
		headerStyle.Render("Session:"), stats.FilesSeen, stats.FilesIngested, stats.FilesSkipped, stats.Errors)
	return nil
}
