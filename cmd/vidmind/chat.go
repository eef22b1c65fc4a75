package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vidmind/internal/graph"
	"vidmind/internal/media"
	"vidmind/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat over your indexed media",
	Long: `Starts a REPL on the selected thread. Messages are classified and
answered from the knowledge base; response tokens stream as they arrive.

In-session commands:
  /load <path>   ingest a media file into this thread
  /quit          exit`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Println(headerStyle.Render("vidmind") + statusStyle.Render("  thread: "+threadID))
	fmt.Println(statusStyle.Render("Type a message, /load <path> to ingest media, /quit to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		input := graph.TurnInput{}
		if path, ok := strings.CutPrefix(line, "/load "); ok {
			if err := attachMedia(&input, strings.TrimSpace(path)); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
				continue
			}
		} else {
			input.UserMessage = line
		}

		if err := runTurn(ctx, rt, input); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
		}
	}
}

// attachMedia routes a file path to the audio or video input slot.
func attachMedia(input *graph.TurnInput, path string) error {
	kind, err := media.DetectKind(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if kind == types.MediaKindAudio {
		input.AudioPath = path
	} else {
		input.VideoPath = path
	}
	return nil
}

// runTurn executes one turn and streams response tokens to stdout.
func runTurn(ctx context.Context, rt *runtime, input graph.TurnInput) error {
	start := time.Now()

	printedPrefix := false
	ctx = graph.WithTokenCallback(ctx, func(token string) {
		if !printedPrefix {
			fmt.Print(assistantStyle.Render("vidmind> "))
			printedPrefix = true
		}
		fmt.Print(token)
	})

	state, err := rt.exec.Run(ctx, threadID, input)
	if err != nil {
		if errors.Is(err, graph.ErrThreadBusy) {
			return fmt.Errorf("thread %s is still processing a previous turn", threadID)
		}
		return err
	}
	if printedPrefix {
		fmt.Println()
	} else if len(state.Messages) > 0 {
		// Turns that end without a response stage (e.g. media-only ingest)
		// still produced status messages worth showing.
		last := state.Messages[len(state.Messages)-1]
		fmt.Println(assistantStyle.Render("vidmind> ") + last.Content)
	}

	fmt.Println(statusStyle.Render("(" + elapsed(start) + ")"))
	return nil
}
