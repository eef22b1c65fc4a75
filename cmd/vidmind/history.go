package main

import (
	"context"
	"fmt"

	"vidmind/internal/types"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation history for a thread",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	messages, err := rt.exec.History(context.Background(), threadID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(messages) == 0 {
		fmt.Println(statusStyle.Render("No history for thread " + threadID))
		return nil
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleUser:
			fmt.Println(promptStyle.Render("you> ") + msg.Content)
		case types.RoleAssistant:
			fmt.Println(assistantStyle.Render("vidmind> ") + msg.Content)
		default:
			fmt.Println(statusStyle.Render(string(msg.Role)+"> ") + msg.Content)
		}
	}
	return nil
}
