// Package main follow-up chat command.
package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <session-id> <message...>",
		Short: "Ask a follow-up question about a saved analysis",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			requireAPIKey()

			text := strings.Join(args[1:], " ")
			out, msg := pipe.SendChat(context.Background(), args[0], text)
			if msg != nil {
				exitWithMessage(msg)
			}
			render.Stdout().Println("%s", out.Reply.Text)
		},
	}
}
