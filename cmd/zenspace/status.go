// Package main status and reset commands.
package main

import (
	"github.com/spf13/cobra"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show rate limit, circuit, and storage state",
		Run: func(cmd *cobra.Command, args []string) {
			render.Stdout().Print("%s", renderer.Status(limiter, breaker.Snapshot(), sessions.Info()))
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the rate limiter and circuit breaker",
		Run: func(cmd *cobra.Command, args []string) {
			limiter.Reset()
			breaker.Reset()
			render.Stdout().Println("Rate limiter and circuit breaker reset")
		},
	}

	cmd.AddCommand(resetCmd)
	return cmd
}
