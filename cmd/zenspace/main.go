// Package main provides the ZenSpace CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/config"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/gemini"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/kv"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/pipeline"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/ratelimit"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/retry"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/session"
)

var (
	version = "0.1.0"
	pretty  = true

	store    kv.Store
	sessions *session.Store
	limiter  *ratelimit.Limiter
	breaker  *retry.Breaker
	pipe     *pipeline.Pipeline
	renderer *render.Renderer
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zenspace",
		Short: "ZenSpace - AI room declutter assistant",
		Long: `ZenSpace analyzes photos of cluttered rooms and produces practical
declutter plans, with follow-up chat and before/after visualization.

Use 'zenspace analyze <photo>' to analyze a room.
Use 'zenspace sessions' to manage saved analyses.
Use 'zenspace status' to inspect rate-limit and storage state.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env := config.Env()

			var err error
			store, err = kv.OpenWithQuota(env.DataDir, env.StorageQuota)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}

			sessions = session.NewStore(store)
			limiter = ratelimit.New(store, ratelimit.Options{
				MaxTokens:  env.MaxTokens,
				RefillRate: env.RefillRate,
			})
			breaker = retry.NewBreaker(retry.DefaultFailureThreshold, retry.DefaultResetAfter)
			renderer = render.New(pretty)

			retryCfg := retry.APIConfig()
			retryCfg.MaxRetries = env.MaxRetries

			client := gemini.NewGoogle(env.APIKey, env.Model)
			pipe = pipeline.New(client, limiter, breaker, sessions,
				pipeline.WithRetryConfig(retryCfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if store != nil {
				store.Close()
			}
		},
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", isTTY, "Pretty print output")

	rootCmd.AddCommand(
		analyzeCmd(),
		chatCmd(),
		visualizeCmd(),
		sessionsCmd(),
		statusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
