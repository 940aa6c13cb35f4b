// Package main analyze and visualize commands.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/pipeline"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
)

func analyzeCmd() *cobra.Command {
	var (
		name   string
		tags   []string
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <photo>",
		Short: "Analyze a room photo and produce a declutter plan",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireAPIKey()

			img, err := readImageFile(args[0])
			if err != nil {
				render.Stderr().Println("Error: %v", err)
				os.Exit(1)
			}

			out, msg := pipe.AnalyzeImage(context.Background(), pipeline.AnalyzeInput{
				Image: img,
				Name:  name,
				Tags:  tags,
				Save:  !noSave,
			})
			if msg != nil {
				exitWithMessage(msg)
			}

			w := render.Stdout()
			w.Print("%s", renderer.Analysis(out.Analysis.Plan, out.Warnings, out.Attempts))
			if out.Session != nil {
				w.Line()
				w.Println("Saved as %q (%s)", out.Session.Name, out.Session.ID)
			}
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Session name (defaults to an auto-generated one)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags for the saved session (repeatable)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Analyze without saving a session")
	return cmd
}

func visualizeCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "visualize <session-id>",
		Short: "Render the decluttered room for a saved session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireAPIKey()

			url, msg := pipe.Visualize(context.Background(), args[0])
			if msg != nil {
				exitWithMessage(msg)
			}

			if outPath != "" {
				if err := writeDataURL(outPath, url); err != nil {
					render.Stderr().Println("Error: %v", err)
					os.Exit(1)
				}
				render.Stdout().Println("Wrote visualization to %s", outPath)
				return
			}
			render.Stdout().Println("Visualization attached to session %s (%d bytes)", args[0], len(url))
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the rendered image to a file")
	return cmd
}
