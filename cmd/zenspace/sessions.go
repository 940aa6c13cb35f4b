// Package main session management commands.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved room analyses",
		Run: func(cmd *cobra.Command, args []string) {
			render.Stdout().Print("%s", renderer.Sessions(sessions.Metadata()))
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session in full",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess := sessions.Get(args[0])
			if sess == nil {
				render.Stderr().Println("No session %q", args[0])
				os.Exit(1)
			}
			render.Stdout().Print("%s", renderer.SessionDetail(sess))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !sessions.Delete(args[0]) {
				render.Stderr().Println("No session %q", args[0])
				os.Exit(1)
			}
			render.Stdout().Println("Deleted %s", args[0])
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <session-id> <name>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if !sessions.Rename(args[0], args[1]) {
				render.Stderr().Println("No session %q", args[0])
				os.Exit(1)
			}
			render.Stdout().Println("Renamed %s to %q", args[0], args[1])
		},
	}

	tagCmd := &cobra.Command{
		Use:   "tag <session-id> [tags...]",
		Short: "Replace a session's tags",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !sessions.UpdateTags(args[0], args[1:]) {
				render.Stderr().Println("No session %q", args[0])
				os.Exit(1)
			}
			render.Stdout().Println("Tagged %s: %s", args[0], strings.Join(args[1:], ", "))
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <session-id> [file]",
		Short: "Export a session as JSON",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			data, ok := sessions.Export(args[0])
			if !ok {
				render.Stderr().Println("No session %q", args[0])
				os.Exit(1)
			}
			if len(args) == 2 {
				if err := os.WriteFile(args[1], []byte(data), 0o644); err != nil {
					render.Stderr().Println("Error: %v", err)
					os.Exit(1)
				}
				render.Stdout().Println("Exported to %s", args[1])
				return
			}
			render.Stdout().Println("%s", data)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				render.Stderr().Println("Error: %v", err)
				os.Exit(1)
			}
			sess := sessions.Import(string(data))
			if sess == nil {
				render.Stderr().Println("Not a valid session export: %s", args[0])
				os.Exit(1)
			}
			render.Stdout().Println("Imported %q as %s", sess.Name, sess.ID)
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search sessions by name or tag",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			render.Stdout().Print("%s", renderer.Sessions(sessions.Search(args[0])))
		},
	}

	var force bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved sessions",
		Run: func(cmd *cobra.Command, args []string) {
			if !force {
				render.Stderr().Println("Refusing to clear without --force")
				os.Exit(1)
			}
			if err := sessions.Clear(); err != nil {
				render.Stderr().Println("Error: %v", err)
				os.Exit(1)
			}
			render.Stdout().Println("Cleared all sessions")
		},
	}
	clearCmd.Flags().BoolVar(&force, "force", false, "Confirm deleting everything")

	cmd.AddCommand(showCmd, deleteCmd, renameCmd, tagCmd, exportCmd, importCmd, searchCmd, clearCmd)
	return cmd
}
