package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dastanaron/xbelmarks/internal/commands"
	"github.com/dastanaron/xbelmarks/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and edit bookmarks in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(s *session) error {
		return ui.NewApp(s.svc, s.log).Run()
	})
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import bookmarks from an XBEL or HTML file",
	Long:  "Import bookmarks from FILE. Files ending in .html or .htm are read as browser HTML exports, anything else as XBEL 1.0. The stored bookmarks are replaced unless --merge is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		merge, _ := cmd.Flags().GetBool("merge")
		return withSession(cmd, func(s *session) error {
			c := commands.NewImportCommand(s.svc, cmd.OutOrStdout(), s.log)
			c.Merge = merge
			if err := c.Execute(args[0]); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export bookmarks to an XBEL or HTML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := commands.NewExportCommand(s.svc, cmd.OutOrStdout(), s.log).Execute(args[0]); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			return nil
		})
	},
}

var clearDoublesCmd = &cobra.Command{
	Use:   "clear-doubles",
	Short: "Remove duplicate bookmarks (same URL)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := commands.NewClearDoublesCommand(s.svc, cmd.OutOrStdout(), s.log).Execute(); err != nil {
				return fmt.Errorf("clear doubles failed: %w", err)
			}
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list [QUERY]",
	Short: "Print the bookmark tree, or the bookmarks matching QUERY",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		return withSession(cmd, func(s *session) error {
			return commands.NewListCommand(s.svc, cmd.OutOrStdout()).Execute(query)
		})
	},
}

func init() {
	importCmd.Flags().Bool("merge", false, "append to the stored bookmarks instead of replacing them")

	rootCmd.AddCommand(browseCmd, importCmd, exportCmd, clearDoublesCmd, listCmd)
}
