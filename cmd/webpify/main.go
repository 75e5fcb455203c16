package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/webpify/cmd/webpify/commands"
	"github.com/teranos/webpify/logger"
)

var rootCmd = &cobra.Command{
	Use:   "webpify",
	Short: "webpify - Bulk WebP migration for content-store image fields",
	Long: `webpify - One-time, resumable bulk conversion of stored images to WebP.

webpify walks every content object that may carry an image field,
converts the image to lossy WebP (preserving transparency and
animation), and replaces the stored field in place, committing in
bounded batches. Re-running is safe: already-converted fields are
detected and skipped.

Available commands:
  convert - Run the conversion batch
  db      - Content store operations (stats, seed)
  version - Show version information

Examples:
  webpify convert --dry-run        # Decide and log, write nothing
  webpify convert --quality 80     # Full run at quality 80
  webpify db stats                 # WebP coverage by content type
  webpify db seed ./photos         # Load a directory of images`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(commands.ConvertCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
