package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/teranos/webpify/config"
	"github.com/teranos/webpify/errors"
	"github.com/teranos/webpify/logger"
	"github.com/teranos/webpify/store"
)

// DbCmd represents the db (content store) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the content store",
	Long: `Manage content store operations.

Examples:
  webpify db stats              # Object/field counts and WebP coverage
  webpify db stats --site Docs  # Stats for another site
  webpify db seed ./photos      # Load a directory of images as content`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content statistics and WebP coverage",
	RunE:  runDbStats,
}

var statsSiteFlag string

func init() {
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbSeedCmd)
	dbStatsCmd.Flags().StringVar(&statsSiteFlag, "site", config.DefaultSiteID, "Site id to inspect")
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if cmd.Flags().Changed("site") {
		cfg.Convert.SiteID = statsSiteFlag
	}

	conn, err := store.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open content store")
	}
	defer conn.Close()

	stats, err := conn.Stats(cfg.Convert.SiteID)
	if err != nil {
		return errors.Wrap(err, "failed to gather statistics")
	}

	fmt.Printf("Content Store Statistics\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Printf("Database Path: %s\n", cfg.Database.Path)
	fmt.Printf("Site:          %s\n", cfg.Convert.SiteID)
	fmt.Printf("Total Objects: %d\n", stats.TotalObjects)
	fmt.Println()

	fmt.Printf("Objects by type:\n")
	for _, pt := range sortedKeys(stats.ObjectsByType) {
		fmt.Printf("  %-12s %d\n", pt, stats.ObjectsByType[pt])
	}
	fmt.Println()

	fmt.Printf("Fields by content type:\n")
	for _, ct := range sortedKeys(stats.FieldsByMIME) {
		fmt.Printf("  %-12s %d\n", ct, stats.FieldsByMIME[ct])
	}
	fmt.Println()

	fmt.Printf("WebP coverage: %.1f%% (%d of %d fields)\n",
		stats.WebPCoverage()*100, stats.WebPFields, stats.TotalFields)
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
