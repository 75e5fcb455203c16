package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/webpify/config"
	"github.com/teranos/webpify/convert"
	"github.com/teranos/webpify/errors"
	"github.com/teranos/webpify/logger"
	"github.com/teranos/webpify/progress"
	"github.com/teranos/webpify/store"
)

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert all stored image fields to WebP",
	Long: `Run the conversion batch over every image-bearing content object.

Conversion is lossy WebP only. Transparency and animation survive the
conversion; fields already in WebP are skipped, so re-runs are cheap
and safe. Work commits in bounded segments and a conflicted object is
skipped for this run rather than retried.

Examples:
  webpify convert                     # Full run with configured settings
  webpify convert --dry-run           # Log intended changes, write nothing
  webpify convert --quality 70        # Override encode quality
  webpify convert --commit-every 250  # Larger transaction segments
  webpify convert --site Intranet     # Target a different site`,
	RunE: runConvert,
}

var (
	qualityFlag     int
	dryRunFlag      bool
	commitEveryFlag int
	siteFlag        string
	packAfterFlag   bool
)

func init() {
	ConvertCmd.Flags().IntVar(&qualityFlag, "quality", config.DefaultQuality, "Lossy WebP quality (0-100)")
	ConvertCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Decide and log but write nothing")
	ConvertCmd.Flags().IntVar(&commitEveryFlag, "commit-every", config.DefaultCommitEvery, "Commit every N objects")
	ConvertCmd.Flags().StringVar(&siteFlag, "site", config.DefaultSiteID, "Site id to convert")
	ConvertCmd.Flags().BoolVar(&packAfterFlag, "pack-after", false, "Compact the store after the run (default: unless --dry-run)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Flags override file/env values only when explicitly set
	if cmd.Flags().Changed("quality") {
		cfg.Convert.Quality = qualityFlag
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Convert.DryRun = dryRunFlag
		if !cmd.Flags().Changed("pack-after") {
			cfg.Convert.PackAfter = !dryRunFlag
		}
	}
	if cmd.Flags().Changed("commit-every") {
		cfg.Convert.CommitEvery = commitEveryFlag
	}
	if cmd.Flags().Changed("site") {
		cfg.Convert.SiteID = siteFlag
	}
	if cmd.Flags().Changed("pack-after") {
		cfg.Convert.PackAfter = packAfterFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if cfg.Log.Dir != "" {
		logPath, err := logger.InitializeWithFile(jsonOutput, cfg.Log.Dir)
		if err != nil {
			return errors.Wrap(err, "failed to initialize run log")
		}
		logger.Logger.Infow("Run log opened", "path", logPath)
	}

	conn, err := store.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open content store")
	}
	defer conn.Close()

	logger.Logger.Infow("Using site", "site_id", cfg.Convert.SiteID)
	if cfg.Convert.DryRun {
		pterm.Info.Println("Dry run: no writes, commits, or compaction will occur")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := progress.NewReporter(os.Stdout, logger.Logger, cfg.Log.Every, time.Now())
	driver := convert.NewDriver(conn, cfg, logger.Logger, reporter)

	stats, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	summary := pterm.Sprintf("%d converted, %d skipped, %d failed", stats.Processed, stats.Skipped, stats.Failed)
	if stats.Failed > 0 {
		pterm.Warning.Println(summary)
	} else {
		pterm.Success.Println(summary)
	}
	return nil
}
