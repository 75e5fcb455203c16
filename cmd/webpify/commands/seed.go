package commands

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/webpify/config"
	"github.com/teranos/webpify/errors"
	"github.com/teranos/webpify/logger"
	"github.com/teranos/webpify/store"
)

var dbSeedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Load a directory of image files into the content store",
	Long: `Walk a directory and create one Image content object per image
file found, carrying the file bytes in the object's image field.
Intended for exercising a conversion run against local data.`,
	Args: cobra.ExactArgs(1),
	RunE: runDbSeed,
}

var seedSiteFlag string

// contentTypes maps recognized seed file extensions to declared MIME types.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func init() {
	dbSeedCmd.Flags().StringVar(&seedSiteFlag, "site", config.DefaultSiteID, "Site id to seed into")
}

func runDbSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	conn, err := store.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open content store")
	}
	defer conn.Close()

	root := args[0]
	added := 0
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		mime, ok := contentTypes[ext]
		if !ok {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return errors.Wrapf(err, "read %s", p)
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = d.Name()
		}
		objPath := path.Join("/", seedSiteFlag, filepath.ToSlash(rel))

		_, err = conn.AddObject(seedSiteFlag, objPath, "Image", map[string]store.Field{
			"image": {Data: data, Filename: d.Name(), ContentType: mime},
		})
		if err != nil {
			return err
		}

		added++
		logger.Logger.Infow("Seeded", "path", objPath, "content_type", mime, "bytes", len(data))
		return nil
	})
	if err != nil {
		conn.Abort()
		return errors.Wrap(err, "seeding failed, nothing committed")
	}

	if err := conn.Commit(); err != nil {
		return errors.Wrap(err, "commit seeded content")
	}

	pterm.Success.Printfln("Seeded %d objects into site %s", added, seedSiteFlag)
	return nil
}
