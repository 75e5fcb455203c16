// Package convert drives the bulk conversion of stored image fields to
// WebP: a per-object field converter, a sequential batch driver with
// explicit commit boundaries, and the run counters.
package convert

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/webpify/config"
	"github.com/teranos/webpify/store"
	"github.com/teranos/webpify/transcode"
)

// CandidateFields are the field names a content object may carry an
// image under, checked in this order.
var CandidateFields = []string{"image", "event_image", "lead_image"}

// PortalTypes are the content types that may carry image fields.
var PortalTypes = []string{"Image", "News Item", "Event", "File", "Document"}

// ConvertFields converts every candidate image field on one object.
// Returns whether at least one field was actually rewritten.
//
// Per-field conversion failures are logged and do not abort the object;
// a store error (including a conflict) is returned to the caller, which
// owns the transaction-segment decision. A failed reindex is logged at
// debug level only — it is catalog bookkeeping, not data loss.
func ConvertFields(st FieldWriter, obj *store.Object, cfg *config.Config, log *zap.SugaredLogger) (bool, error) {
	changed := false

	for _, name := range CandidateFields {
		field, ok := obj.GetField(name)
		if !ok {
			continue
		}
		if len(field.Data) == 0 {
			continue
		}

		// Idempotence guard: a re-run must skip what it already converted
		if strings.EqualFold(field.ContentType, transcode.MIMEType) {
			log.Infow("SKIP already webp", "path", obj.Path, "field", name)
			continue
		}

		res := transcode.Transcode(field.Data, cfg.Convert.Quality)
		if res.Failed() {
			log.Warnw("Conversion failed",
				"path", obj.Path,
				"field", name,
				"reason", res.Reason,
				"error", res.Err,
			)
			continue
		}
		if !res.Converted() {
			log.Infow("SKIP "+res.Reason, "path", obj.Path, "field", name)
			continue
		}

		newName := webpFilename(field.Filename)
		log.Infow("CONVERT",
			"path", obj.Path,
			"field", name,
			"filename", newName,
			"kind", res.Kind.String(),
			"quality", cfg.Convert.Quality,
			"dry_run", cfg.Convert.DryRun,
		)

		if cfg.Convert.DryRun {
			continue
		}

		err := st.SetField(obj, name, store.Field{
			Data:        res.Data,
			Filename:    newName,
			ContentType: transcode.MIMEType,
		})
		if err != nil {
			return changed, err
		}
		changed = true
	}

	// Reindex once after all fields, so the catalog reflects every
	// converted field rather than just the first
	if changed && !cfg.Convert.DryRun {
		if err := st.Reindex(obj); err != nil {
			log.Debugw("Reindex failed", "path", obj.Path, "error", err)
		}
	}

	return changed, nil
}

// webpFilename derives the output filename: strip the last extension,
// append .webp. An empty stored filename falls back to "image".
func webpFilename(original string) string {
	name := original
	if name == "" {
		name = "image"
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name + transcode.Extension
}
