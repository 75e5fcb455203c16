package store

import (
	"github.com/teranos/webpify/errors"
)

// Stats summarizes store contents for the db stats command.
type Stats struct {
	ObjectsByType map[string]int
	FieldsByMIME  map[string]int
	TotalObjects  int
	TotalFields   int
	WebPFields    int
}

// WebPCoverage returns the fraction of binary fields already in WebP.
func (s Stats) WebPCoverage() float64 {
	if s.TotalFields == 0 {
		return 0
	}
	return float64(s.WebPFields) / float64(s.TotalFields)
}

// Stats gathers content statistics for one site.
func (c *Conn) Stats(siteID string) (Stats, error) {
	stats := Stats{
		ObjectsByType: make(map[string]int),
		FieldsByMIME:  make(map[string]int),
	}

	rows, err := c.tx.Query(
		"SELECT portal_type, COUNT(*) FROM objects WHERE site_id = ? GROUP BY portal_type", siteID,
	)
	if err != nil {
		return stats, errors.Wrap(err, "count objects")
	}
	defer rows.Close()
	for rows.Next() {
		var pt string
		var n int
		if err := rows.Scan(&pt, &n); err != nil {
			return stats, errors.Wrap(err, "scan object count")
		}
		stats.ObjectsByType[pt] = n
		stats.TotalObjects += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	fieldRows, err := c.tx.Query(`
		SELECT f.content_type, COUNT(*)
		FROM fields f JOIN objects o ON o.id = f.object_id
		WHERE o.site_id = ? AND f.data IS NOT NULL
		GROUP BY f.content_type
	`, siteID)
	if err != nil {
		return stats, errors.Wrap(err, "count fields")
	}
	defer fieldRows.Close()
	for fieldRows.Next() {
		var ct string
		var n int
		if err := fieldRows.Scan(&ct, &n); err != nil {
			return stats, errors.Wrap(err, "scan field count")
		}
		stats.FieldsByMIME[ct] = n
		stats.TotalFields += n
		if ct == "image/webp" {
			stats.WebPFields += n
		}
	}
	return stats, fieldRows.Err()
}
