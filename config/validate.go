package config

import "github.com/teranos/webpify/errors"

// Validate checks configuration invariants that defaults alone cannot
// guarantee, since files, environment, and flags can all override them.
func (c *Config) Validate() error {
	if c.Convert.Quality < 0 || c.Convert.Quality > 100 {
		return errors.Newf("convert.quality must be in [0, 100], got %d", c.Convert.Quality)
	}
	if c.Convert.CommitEvery <= 0 {
		return errors.Newf("convert.commit_every must be > 0, got %d", c.Convert.CommitEvery)
	}
	if c.Convert.SiteID == "" {
		return errors.New("convert.site_id must not be empty")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Log.Every <= 0 {
		return errors.Newf("log.every must be > 0, got %d", c.Log.Every)
	}
	return nil
}
