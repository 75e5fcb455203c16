// Package store implements the transactional content store backing a
// conversion run: addressable objects carrying named binary fields, a
// catalog search, and explicit commit/abort/compaction over one sqlite
// connection.
//
// A Conn holds exactly one open transaction at a time. All reads and
// writes go through it; Commit and Abort end the current segment and
// open a fresh one, so the caller fully controls transaction boundaries.
// Field writes use optimistic versioning: writing against a version that
// another writer has advanced fails with a conflict, never silently
// overwrites.
package store

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/webpify/errors"
)

// Handle is a lightweight reference to a content object, as returned by
// the catalog. Dereference loads the full object.
type Handle struct {
	ID   string
	Path string
}

// Field is one named binary slot on a content object.
type Field struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Object is a dereferenced content object with its fields loaded.
type Object struct {
	ID         string
	SiteID     string
	Path       string
	PortalType string
	Version    int64

	fields map[string]Field
}

// NewObject constructs an in-memory object. The store's Dereference is
// the usual source of objects; this exists for seeding and for test
// doubles of the store.
func NewObject(id, siteID, path, portalType string, fields map[string]Field) *Object {
	o := &Object{
		ID:         id,
		SiteID:     siteID,
		Path:       path,
		PortalType: portalType,
		fields:     make(map[string]Field, len(fields)),
	}
	for name, f := range fields {
		o.fields[name] = f
	}
	return o
}

// GetField returns the named field and whether it exists.
func (o *Object) GetField(name string) (Field, bool) {
	f, ok := o.fields[name]
	return f, ok
}

// PutField updates the in-memory snapshot only. Store implementations
// call it after a successful persistent write; it performs no write
// itself.
func (o *Object) PutField(name string, f Field) {
	o.fields[name] = f
}

// FieldNames returns the names of all fields present on the object.
func (o *Object) FieldNames() []string {
	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	return names
}

// Conn is a transactional connection to the content store.
// Not safe for concurrent use; a conversion run is its sole writer.
type Conn struct {
	db     *sql.DB
	tx     *sql.Tx
	cache  map[string]*Object
	logger *zap.SugaredLogger
}

// Open opens the content store at path, applies pending migrations, and
// begins the first transaction segment.
func Open(path string, logger *zap.SugaredLogger) (*Conn, error) {
	db, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate content store")
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "begin transaction")
	}

	return &Conn{
		db:     db,
		tx:     tx,
		cache:  make(map[string]*Object),
		logger: logger,
	}, nil
}

// Close rolls back any uncommitted work and closes the connection.
func (c *Conn) Close() error {
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}
	return c.db.Close()
}

// Find returns handles for all objects of the given portal types within
// one site. The returned order follows the catalog index, not any
// application-level ordering.
func (c *Conn) Find(siteID string, portalTypes []string) ([]Handle, error) {
	if len(portalTypes) == 0 {
		return nil, nil
	}

	query := "SELECT id, path FROM objects WHERE site_id = ? AND portal_type IN (?" +
		strings.Repeat(",?", len(portalTypes)-1) + ") ORDER BY created_at, id"
	args := make([]interface{}, 0, len(portalTypes)+1)
	args = append(args, siteID)
	for _, pt := range portalTypes {
		args = append(args, pt)
	}

	rows, err := c.tx.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "catalog search")
	}
	defer rows.Close()

	var handles []Handle
	for rows.Next() {
		var h Handle
		if err := rows.Scan(&h.ID, &h.Path); err != nil {
			return nil, errors.Wrap(err, "scan handle")
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// Dereference loads the object behind a handle, including all fields.
// Objects are cached until the next ReleaseCache call.
func (c *Conn) Dereference(h Handle) (*Object, error) {
	if obj, ok := c.cache[h.ID]; ok {
		return obj, nil
	}

	obj := &Object{fields: make(map[string]Field)}
	err := c.tx.QueryRow(
		"SELECT id, site_id, path, portal_type, version FROM objects WHERE id = ?", h.ID,
	).Scan(&obj.ID, &obj.SiteID, &obj.Path, &obj.PortalType, &obj.Version)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "object %s", h.Path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dereference %s", h.Path)
	}

	rows, err := c.tx.Query(
		"SELECT name, data, filename, content_type FROM fields WHERE object_id = ?", h.ID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "load fields for %s", h.Path)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var f Field
		if err := rows.Scan(&name, &f.Data, &f.Filename, &f.ContentType); err != nil {
			return nil, errors.Wrap(err, "scan field")
		}
		obj.fields[name] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	c.cache[h.ID] = obj
	return obj, nil
}

// SetField replaces the named field on the object. The write carries the
// object version the caller dereferenced; if another writer advanced it
// in the meantime the write fails with ErrConflict and nothing changes.
func (c *Conn) SetField(obj *Object, name string, f Field) error {
	res, err := c.tx.Exec(
		"UPDATE objects SET version = version + 1 WHERE id = ? AND version = ?",
		obj.ID, obj.Version,
	)
	if err != nil {
		return errors.Wrapf(err, "bump version for %s", obj.Path)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(errors.ErrConflict, "object %s modified concurrently", obj.Path)
	}

	_, err = c.tx.Exec(`
		INSERT INTO fields (object_id, name, data, filename, content_type, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (object_id, name) DO UPDATE SET
			data = excluded.data,
			filename = excluded.filename,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at
	`, obj.ID, name, f.Data, f.Filename, f.ContentType)
	if err != nil {
		return errors.Wrapf(err, "write field %s on %s", name, obj.Path)
	}

	obj.Version++
	obj.PutField(name, f)
	return nil
}

// Reindex refreshes the catalog metadata for an object. Best-effort:
// callers treat a failure as bookkeeping noise, not data loss.
func (c *Conn) Reindex(obj *Object) error {
	_, err := c.tx.Exec("UPDATE objects SET indexed_at = CURRENT_TIMESTAMP WHERE id = ?", obj.ID)
	if err != nil {
		return errors.Wrapf(err, "reindex %s", obj.Path)
	}
	return nil
}

// Commit commits the current transaction segment and opens a fresh one.
func (c *Conn) Commit() error {
	if err := c.tx.Commit(); err != nil {
		// A failed commit leaves the tx finished either way; start over
		c.beginFresh()
		return errors.Wrap(err, "commit")
	}
	return c.beginFresh()
}

// Abort rolls back the current transaction segment and opens a fresh one.
func (c *Conn) Abort() error {
	if err := c.tx.Rollback(); err != nil {
		c.beginFresh()
		return errors.Wrap(err, "abort")
	}
	return c.beginFresh()
}

// ReleaseCache drops all dereferenced objects so long runs do not
// accumulate unbounded in-memory state. Callers invoke it at commit
// boundaries.
func (c *Conn) ReleaseCache() {
	c.cache = make(map[string]*Object)
}

// Compact reclaims space from superseded blob versions. It requires no
// open transaction, so the current segment is committed first.
func (c *Conn) Compact() error {
	if err := c.tx.Commit(); err != nil {
		c.beginFresh()
		return errors.Wrap(err, "commit before compaction")
	}
	if _, err := c.db.Exec("VACUUM"); err != nil {
		c.beginFresh()
		return errors.Wrap(err, "vacuum")
	}
	return c.beginFresh()
}

// AddObject inserts a new content object with its fields, returning the
// generated id. Used by seeding and tests.
func (c *Conn) AddObject(siteID, path, portalType string, fields map[string]Field) (string, error) {
	id := uuid.New().String()
	_, err := c.tx.Exec(
		"INSERT INTO objects (id, site_id, path, portal_type) VALUES (?, ?, ?, ?)",
		id, siteID, path, portalType,
	)
	if err != nil {
		return "", errors.Wrapf(err, "insert object %s", path)
	}

	for name, f := range fields {
		_, err := c.tx.Exec(
			"INSERT INTO fields (object_id, name, data, filename, content_type) VALUES (?, ?, ?, ?, ?)",
			id, name, f.Data, f.Filename, f.ContentType,
		)
		if err != nil {
			return "", errors.Wrapf(err, "insert field %s on %s", name, path)
		}
	}
	return id, nil
}

func (c *Conn) beginFresh() error {
	tx, err := c.db.Begin()
	if err != nil {
		c.tx = nil
		return errors.Wrap(err, "begin transaction")
	}
	c.tx = tx
	return nil
}
