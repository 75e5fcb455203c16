package convert

import "github.com/teranos/webpify/store"

// Store is the content-store surface the batch driver needs. store.Conn
// satisfies it; tests substitute doubles to script failures.
type Store interface {
	// Find returns ordered handles for the given portal types in a site
	Find(siteID string, portalTypes []string) ([]store.Handle, error)

	// Dereference loads the object behind a handle
	Dereference(h store.Handle) (*store.Object, error)

	// SetField replaces a named field on an object
	SetField(obj *store.Object, name string, f store.Field) error

	// Reindex refreshes catalog metadata, best-effort
	Reindex(obj *store.Object) error

	// Commit ends the current transaction segment, keeping its work
	Commit() error

	// Abort ends the current transaction segment, discarding its work
	Abort() error

	// ReleaseCache drops cached object state to bound memory growth
	ReleaseCache()

	// Compact reclaims space from superseded blob versions
	Compact() error
}

// FieldWriter is the narrow slice of Store the field converter uses.
type FieldWriter interface {
	SetField(obj *store.Object, name string, f store.Field) error
	Reindex(obj *store.Object) error
}
