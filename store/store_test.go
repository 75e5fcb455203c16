package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/webpify/errors"
)

func openTestConn(t *testing.T) *Conn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	conn, err := Open(path, nil)
	require.NoError(t, err, "opening test store")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFindFiltersBySiteAndType(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.AddObject("alpha", "/alpha/logo", "Image", nil)
	require.NoError(t, err)
	_, err = conn.AddObject("alpha", "/alpha/news", "News Item", nil)
	require.NoError(t, err)
	_, err = conn.AddObject("alpha", "/alpha/page", "Document", nil)
	require.NoError(t, err)
	_, err = conn.AddObject("beta", "/beta/logo", "Image", nil)
	require.NoError(t, err)

	handles, err := conn.Find("alpha", []string{"Image", "News Item"})
	require.NoError(t, err)
	assert.Len(t, handles, 2)
	for _, h := range handles {
		assert.NotContains(t, h.Path, "/beta/")
	}

	none, err := conn.Find("alpha", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDereferenceLoadsFields(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", map[string]Field{
		"image": {Data: []byte{0xFF, 0xD8}, Filename: "photo.jpg", ContentType: "image/jpeg"},
	})
	require.NoError(t, err)

	obj, err := conn.Dereference(Handle{ID: id, Path: "/alpha/photo"})
	require.NoError(t, err)
	assert.Equal(t, "/alpha/photo", obj.Path)
	assert.Equal(t, "Image", obj.PortalType)
	assert.Equal(t, int64(0), obj.Version)

	f, ok := obj.GetField("image")
	require.True(t, ok)
	assert.Equal(t, "photo.jpg", f.Filename)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, []byte{0xFF, 0xD8}, f.Data)

	_, ok = obj.GetField("lead_image")
	assert.False(t, ok)
}

func TestDereferenceUnknownHandle(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Dereference(Handle{ID: "missing", Path: "/gone"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSetFieldPersistsAcrossCommit(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", map[string]Field{
		"image": {Data: []byte("old"), Filename: "photo.png", ContentType: "image/png"},
	})
	require.NoError(t, err)

	obj, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)

	err = conn.SetField(obj, "image", Field{
		Data:        []byte("new"),
		Filename:    "photo.webp",
		ContentType: "image/webp",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), obj.Version)

	require.NoError(t, conn.Commit())
	conn.ReleaseCache()

	reloaded, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	f, ok := reloaded.GetField("image")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), f.Data)
	assert.Equal(t, "photo.webp", f.Filename)
	assert.Equal(t, "image/webp", f.ContentType)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestSetFieldDetectsStaleVersion(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", nil)
	require.NoError(t, err)

	obj, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)

	// Another writer advances the version behind this snapshot's back
	_, err = conn.tx.Exec("UPDATE objects SET version = version + 1 WHERE id = ?", id)
	require.NoError(t, err)

	err = conn.SetField(obj, "image", Field{Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err), "stale write must classify as conflict, got %v", err)
}

func TestAbortDiscardsStagedWrites(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", map[string]Field{
		"image": {Data: []byte("old"), Filename: "a.png", ContentType: "image/png"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.Commit())
	conn.ReleaseCache()

	obj, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	require.NoError(t, conn.SetField(obj, "image", Field{Data: []byte("new")}))

	require.NoError(t, conn.Abort())
	conn.ReleaseCache()

	reloaded, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	f, _ := reloaded.GetField("image")
	assert.Equal(t, []byte("old"), f.Data, "aborted write must not persist")
	assert.Equal(t, int64(0), reloaded.Version)
}

func TestReleaseCacheDropsSnapshots(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", nil)
	require.NoError(t, err)

	first, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	again, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	assert.Same(t, first, again, "cache should return the same snapshot")

	conn.ReleaseCache()
	fresh, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	assert.NotSame(t, first, fresh, "released cache must reload")
}

func TestReindexUpdatesCatalogTimestamp(t *testing.T) {
	conn := openTestConn(t)

	id, err := conn.AddObject("alpha", "/alpha/photo", "Image", nil)
	require.NoError(t, err)

	obj, err := conn.Dereference(Handle{ID: id})
	require.NoError(t, err)
	require.NoError(t, conn.Reindex(obj))

	var indexedAt *string
	err = conn.tx.QueryRow("SELECT indexed_at FROM objects WHERE id = ?", id).Scan(&indexedAt)
	require.NoError(t, err)
	assert.NotNil(t, indexedAt)
}

func TestCompactSucceedsAfterWrites(t *testing.T) {
	conn := openTestConn(t)

	for i := 0; i < 5; i++ {
		_, err := conn.AddObject("alpha", filepath.Join("/alpha", string(rune('a'+i))), "Image", map[string]Field{
			"image": {Data: make([]byte, 4096), Filename: "blob.png", ContentType: "image/png"},
		})
		require.NoError(t, err)
	}
	require.NoError(t, conn.Commit())

	require.NoError(t, conn.Compact())

	// Connection stays usable after compaction
	handles, err := conn.Find("alpha", []string{"Image"})
	require.NoError(t, err)
	assert.Len(t, handles, 5)
}
