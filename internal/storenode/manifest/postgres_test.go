package manifest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interestIngc/cyphershare/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE manifest (
  cid TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
  size BIGINT NOT NULL,
  created_at BIGINT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestCreateAndGet(t *testing.T) {
	r := NewPostgresRepository(setupDB(t))
	ctx := context.Background()

	e := &Entry{CID: "bafy1", Name: "a.txt", MimeType: "text/plain", Size: 12, CreatedAt: time.UnixMilli(1000)}
	require.NoError(t, r.Create(ctx, e))

	got, err := r.GetByCID(ctx, "bafy1")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCreateIsIdempotent(t *testing.T) {
	r := NewPostgresRepository(setupDB(t))
	ctx := context.Background()

	e := &Entry{CID: "bafy1", Name: "a.txt", Size: 12, CreatedAt: time.UnixMilli(1000)}
	require.NoError(t, r.Create(ctx, e))

	// Same content again with a different declared name changes nothing.
	dup := &Entry{CID: "bafy1", Name: "b.txt", Size: 12, CreatedAt: time.UnixMilli(2000)}
	require.NoError(t, r.Create(ctx, dup))

	got, err := r.GetByCID(ctx, "bafy1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Name)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGetMissing(t *testing.T) {
	r := NewPostgresRepository(setupDB(t))

	_, err := r.GetByCID(context.Background(), "bafy-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	r := NewPostgresRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &Entry{CID: "bafy1", Size: 1, CreatedAt: time.UnixMilli(1000)}))
	require.NoError(t, r.Create(ctx, &Entry{CID: "bafy2", Size: 2, CreatedAt: time.UnixMilli(2000)}))

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bafy2", all[0].CID)
	assert.Equal(t, "bafy1", all[1].CID)
}
