package cache

import (
	"testing"
	"time"

	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCacheHitsAndMisses(t *testing.T) {
	c := NewRenderCache(8)
	pg := dialect.NewPostgresDialect()

	stmt := query.Select("id").From("users").Where(query.Eq("id", 1)).Stmt()
	first, err := c.Render(stmt, pg)
	require.NoError(t, err)
	second, err := c.Render(query.Select("id").From("users").Where(query.Eq("id", 1)).Stmt(), pg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Entries: 1}, c.Stats())

	// different value, different entry
	_, err = c.Render(query.Select("id").From("users").Where(query.Eq("id", 2)).Stmt(), pg)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestRenderCacheKeysOnDialect(t *testing.T) {
	c := NewRenderCache(8)
	stmt := query.Select("id").From("users").Stmt()

	a, err := c.Render(stmt, dialect.NewPostgresDialect())
	require.NoError(t, err)
	b, err := c.Render(stmt, dialect.NewMySQLDialect())
	require.NoError(t, err)

	assert.NotEqual(t, a.SQL, b.SQL)
	assert.Equal(t, 2, c.Len())
}

func TestRenderCacheReturnsCopies(t *testing.T) {
	c := NewRenderCache(8)
	stmt := query.Select().From("t").Where(query.Eq("a", 1)).Stmt()
	pg := dialect.NewPostgresDialect()

	q, err := c.Render(stmt, pg)
	require.NoError(t, err)
	q.Params[0].Position = 99

	again, err := c.Render(stmt, pg)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Params[0].Position)
}

func TestRenderCacheDoesNotStoreErrors(t *testing.T) {
	c := NewRenderCache(8)
	stmt := query.Select().From("t").Where(query.ILike("a", "x")).Stmt()

	_, err := c.Render(stmt, dialect.NewMySQLDialect())
	assert.ErrorIs(t, err, errs.ErrUnsupportedConstruct)
	assert.Equal(t, 0, c.Len())
}

func TestRenderCacheEvicts(t *testing.T) {
	c := NewRenderCache(2)
	pg := dialect.NewPostgresDialect()
	for i := 0; i < 5; i++ {
		_, err := c.Render(query.Select().From("t").Where(query.Eq("a", i)).Stmt(), pg)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestRenderCacheKeepsTimeZones(t *testing.T) {
	c := NewRenderCache(8)
	sqlite := dialect.NewSQLiteDialect()
	utc := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	local := utc.In(time.FixedZone("CEST", 2*60*60))

	first, err := c.Render(query.Insert("events").Columns("at").Values(utc).Stmt(), sqlite)
	require.NoError(t, err)
	second, err := c.Render(query.Insert("events").Columns("at").Values(local).Stmt(), sqlite)
	require.NoError(t, err)

	assert.Equal(t, utc, first.Params[0].Value.Val)
	got := second.Params[0].Value.Val.(time.Time)
	assert.Equal(t, "2024-01-02T05:04:05+02:00", got.Format(time.RFC3339))
	assert.Equal(t, Stats{Hits: 0, Misses: 2, Entries: 2}, c.Stats())
}

func TestRenderCacheComparesTreesOnHit(t *testing.T) {
	c := NewRenderCache(8)
	pg := dialect.NewPostgresDialect()
	want := query.Select("id").From("users").Where(query.Eq("id", 1)).Stmt()
	other := query.Select("id").From("accounts").Where(query.Eq("id", 2)).Stmt()

	stale, err := c.Render(other, pg)
	require.NoError(t, err)
	// Store other's rendering under want's key, as a fingerprint collision would.
	key := renderKey{dialect: pg.Name(), fingerprint: want.Fingerprint()}
	c.cache.Add(key, renderEntry{node: other, query: stale})

	q, err := c.Render(want, pg)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE "id" = $1`, q.SQL)
	assert.Equal(t, int64(1), q.Params[0].Value.Val)
	assert.Equal(t, uint64(0), c.Stats().Hits)

	again, err := c.Render(want, pg)
	require.NoError(t, err)
	assert.Equal(t, q, again)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}
