package postmodel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/query"
)

func TestConnect(t *testing.T) {
	ctx := context.Background()
	e, err := Connect(ctx, "sqlite://"+filepath.Join(t.TempDir(), "app.db")+"?max_size=2")
	require.NoError(t, err)
	defer e.Close(ctx)

	assert.Equal(t, "sqlite", e.Dialect().Name())
	assert.Equal(t, 2, e.Config().Pool.MaxSize)

	_, err = e.Executor().Exec(ctx, e.Raw("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
	require.NoError(t, err)
	_, err = e.Exec(ctx, query.Insert("users").Columns("name").Values("ada"))
	require.NoError(t, err)

	rs, err := e.Query(ctx, query.Select("name").From("users").WhereEq("id", 1))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, ast.String("ada"), rs.Rows[0].At(0))

	_, err = Connect(ctx, "mongodb://localhost/app")
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "postmodel.yaml", []byte(`
scheme: sqlite
database: `+filepath.Join(dir, "main.db")+`
pool:
  min_size: 1
  max_size: 2
databases:
  audit: sqlite://`+filepath.Join(dir, "audit.db")+`
`), 0o644))
	none := func(string) (string, bool) { return "", false }

	ctx := context.Background()
	r, err := Load(ctx, []connector.LoadOption{
		connector.WithFs(fs), connector.WithLookupEnv(none), connector.WithConfigFile("postmodel.yaml"),
	})
	require.NoError(t, err)
	defer r.Close(ctx)

	assert.Equal(t, []string{"audit", "default"}, r.Names())
	audit, err := r.Get("audit")
	require.NoError(t, err)
	assert.NoError(t, audit.Ping(ctx))
}
