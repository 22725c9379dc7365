package executor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/pool"
	"github.com/Konsultn-Engineering/postmodel/providers/sqlite"
	"github.com/Konsultn-Engineering/postmodel/query"
	"github.com/Konsultn-Engineering/postmodel/visitor"
)

func newSQLiteExecutor(t *testing.T) *Executor {
	t.Helper()
	prov := sqlite.New()
	cfg := connector.Config{Scheme: "sqlite", Database: filepath.Join(t.TempDir(), "test.db")}
	dial := func(ctx context.Context) (database.Conn, error) { return prov.Dial(ctx, cfg) }

	p, err := pool.New(context.Background(), connector.PoolConfig{
		MinSize: 1, MaxSize: 2, AcquireTimeout: time.Second, HealthCheckFreq: time.Minute,
	}, dial)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, p.Close(ctx))
	})
	return New(p, prov.Dialect())
}

func render(t *testing.T, e *Executor, stmt query.Statement) *visitor.RenderedQuery {
	t.Helper()
	node, err := stmt.Build()
	require.NoError(t, err)
	q, err := visitor.Render(node, e.Dialect())
	require.NoError(t, err)
	return q
}

func TestSQLiteRoundTrip(t *testing.T) {
	e := newSQLiteExecutor(t)
	ctx := context.Background()

	create := query.CreateTable("users").IfNotExists().
		Column("id", ast.ValueInt, query.PrimaryKey(), query.AutoIncrement()).
		Column("name", ast.ValueString, query.NotNull(), query.Unique()).
		Column("score", ast.ValueFloat).
		Column("avatar", ast.ValueBytes)
	_, err := e.Exec(ctx, render(t, e, create))
	require.NoError(t, err)

	row, err := e.Insert(ctx, render(t, e, query.Insert("users").
		Columns("name", "score", "avatar").
		Values("ann", 9.5, []byte{0xde, 0xad}).
		Returning("id", "name")))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, ast.Int(1), row.At(0))
	assert.Equal(t, ast.String("ann"), row.At(1))

	insert := render(t, e, query.Insert("users").Columns("name", "score", "avatar").Values("", 0, nil))
	n, err := e.ExecuteMany(ctx, insert, [][]any{{"bob", 7.25, nil}, {"cid", nil, nil}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rs, err := e.Execute(ctx, render(t, e, query.Select("id", "name", "score", "avatar").
		From("users").
		Filter(map[string]any{"name__istartswith": "B", "score__gte": 7}).
		OrderByAsc("id")))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, map[string]ast.Value{
		"id":     ast.Int(2),
		"name":   ast.String("bob"),
		"score":  ast.Float(7.25),
		"avatar": ast.Null,
	}, rs.Rows[0].Map())

	rs, err = e.Execute(ctx, render(t, e, query.Select("avatar").From("users").WhereEq("id", 1)))
	require.NoError(t, err)
	assert.Equal(t, ast.Bytes([]byte{0xde, 0xad}), rs.Rows[0].At(0))

	affected, err := e.Exec(ctx, render(t, e, query.Update("users").Set("score", 1).Where(query.IsNull("score"))))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rs, err = e.Execute(ctx, render(t, e, query.SelectExpr(query.Count("*").As("n")).From("users")))
	require.NoError(t, err)
	assert.Equal(t, ast.Int(3), rs.Rows[0].At(0))
}

func TestSQLiteIntegrityAndRollback(t *testing.T) {
	e := newSQLiteExecutor(t)
	ctx := context.Background()

	require.NoError(t, e.ExecuteScript(ctx, `
		CREATE TABLE accounts (id INTEGER PRIMARY KEY, owner TEXT NOT NULL UNIQUE);
		INSERT INTO accounts (owner) VALUES ('ann');
	`))

	_, err := e.Exec(ctx, visitor.Raw(e.Dialect(), "INSERT INTO accounts (owner) VALUES (?)", "ann"))
	require.ErrorIs(t, err, errs.ErrIntegrity)

	err = e.InTransaction(ctx, func(ctx context.Context, tx *Session) error {
		if _, err := tx.Exec(ctx, visitor.Raw(e.Dialect(), "INSERT INTO accounts (owner) VALUES (?)", "bob")); err != nil {
			return err
		}
		_, err := e.Exec(ctx, visitor.Raw(e.Dialect(), "INSERT INTO accounts (owner) VALUES (?)", "ann"))
		return err
	})
	require.ErrorIs(t, err, errs.ErrIntegrity)

	rs, err := e.Execute(ctx, visitor.Raw(e.Dialect(), "SELECT owner FROM accounts ORDER BY id"))
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, ast.String("ann"), rs.Rows[0].At(0))

	_, err = e.Execute(ctx, visitor.Raw(e.Dialect(), "SELECT nope FROM accounts"))
	require.ErrorIs(t, err, errs.ErrOperational)
}
