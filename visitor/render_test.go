package visitor

import (
	"math"
	"testing"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pg    = dialect.NewPostgresDialect()
	mysql = dialect.NewMySQLDialect()
	tidb  = dialect.NewTiDBDialect()
	lite  = dialect.NewSQLiteDialect()
)

func render(t *testing.T, stmt query.Statement, d dialect.Dialect) (*RenderedQuery, error) {
	t.Helper()
	node, err := stmt.Build()
	if err != nil {
		return nil, err
	}
	return Render(node, d)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		stmt     query.Statement
		dialect  dialect.Dialect
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "select postgres",
			stmt:     query.Select("id", "email").From("users").Where(query.Eq("id", 1)).Limit(10),
			dialect:  pg,
			wantSQL:  `SELECT "id", "email" FROM "users" WHERE "id" = $1 LIMIT $2`,
			wantArgs: []any{int64(1), int64(10)},
		},
		{
			name:     "select mysql",
			stmt:     query.Select("id", "email").From("users").Where(query.Eq("id", 1)).Limit(10),
			dialect:  mysql,
			wantSQL:  "SELECT `id`, `email` FROM `users` WHERE `id` = ? LIMIT ?",
			wantArgs: []any{int64(1), int64(10)},
		},
		{
			name:     "star and distinct",
			stmt:     query.Select().Distinct().From("public.users AS u"),
			dialect:  pg,
			wantSQL:  `SELECT DISTINCT * FROM "public"."users" AS "u"`,
			wantArgs: []any{},
		},
		{
			name:     "qualified star",
			stmt:     query.Select("u.*").From("users AS u"),
			dialect:  lite,
			wantSQL:  `SELECT "u".* FROM "users" AS "u"`,
			wantArgs: []any{},
		},
		{
			name:     "escaped identifier",
			stmt:     query.Select("id").From(`we"ird`),
			dialect:  pg,
			wantSQL:  `SELECT "id" FROM "we""ird"`,
			wantArgs: []any{},
		},
		{
			name:     "chained where stays flat",
			stmt:     query.Select().From("t").Where(query.Eq("a", 1)).Where(query.Eq("b", 2)).Where(query.Eq("c", 3)),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" WHERE "a" = $1 AND "b" = $2 AND "c" = $3`,
			wantArgs: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:     "or where groups the previous condition",
			stmt:     query.Select().From("t").Where(query.Eq("a", 1), query.Eq("b", 2)).OrWhere(query.Eq("c", 3)),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" WHERE ("a" = $1 AND "b" = $2) OR "c" = $3`,
			wantArgs: []any{int64(1), int64(2), int64(3)},
		},
		{
			name: "nested precedence",
			stmt: query.Select().From("t").Where(query.And(
				query.Or(query.Eq("a", 1), query.Eq("b", 2)),
				query.Not(query.IsNull("c")),
			)),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" WHERE ("a" = $1 OR "b" = $2) AND NOT ("c" IS NULL)`,
			wantArgs: []any{int64(1), int64(2)},
		},
		{
			name:     "in between and null",
			stmt:     query.Select().From("t").Where(query.In("id", []int{1, 2, 3}), query.Between("age", 18, 30), query.Eq("deleted_at", nil)),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" WHERE "id" IN ($1, $2, $3) AND "age" BETWEEN $4 AND $5 AND "deleted_at" IS NULL`,
			wantArgs: []any{int64(1), int64(2), int64(3), int64(18), int64(30)},
		},
		{
			name:     "ilike postgres",
			stmt:     query.Select().From("t").Where(query.ILike("name", "bo%")),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" WHERE "name" ILIKE $1`,
			wantArgs: []any{"bo%"},
		},
		{
			name:     "join",
			stmt:     query.Select("u.id", "p.title").From("users AS u").Join("posts AS p", query.On("p.user_id", "u.id")).LeftJoin("tags", query.On("tags.post_id", "p.id")),
			dialect:  pg,
			wantSQL:  `SELECT "u"."id", "p"."title" FROM "users" AS "u" INNER JOIN "posts" AS "p" ON "p"."user_id" = "u"."id" LEFT JOIN "tags" ON "tags"."post_id" = "p"."id"`,
			wantArgs: []any{},
		},
		{
			name:     "cross join",
			stmt:     query.Select().From("a").CrossJoin("b"),
			dialect:  mysql,
			wantSQL:  "SELECT * FROM `a` CROSS JOIN `b`",
			wantArgs: []any{},
		},
		{
			name: "aggregate with having",
			stmt: query.SelectExpr(query.Col("dept"), query.Count("*").As("n")).From("emp").
				GroupBy("dept").Having(query.Expr(query.Count("*"), ">", 5)).OrderByDesc("n"),
			dialect:  pg,
			wantSQL:  `SELECT "dept", COUNT(*) AS "n" FROM "emp" GROUP BY "dept" HAVING COUNT(*) > $1 ORDER BY "n" DESC`,
			wantArgs: []any{int64(5)},
		},
		{
			name:     "count distinct and coalesce",
			stmt:     query.SelectExpr(query.CountDistinct("email"), query.Coalesce("nick", "anon")).From("users"),
			dialect:  lite,
			wantSQL:  `SELECT COUNT(DISTINCT "email"), COALESCE("nick", ?) FROM "users"`,
			wantArgs: []any{"anon"},
		},
		{
			name:     "offset without limit postgres",
			stmt:     query.Select().From("t").Offset(5),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" OFFSET $1`,
			wantArgs: []any{int64(5)},
		},
		{
			name:     "offset without limit mysql",
			stmt:     query.Select().From("t").Offset(5),
			dialect:  mysql,
			wantSQL:  "SELECT * FROM `t` LIMIT ? OFFSET ?",
			wantArgs: []any{int64(math.MaxInt64), int64(5)},
		},
		{
			name:     "order and paging",
			stmt:     query.Select().From("t").OrderByAsc("a", "b").OrderByDesc("c").Limit(10).Offset(20).ForUpdate(),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "t" ORDER BY "a" ASC, "b" ASC, "c" DESC LIMIT $1 OFFSET $2 FOR UPDATE`,
			wantArgs: []any{int64(10), int64(20)},
		},
		{
			name:     "in subquery",
			stmt:     query.Select("id").From("users").Where(query.In("id", query.Select("user_id").From("orders").Where(query.Gt("total", 100)))),
			dialect:  pg,
			wantSQL:  `SELECT "id" FROM "users" WHERE "id" IN (SELECT "user_id" FROM "orders" WHERE "total" > $1)`,
			wantArgs: []any{int64(100)},
		},
		{
			name:     "exists",
			stmt:     query.Select().From("users AS u").Where(query.Exists(query.Select("id").From("orders AS o").Where(query.Expr(query.Col("o.user_id"), "=", query.Col("u.id"))))),
			dialect:  pg,
			wantSQL:  `SELECT * FROM "users" AS "u" WHERE EXISTS (SELECT "id" FROM "orders" AS "o" WHERE "o"."user_id" = "u"."id")`,
			wantArgs: []any{},
		},
		{
			name:     "insert returning",
			stmt:     query.Insert("users").Columns("name", "age").Values("a", 1).Values("b", 2).Returning("id"),
			dialect:  pg,
			wantSQL:  `INSERT INTO "users" ("name", "age") VALUES ($1, $2), ($3, $4) RETURNING "id"`,
			wantArgs: []any{"a", int64(1), "b", int64(2)},
		},
		{
			name:     "insert record",
			stmt:     query.Insert("users").Record(map[string]any{"name": "a", "age": 3}),
			dialect:  lite,
			wantSQL:  `INSERT INTO "users" ("age", "name") VALUES (?, ?)`,
			wantArgs: []any{int64(3), "a"},
		},
		{
			name:     "upsert postgres",
			stmt:     query.Insert("kv").Columns("k", "v").Values("a", "b").OnConflictUpdate([]string{"k"}, "v"),
			dialect:  pg,
			wantSQL:  `INSERT INTO "kv" ("k", "v") VALUES ($1, $2) ON CONFLICT ("k") DO UPDATE SET "v" = EXCLUDED."v"`,
			wantArgs: []any{"a", "b"},
		},
		{
			name:     "upsert mysql",
			stmt:     query.Insert("kv").Columns("k", "v").Values("a", "b").OnConflictUpdate([]string{"k"}, "v"),
			dialect:  mysql,
			wantSQL:  "INSERT INTO `kv` (`k`, `v`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `v` = VALUES(`v`)",
			wantArgs: []any{"a", "b"},
		},
		{
			name:     "insert ignore sqlite",
			stmt:     query.Insert("kv").Columns("k").Values("a").OnConflictDoNothing("k"),
			dialect:  lite,
			wantSQL:  `INSERT INTO "kv" ("k") VALUES (?) ON CONFLICT ("k") DO NOTHING`,
			wantArgs: []any{"a"},
		},
		{
			name:     "update keeps set order",
			stmt:     query.Update("users").Set("name", "x").Set("age", query.Expr(query.Col("age"), "+", 1)).Where(query.Eq("id", 7)),
			dialect:  pg,
			wantSQL:  `UPDATE "users" SET "name" = $1, "age" = "age" + $2 WHERE "id" = $3`,
			wantArgs: []any{"x", int64(1), int64(7)},
		},
		{
			name:     "delete",
			stmt:     query.Delete("users").Where(query.Lt("age", 18)).Returning("id"),
			dialect:  lite,
			wantSQL:  `DELETE FROM "users" WHERE "age" < ? RETURNING "id"`,
			wantArgs: []any{int64(18)},
		},
		{
			name: "create table postgres",
			stmt: query.CreateTable("users").IfNotExists().
				Column("id", ast.ValueInt, query.PrimaryKey(), query.AutoIncrement()).
				Column("email", ast.ValueString, query.NotNull(), query.Unique()).
				Column("team_id", ast.ValueInt, query.References("teams", "id")),
			dialect:  pg,
			wantSQL:  `CREATE TABLE IF NOT EXISTS "users" ("id" BIGSERIAL PRIMARY KEY NOT NULL, "email" TEXT NOT NULL UNIQUE, "team_id" BIGINT REFERENCES "teams" ("id"))`,
			wantArgs: []any{},
		},
		{
			name: "create table sqlite",
			stmt: query.CreateTable("users").
				Column("id", ast.ValueInt, query.PrimaryKey(), query.AutoIncrement()).
				Column("avatar", ast.ValueBytes),
			dialect:  lite,
			wantSQL:  `CREATE TABLE "users" ("id" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL, "avatar" BLOB)`,
			wantArgs: []any{},
		},
		{
			name: "create table composite key mysql",
			stmt: query.CreateTable("memberships").
				Column("user_id", ast.ValueInt, query.PrimaryKey()).
				Column("team_id", ast.ValueInt, query.PrimaryKey()),
			dialect:  mysql,
			wantSQL:  "CREATE TABLE `memberships` (`user_id` BIGINT NOT NULL, `team_id` BIGINT NOT NULL, PRIMARY KEY (`user_id`, `team_id`))",
			wantArgs: []any{},
		},
		{
			name:     "tidb vector column",
			stmt:     query.CreateTable("docs").ColumnDef(&ast.ColumnDef{Name: "embedding", Type: &ast.DataType{Kind: ast.TypeVector, Dimension: 3}}),
			dialect:  tidb,
			wantSQL:  "CREATE TABLE `docs` (`embedding` VECTOR(3))",
			wantArgs: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := render(t, tt.stmt, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, q.SQL)

			args := make([]any, 0, len(q.Params))
			for i, p := range q.Params {
				assert.Equal(t, i+1, p.Position)
				args = append(args, p.Value.Val)
			}
			assert.Equal(t, tt.wantArgs, args)
			assert.NoError(t, q.Validate())
		})
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		stmt    query.Statement
		dialect dialect.Dialect
		wantErr error
	}{
		{"ilike on mysql", query.Select().From("t").Where(query.ILike("a", "x")), mysql, errs.ErrUnsupportedConstruct},
		{"ilike on sqlite", query.Select().From("t").Where(query.NotILike("a", "x")), lite, errs.ErrUnsupportedConstruct},
		{"returning on mysql", query.Insert("t").Columns("a").Values(1).Returning("id"), mysql, errs.ErrUnsupportedConstruct},
		{"full join on mysql", query.Select().From("a").FullJoin("b", query.On("a.id", "b.id")), mysql, errs.ErrUnsupportedConstruct},
		{"for update on sqlite", query.Select().From("t").ForUpdate(), lite, errs.ErrUnsupportedConstruct},
		{"do nothing on mysql", query.Insert("t").Columns("a").Values(1).OnConflictDoNothing("a"), mysql, errs.ErrUnsupportedConstruct},
		{"unbindable value", query.Select().From("t").Where(query.Eq("a", struct{}{})), pg, errs.ErrUnsupportedConstruct},
		{"unknown operator", query.Select().From("t").Where(query.Expr(query.Col("a"), "; DROP", 1)), pg, errs.ErrUnsupportedConstruct},
		{"update without set", query.Update("t").Where(query.Eq("a", 1)), pg, errs.ErrInvalidQueryShape},
		{"insert width mismatch", query.Insert("t").Columns("a", "b").Values(1), pg, errs.ErrInvalidQueryShape},
		{"insert without columns", query.Insert("t").Values(1), pg, errs.ErrInvalidQueryShape},
		{"insert without rows", query.Insert("t").Columns("a"), pg, errs.ErrInvalidQueryShape},
		{"empty in", query.Select().From("t").Where(query.In("a", []int{})), pg, errs.ErrInvalidQueryShape},
		{"negative limit", query.Select().From("t").Limit(-1), pg, errs.ErrInvalidQueryShape},
		{"join without from", query.Select().Join("b", query.On("a.id", "b.id")), pg, errs.ErrInvalidQueryShape},
		{"join without on", query.Select().From("a").Join("b", nil), pg, errs.ErrInvalidQueryShape},
		{"bad function name", query.SelectExpr(query.Fn("NOW(); --")).From("t"), pg, errs.ErrInvalidQueryShape},
		{"create without columns", query.CreateTable("t"), pg, errs.ErrInvalidQueryShape},
		{"bad lookup", query.Select().From("t").Filter(map[string]any{"a__nope": 1}), pg, errs.ErrInvalidQueryShape},
		{"empty select", query.SelectExpr().From("t"), pg, errs.ErrInvalidQueryShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render(t, tt.stmt, tt.dialect)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRenderRejectsBareExpressions(t *testing.T) {
	_, err := Render(query.Col("id"), pg)
	assert.ErrorIs(t, err, errs.ErrInvalidQueryShape)
}

func TestRenderDeterministic(t *testing.T) {
	stmt := query.Select("a").From("t").Filter(map[string]any{"b__gte": 1, "c": "x", "a__in": []string{"p", "q"}})
	first, err := render(t, stmt, pg)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := render(t, stmt, pg)
		require.NoError(t, err)
		assert.Equal(t, first.SQL, again.SQL)
		assert.Equal(t, first.Params, again.Params)
	}
	assert.Equal(t, `SELECT "a" FROM "t" WHERE "a" IN ($1, $2) AND "b" >= $3 AND "c" = $4`, first.SQL)
}

func TestRenderNeverInlinesValues(t *testing.T) {
	q, err := render(t, query.Select().From("t").Where(query.Eq("name", "'; DROP TABLE t; --")), pg)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "DROP")
	assert.Len(t, q.Params, 1)
}

func TestLookupRendering(t *testing.T) {
	tests := []struct {
		key      string
		value    any
		dialect  dialect.Dialect
		wantSQL  string
		wantArgs []any
	}{
		{"name", "bob", pg, `"name" = $1`, []any{"bob"}},
		{"name__not", "bob", pg, `"name" <> $1 OR "name" IS NULL`, []any{"bob"}},
		{"id__not_in", []int{1, 2}, pg, `"id" NOT IN ($1, $2) OR "id" IS NULL`, []any{int64(1), int64(2)}},
		{"deleted_at__isnull", true, pg, `"deleted_at" IS NULL`, []any{}},
		{"deleted_at__not_isnull", true, pg, `"deleted_at" IS NOT NULL`, []any{}},
		{"age__lte", 5, pg, `"age" <= $1`, []any{int64(5)}},
		{"name__contains", "ob", pg, `CAST("name" AS VARCHAR) LIKE $1`, []any{"%ob%"}},
		{"name__startswith", "b", mysql, "CAST(`name` AS CHAR) LIKE ?", []any{"b%"}},
		{"name__endswith", "b", lite, `CAST("name" AS TEXT) LIKE ?`, []any{"%b"}},
		{"name__icontains", "OB", pg, `UPPER(CAST("name" AS VARCHAR)) LIKE UPPER($1)`, []any{"%OB%"}},
		{"name__iexact", "Bob", mysql, "UPPER(CAST(`name` AS CHAR)) LIKE UPPER(?)", []any{"Bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cond, err := query.Lookup(tt.key, tt.value)
			require.NoError(t, err)

			q, err := Render(query.Select().From("t").Where(cond).Stmt(), tt.dialect)
			require.NoError(t, err)

			prefix := "SELECT * FROM " + tt.dialect.QuoteIdentifier("t") + " WHERE "
			assert.Equal(t, prefix+tt.wantSQL, q.SQL)

			args := make([]any, 0)
			for _, v := range q.Values() {
				args = append(args, v.Val)
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
