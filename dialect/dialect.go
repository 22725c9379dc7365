package dialect

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

// Feature is an optional SQL construct that not every dialect can express.
type Feature int

const (
	FeatureILike Feature = iota
	FeatureReturning
	FeatureFullJoin
	FeatureRightJoin
	FeatureForUpdate
	FeatureOnConflict
	FeatureDuplicateKeyUpdate
	FeatureIfNotExists
	FeatureVector
	FeatureArrayTypes
	FeatureOffsetWithoutLimit
	FeatureBackslashEscapes
)

var featureNames = map[Feature]string{
	FeatureILike:              "ILIKE",
	FeatureReturning:          "RETURNING",
	FeatureFullJoin:           "FULL JOIN",
	FeatureRightJoin:          "RIGHT JOIN",
	FeatureForUpdate:          "FOR UPDATE",
	FeatureOnConflict:         "ON CONFLICT",
	FeatureDuplicateKeyUpdate: "ON DUPLICATE KEY UPDATE",
	FeatureIfNotExists:        "IF NOT EXISTS",
	FeatureVector:             "VECTOR",
	FeatureArrayTypes:         "array columns",
	FeatureOffsetWithoutLimit: "OFFSET without LIMIT",
	FeatureBackslashEscapes:   "backslash escapes in strings",
}

func (f Feature) String() string {
	if s, ok := featureNames[f]; ok {
		return s
	}
	return "unknown feature"
}

// PlaceholderStyle is how positional parameters appear in SQL text.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
)

type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	// IdentifierQuote is the character that delimits quoted identifiers.
	IdentifierQuote() byte
	Placeholder(n int) string
	PlaceholderStyle() PlaceholderStyle
	Supports(f Feature) bool
	// ColumnType returns the native type for a column definition, including
	// any auto-increment keyword the dialect places in the type position.
	ColumnType(def *ast.ColumnDef) (string, error)
	// AutoIncrementSuffix is appended after PRIMARY KEY for auto-increment columns.
	AutoIncrementSuffix() string
	// TextCastType is the type name used by CAST(x AS ...) to coerce to text.
	TextCastType() string
}

// quote wraps name in q, doubling any embedded q.
func quote(name string, q byte) string {
	buf := make([]byte, 0, len(name)+2)
	buf = append(buf, q)
	for i := 0; i < len(name); i++ {
		if name[i] == q {
			buf = append(buf, q)
		}
		buf = append(buf, name[i])
	}
	buf = append(buf, q)
	return string(buf)
}

var registry = map[string]func() Dialect{
	"postgres":   NewPostgresDialect,
	"postgresql": NewPostgresDialect,
	"mysql":      NewMySQLDialect,
	"tidb":       NewTiDBDialect,
	"sqlite":     NewSQLiteDialect,
	"sqlite3":    NewSQLiteDialect,
}

// ByName looks up a dialect by its name or a common alias.
func ByName(name string) (Dialect, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(), true
}
