package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralizer.NewClient()

// NamingStrategy maps Go identifiers to table and column names.
type NamingStrategy interface {
	ColumnName(fieldName string) string
	TableName(structName string) string
}

// SnakeCase names columns user_id and tables users. Plural decides whether
// table names are pluralized.
type SnakeCase struct {
	Plural bool
}

func DefaultNamingStrategy() NamingStrategy { return SnakeCase{Plural: true} }

func (s SnakeCase) ColumnName(fieldName string) string { return toSnakeCase(fieldName) }

func (s SnakeCase) TableName(structName string) string {
	name := toSnakeCase(structName)
	if !s.Plural || name == "" {
		return name
	}
	// Only the last word is pluralized: user_profile -> user_profiles.
	i := strings.LastIndexByte(name, '_')
	return name[:i+1] + pluralizeClient.Plural(name[i+1:])
}

var initialisms = map[string]string{
	"ID":   "id",
	"UUID": "uuid",
	"URL":  "url",
	"API":  "api",
	"JSON": "json",
	"SQL":  "sql",
	"HTTP": "http",
}

// toSnakeCase splits on case changes, keeping runs of capitals together:
// UserID -> user_id, HTTPServer -> http_server, Address2Line -> address2_line.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if s, ok := initialisms[name]; ok {
		return s
	}
	if strings.Contains(name, "_") && strings.ToLower(name) == name {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
