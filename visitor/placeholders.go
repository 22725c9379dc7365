package visitor

import (
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/postmodel/dialect"
)

// CountPlaceholders is the number of placeholder occurrences in sql.
func CountPlaceholders(sql string, d dialect.Dialect) int {
	return len(Placeholders(sql, d))
}

// Placeholders lists the parameter positions referenced by sql, skipping
// string literals, quoted identifiers and comments. Question-mark
// placeholders are numbered in order of appearance.
func Placeholders(sql string, d dialect.Dialect) []int {
	var out []int
	dollar := d.PlaceholderStyle() == dialect.PlaceholderDollar
	backslash := d.Supports(dialect.FeatureBackslashEscapes)
	identQuote := d.IdentifierQuote()

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipQuoted(sql, i, '\'', backslash)
		case c == '"' || c == identQuote:
			i = skipQuoted(sql, i, c, false)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := indexFrom(sql, i+2, "*/")
			if end < 0 {
				return out
			}
			i = end + 1
		case dollar && c == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.Atoi(sql[i+1 : j])
				out = append(out, n)
				i = j - 1
				continue
			}
			i = skipDollarQuoted(sql, i)
		case !dollar && c == '?':
			out = append(out, len(out)+1)
		}
	}
	return out
}

// skipQuoted returns the index of the closing quote of the literal opened at i.
func skipQuoted(sql string, i int, q byte, backslash bool) int {
	for j := i + 1; j < len(sql); j++ {
		switch {
		case backslash && sql[j] == '\\':
			j++
		case sql[j] == q:
			if j+1 < len(sql) && sql[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return len(sql)
}

// skipDollarQuoted skips a $tag$...$tag$ string opened at i. A lone $ is
// left alone.
func skipDollarQuoted(sql string, i int) int {
	j := i + 1
	for j < len(sql) && (sql[j] == '_' || sql[j] >= 'a' && sql[j] <= 'z' || sql[j] >= 'A' && sql[j] <= 'Z') {
		j++
	}
	if j >= len(sql) || sql[j] != '$' {
		return i
	}
	tag := sql[i : j+1]
	end := indexFrom(sql, j+1, tag)
	if end < 0 {
		return len(sql)
	}
	return end + len(tag) - 1
}

func indexFrom(s string, from int, sub string) int {
	if from > len(s) {
		return -1
	}
	k := strings.Index(s[from:], sub)
	if k < 0 {
		return -1
	}
	return from + k
}
