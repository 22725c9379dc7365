package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag is the parsed form of a `db:"..."` struct tag.
//
//	ID      int64     `db:"id;primary;auto"`
//	Email   string    `db:"unique;size:255"`
//	OrgID   int64     `db:"column:org;fk:orgs.id"`
//	Token   string    `db:"generator:ulid"`
//	Bio     *string   `db:"type:TEXT"`
//	Created time.Time `db:"auto_now_add"`
//	Prefs   Prefs     `db:"json"`
//	Secret  string    `db:"-"`
//
// Options are separated by ';'. A leading bare word that is not a known
// flag names the column. Maps, slices and plain structs are stored as JSON
// without the json flag.
type Tag struct {
	Column     string
	Skip       bool
	Type       string
	Size       int
	Dimension  int
	Null       bool
	NotNull    bool
	Primary    bool
	Auto       bool
	Unique     bool
	ForeignKey string
	OnDelete   string
	Generator  string
	AutoNowAdd bool
	AutoNow    bool
	JSON       bool
}

// ParseTag parses the tag value of one field. Column is left empty when the
// tag does not name one.
func ParseTag(value string) (*Tag, error) {
	tag := &Tag{}
	value = strings.TrimSpace(value)
	if value == "-" {
		tag.Skip = true
		return tag, nil
	}
	if value == "" {
		return tag, nil
	}

	for i, opt := range strings.Split(value, ";") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, hasVal := strings.Cut(opt, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		if !hasVal {
			if ok := tag.setFlag(key); !ok {
				if i != 0 {
					return nil, fmt.Errorf("unknown tag option %q", opt)
				}
				tag.Column = strings.TrimSpace(opt)
			}
			continue
		}
		if err := tag.setOption(key, val); err != nil {
			return nil, err
		}
	}
	if tag.Null && tag.NotNull {
		return nil, fmt.Errorf("tag %q is both null and not_null", value)
	}
	return tag, nil
}

func (t *Tag) setFlag(flag string) bool {
	switch flag {
	case "primary", "pk", "primary_key":
		t.Primary = true
	case "auto", "auto_increment", "autoincrement":
		t.Auto = true
	case "unique":
		t.Unique = true
	case "null":
		t.Null = true
	case "not_null", "notnull":
		t.NotNull = true
	case "auto_now_add":
		t.AutoNowAdd = true
	case "auto_now":
		t.AutoNow = true
	case "json":
		t.JSON = true
	default:
		return false
	}
	return true
}

func (t *Tag) setOption(key, val string) error {
	if val == "" {
		return fmt.Errorf("tag option %q has no value", key)
	}
	switch key {
	case "column", "name":
		t.Column = val
	case "type":
		t.Type = val
	case "size", "max_length":
		return parsePositive(key, val, &t.Size)
	case "dim", "dimension":
		return parsePositive(key, val, &t.Dimension)
	case "fk", "references":
		table, col, ok := strings.Cut(val, ".")
		if !ok || table == "" || col == "" {
			return fmt.Errorf("foreign key %q must be table.column", val)
		}
		t.ForeignKey = val
	case "on_delete":
		t.OnDelete = strings.ToUpper(strings.ReplaceAll(val, "_", " "))
	case "generator":
		t.Generator = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown tag option %q", key)
	}
	return nil
}

func parsePositive(key, val string, dst *int) error {
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fmt.Errorf("tag option %s: %q is not a positive integer", key, val)
	}
	*dst = n
	return nil
}

// references splits ForeignKey into table and column.
func (t *Tag) references() (table, column string) {
	table, column, _ = strings.Cut(t.ForeignKey, ".")
	return table, column
}
