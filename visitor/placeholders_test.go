package visitor

import (
	"testing"

	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []int{1, 2}, Placeholders(`SELECT $1, $2`, pg))
	assert.Equal(t, []int{1}, Placeholders(`SELECT '$2', "$3", $1`, pg))
	assert.Equal(t, []int{1}, Placeholders(`SELECT $$ $2 $$, $tag$ $3 $tag$, $1`, pg))
	assert.Equal(t, []int{1, 2}, Placeholders("SELECT ?, '?', `?`, ? -- ?\n", mysql))
	assert.Equal(t, []int{1}, Placeholders(`SELECT 'it\'s ?', ?`, mysql))
	assert.Equal(t, []int{1}, Placeholders(`SELECT 'it''s ?' /* ? */, ?`, lite))
	assert.Empty(t, Placeholders(`SELECT a ? b FROM t`, pg))
	assert.Equal(t, 3, CountPlaceholders(`SELECT $1, $1, $2`, pg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   *RenderedQuery
		wantErr error
	}{
		{"matching dollar", Raw(pg, "SELECT $1, $2", 1, 2), nil},
		{"reused dollar", Raw(pg, "SELECT $1, $1", 1), nil},
		{"too few params", Raw(pg, "SELECT $1, $2", 1), errs.ErrParameterCountMismatch},
		{"gap in positions", Raw(pg, "SELECT $2", 1, 2), errs.ErrParameterCountMismatch},
		{"too many params", Raw(mysql, "SELECT ?", 1, 2), errs.ErrParameterCountMismatch},
		{"quoted question mark", Raw(lite, "SELECT '?', ?", 1), nil},
		{"unbindable", Raw(pg, "SELECT $1", struct{}{}), errs.ErrUnsupportedConstruct},
		{
			"non contiguous positions",
			&RenderedQuery{SQL: "SELECT $1", Params: []Param{{Position: 2}}, Dialect: pg},
			errs.ErrParameterCountMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
