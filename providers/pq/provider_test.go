package pq

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/Konsultn-Engineering/postmodel/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pq.Error{Code: "23505"}, errs.ErrIntegrity},
		{"not null violation", &pq.Error{Code: "23502"}, errs.ErrIntegrity},
		{"undefined table", &pq.Error{Code: "42P01"}, errs.ErrOperational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.Nil(t, Classify(errors.New("dial tcp: refused")))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "postgres", New().Dialect().Name())
}
