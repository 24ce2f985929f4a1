package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page, size  int
		offset, lim int
	}{
		{name: "first page", page: 1, size: 10, offset: 0, lim: 10},
		{name: "third page", page: 3, size: 20, offset: 40, lim: 20},
		{name: "page below one", page: 0, size: 5, offset: 0, lim: 5},
		{name: "size zero", page: 2, size: 0, offset: 10, lim: DefaultPageSize},
		{name: "size too big", page: 1, size: 1000, offset: 0, lim: DefaultPageSize},
		{name: "max size", page: 2, size: MaxPageSize, offset: 100, lim: 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.lim, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
	assert.Equal(t, -1, ParseIntDefault("-1", 7))
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 0, TotalPages(0, 10))
	assert.EqualValues(t, 1, TotalPages(10, 10))
	assert.EqualValues(t, 2, TotalPages(11, 10))
	assert.EqualValues(t, 0, TotalPages(5, 0))
}
