package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Calculate returns the row offset and limit for a page. Sizes outside
// 1..MaxPageSize fall back to DefaultPageSize.
func Calculate(page, size int) (offset, limit int) {
	page = ClampPage(page)
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

func TotalPages(total int64, size int) int64 {
	if size <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
