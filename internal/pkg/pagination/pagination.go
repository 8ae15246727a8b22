package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/pkg/response"
)

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext reads ?page and ?size (alias ?limit), clamped to [1, MaxSize].
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.Query("page"), DefaultPage)
	sizeRaw := c.Query("size")
	if sizeRaw == "" {
		sizeRaw = c.Query("limit")
	}
	size := parseIntOr(sizeRaw, DefaultSize)

	if page < 1 {
		page = DefaultPage
	}
	switch {
	case size < 1:
		size = DefaultSize
	case size > MaxSize:
		size = MaxSize
	}
	return Query{Page: page, Size: size}
}

// Offset is the number of rows to skip for the page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Size
}

// Window clamps the page to a slice of n items, for in-memory listings.
func (q Query) Window(n int) (start, end int) {
	start = q.Offset()
	if start > n {
		start = n
	}
	end = start + q.Size
	if end > n {
		end = n
	}
	return start, end
}

// Meta computes pagination metadata for a known total.
func Meta(q Query, total int64) response.Pagination {
	totalPage := 0
	if q.Size > 0 {
		totalPage = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
