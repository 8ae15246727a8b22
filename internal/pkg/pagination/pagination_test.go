package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromContextClamps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=0&size=1000", nil)

	q := FromContext(c)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxSize, q.Size)
}

func TestMeta(t *testing.T) {
	m := Meta(Query{Page: 2, Size: 10}, 25)
	assert.Equal(t, 3, m.TotalPage)
	assert.True(t, m.HasNextPage)

	m = Meta(Query{Page: 3, Size: 10}, 25)
	assert.False(t, m.HasNextPage)
}

func TestFromContextLimitAlias(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=3&limit=15", nil)

	q := FromContext(c)
	assert.Equal(t, Query{Page: 3, Size: 15}, q)
	assert.Equal(t, 30, q.Offset())
}

func TestWindow(t *testing.T) {
	start, end := Query{Page: 2, Size: 10}.Window(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = Query{Page: 4, Size: 10}.Window(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}
