package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, url string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", url, nil)
	return c
}

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := newTestContext(t, "/items")
		offset, limit, err := ParsePagination(c)
		require.NoError(t, err)
		assert.Equal(t, 0, offset)
		assert.Equal(t, 50, limit)
	})

	t.Run("explicit values", func(t *testing.T) {
		c := newTestContext(t, "/items?offset=20&limit=10")
		offset, limit, err := ParsePagination(c)
		require.NoError(t, err)
		assert.Equal(t, 20, offset)
		assert.Equal(t, 10, limit)
	})

	t.Run("negative offset", func(t *testing.T) {
		c := newTestContext(t, "/items?offset=-1")
		_, _, err := ParsePagination(c)
		assert.Error(t, err)
	})

	t.Run("limit above max", func(t *testing.T) {
		c := newTestContext(t, "/items?limit=500")
		_, _, err := ParsePagination(c)
		assert.Error(t, err)
	})

	t.Run("non-numeric limit", func(t *testing.T) {
		c := newTestContext(t, "/items?limit=ten")
		_, _, err := ParsePagination(c)
		assert.Error(t, err)
	})
}
