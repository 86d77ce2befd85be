package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(41, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(41), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParsePaginationParams(t *testing.T) {
	page, size := ParsePaginationParams(testContext("/?page=4&size=50"))
	assert.Equal(t, 4, page)
	assert.Equal(t, 50, size)

	page, size = ParsePaginationParams(testContext("/?page=-1&size=abc"))
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestParseOptionalID(t *testing.T) {
	id, err := ParseOptionalID(testContext("/?student_id=12"), "student_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(12), *id)

	id, err = ParseOptionalID(testContext("/"), "student_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseOptionalID(testContext("/?student_id=x"), "student_id")
	assert.Error(t, err)
}
