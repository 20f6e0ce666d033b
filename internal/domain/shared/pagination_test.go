package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateFirstPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	result := Paginate(items, PageRequest{Page: 1, Limit: 2})

	assert.Equal(t, []int{1, 2}, result.Data)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 3, result.TotalPages)
}

func TestPaginateLastPartialPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	result := Paginate(items, PageRequest{Page: 3, Limit: 2})

	assert.Equal(t, []int{5}, result.Data)
	assert.Equal(t, 3, result.TotalPages)
}

func TestPaginatePastEnd(t *testing.T) {
	items := []int{1, 2, 3}

	result := Paginate(items, PageRequest{Page: 10, Limit: 2})

	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, 2, result.TotalPages)
}

func TestPaginateEmptyCollection(t *testing.T) {
	result := Paginate([]string{}, DefaultPageRequest())

	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, 0, result.TotalPages)
}

func TestPaginateNormalizesBadInput(t *testing.T) {
	items := []int{1, 2, 3}

	result := Paginate(items, PageRequest{Page: 0, Limit: -5})

	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.Limit)
	assert.Equal(t, []int{1}, result.Data)
}

func TestNormalize(t *testing.T) {
	req := PageRequest{Page: -1, Limit: 0}.Normalize()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 1, req.Limit)

	req = PageRequest{Page: 3, Limit: 50}.Normalize()
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 50, req.Limit)
}
