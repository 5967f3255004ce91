package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromQueryClamps(t *testing.T) {
	p := FromQuery("0", "500")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)

	p = FromQuery("abc", "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)

	p = FromQuery("3", "10")
	assert.Equal(t, 20, p.Offset())
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult[string](nil, &PaginationParams{Page: 2, PerPage: 10}, 25)
	assert.NotNil(t, r.Items)
	assert.Equal(t, 3, r.Pagination.TotalPages)
	assert.True(t, r.Pagination.HasNext)
	assert.True(t, r.Pagination.HasPrev)
}
