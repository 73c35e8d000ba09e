package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForLists(t *testing.T) {
	f := ForLists("")
	assert.NoError(t, f.Validate())
	assert.Equal(t, "created_at", f.SortColumn())
	assert.Equal(t, DescSort, f.SortDirection())

	f = ForLists("name")
	assert.Equal(t, "name", f.SortColumn())
	assert.Equal(t, AscSort, f.SortDirection())
}

func TestUnknownSort(t *testing.T) {
	f := ForLists("owner_id; DROP TABLE lists")
	assert.Error(t, f.Validate())
	assert.Panics(t, func() { f.SortColumn() })
}
