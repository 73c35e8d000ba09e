package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, Percent(0), NewPercent(3, 0))
	assert.Equal(t, Percent(50), NewPercent(5, 10))
	assert.Equal(t, Percent(100), NewPercent(12, 10))

	b, err := json.Marshal(NewPercent(1, 3))
	require.NoError(t, err)
	assert.Equal(t, `"33%"`, string(b))
}
