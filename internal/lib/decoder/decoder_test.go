package decoder

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discoverQuery struct {
	MediaType string  `json:"media_type"`
	WithCast  int     `json:"with_cast"`
	MinRating float64 `json:"min_rating"`
}

func TestDecode(t *testing.T) {
	var q discoverQuery
	err := Decode(&q, url.Values{
		"media_type": {"tv"},
		"with_cast":  {"6384"},
		"min_rating": {"7.5"},
		"page":       {"2"},
	})
	require.NoError(t, err)
	assert.Equal(t, discoverQuery{MediaType: "tv", WithCast: 6384, MinRating: 7.5}, q)
}

func TestDecodeBadValue(t *testing.T) {
	var q discoverQuery
	assert.Error(t, Decode(&q, url.Values{"with_cast": {"keanu"}}))
}
