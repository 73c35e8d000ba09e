package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"Name":        "name",
		"MemberName":  "member_name",
		"TMDBID":      "tmdbid",
		"ContentID":   "content_id",
		"already_ok":  "already_ok",
		"DisplayName": "display_name",
	}
	for in, want := range cases {
		assert.Equal(t, want, CamelToSnake(in), in)
	}
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "ana.souza", EmailLocalPart("ana.souza@example.com"))
	assert.Equal(t, "weird@name", EmailLocalPart("weird@name@example.com"))
	assert.Equal(t, "nobody", EmailLocalPart("  nobody "))
}
