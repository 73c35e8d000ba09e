// Package decoder fills query-string DTOs.
package decoder

import (
	"net/url"

	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("json")
	return d
}

// Decode copies src into the struct pointed to by dst. Fields are matched by
// their json tag.
func Decode(dst any, src url.Values) error {
	return decoder.Decode(dst, src)
}
