// Package sharing implements the stateless share link of a personal
// watchlist: the titles travel base64 encoded inside the URL.
package sharing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/watchlist"
)

var ErrDecode = errors.New("malformed shared list payload")

type entry struct {
	ID   int              `json:"id"`
	Type models.MediaType `json:"type"`
}

func Encode(refs []models.ContentRef) string {
	entries := make([]entry, len(refs))
	for i, ref := range refs {
		entries[i] = entry{ID: ref.ID, Type: ref.MediaType}
	}
	raw, _ := json.Marshal(entries)
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode accepts standard and URL-safe base64, padded or not.
func Decode(data string) ([]models.ContentRef, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrDecode
	}
	raw, err := decodeBase64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	refs := make([]models.ContentRef, 0, len(entries))
	for _, e := range entries {
		if e.ID <= 0 || !e.Type.Valid() {
			return nil, fmt.Errorf("%w: invalid entry {id: %d, type: %q}", ErrDecode, e.ID, e.Type)
		}
		refs = append(refs, models.ContentRef{ID: e.ID, MediaType: e.Type})
	}
	return refs, nil
}

func decodeBase64(data string) ([]byte, error) {
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		var raw []byte
		if raw, err = enc.DecodeString(data); err == nil {
			return raw, nil
		}
	}
	return nil, err
}

// URL returns the share link for refs under baseURL.
func URL(baseURL string, refs []models.ContentRef) string {
	return strings.TrimRight(baseURL, "/") + "/shared?" + url.Values{"data": {Encode(refs)}}.Encode()
}

type SharingService struct {
	log     *slog.Logger
	content watchlist.ContentProvider
}

func New(log *slog.Logger, content watchlist.ContentProvider) *SharingService {
	return &SharingService{log: log, content: content}
}

// Resolve decodes a shared payload and looks every title up in parallel.
func (s *SharingService) Resolve(ctx context.Context, data string) ([]models.ContentItem, error) {
	const op = "sharing.SharingService.Resolve"
	log := s.log.With("op", op)
	refs, err := Decode(data)
	if err != nil {
		log.Info("rejected shared payload", "errMsg", err.Error())
		return nil, err
	}
	return watchlist.Hydrate(ctx, log, s.content, refs), nil
}
