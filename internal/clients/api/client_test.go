package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinepwa/proj/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, msg string, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400,
		"message": msg,
		"data":    data,
	})
}

func TestClientDecodesData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/lists/l1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, "OK", map[string]any{
			"list": models.ListDetails{List: models.List{ID: "l1", Name: "Weekend Picks", Role: models.RoleOwner}},
		})
	}))
	defer server.Close()

	client := New(server.URL+"/", server.Client())
	client.SetToken("tok")
	details, err := client.GetListDetails(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "Weekend Picks", details.List.Name)
	assert.Equal(t, models.RoleOwner, details.List.Role)
}

func TestClientSyncBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items      []models.ContentRef `json:"items"`
			WatchedIDs []int               `json:"watched_ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body.Items)
		assert.Equal(t, []int{550}, body.WatchedIDs)
		writeEnvelope(w, http.StatusOK, "", map[string]any{"inserted": SyncResult{Watched: 1}})
	}))
	defer server.Close()

	result, err := New(server.URL, nil).SyncUserContent(context.Background(), nil, []int{550})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Watched)
}

func TestClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		data   map[string]any
		call   func(c *Client) error
		is     []error
		isNot  []error
	}{
		{
			name:   "unauthorized read",
			status: http.StatusUnauthorized,
			call:   func(c *Client) error { _, err := c.CurrentUser(context.Background()); return err },
			is:     []error{ErrUnauthorized},
			isNot:  []error{ErrRemoteWrite},
		},
		{
			name:   "missing list",
			status: http.StatusNotFound,
			call:   func(c *Client) error { _, err := c.GetListName(context.Background(), "x"); return err },
			is:     []error{ErrNotFound},
		},
		{
			name:   "forbidden write",
			status: http.StatusForbidden,
			call: func(c *Client) error {
				_, err := c.AddItem(context.Background(), "l1", models.ContentRef{ID: 1, MediaType: models.MediaMovie})
				return err
			},
			is: []error{ErrForbidden, ErrRemoteWrite},
		},
		{
			name:   "invalid email",
			status: http.StatusUnprocessableEntity,
			data:   map[string]any{"errors": map[string]string{"email": "Value must be a valid email address"}},
			call:   func(c *Client) error { return c.RequestMagicLink(context.Background(), "nope") },
			is:     []error{ErrInvalid},
		},
		{
			name:   "server failure on write",
			status: http.StatusInternalServerError,
			call:   func(c *Client) error { return c.MarkWatched(context.Background(), 1, models.MediaMovie) },
			is:     []error{ErrRemoteWrite},
			isNot:  []error{ErrNotFound},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tc.status, http.StatusText(tc.status), tc.data)
			}))
			defer server.Close()
			err := tc.call(New(server.URL, nil))
			require.Error(t, err)
			for _, target := range tc.is {
				assert.ErrorIs(t, err, target)
			}
			for _, target := range tc.isNot {
				assert.NotErrorIs(t, err, target)
			}
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			if tc.data != nil {
				assert.Contains(t, apiErr.Fields, "email")
			}
		})
	}
}

func TestClientNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/watchlist/603", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	assert.NoError(t, New(server.URL, nil).RemoveFromWatchlist(context.Background(), 603))
}
