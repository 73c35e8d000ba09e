// Package api is the HTTP client of the cinepwa backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cinepwa/proj/internal/domain/models"
)

const prefix = "/api/v1"

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

// do sends body as JSON and, when dst is not nil, decodes data[key] into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, key string, dst any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	u := c.baseURL + prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
			if resp.StatusCode >= 300 {
				return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			}
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	if resp.StatusCode >= 300 {
		apiErr := &Error{Method: method, Path: path, Status: resp.StatusCode, Message: env.Message}
		if raw, ok := env.Data["errors"]; ok {
			_ = json.Unmarshal(raw, &apiErr.Fields)
		}
		return apiErr
	}
	if dst == nil {
		return nil
	}
	raw, ok := env.Data[key]
	if !ok {
		return fmt.Errorf("%s %s: response has no %q", method, path, key)
	}
	return json.Unmarshal(raw, dst)
}

func (c *Client) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/anonymous", nil, nil, "session", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) RequestMagicLink(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/magic-link", nil, map[string]string{"email": email}, "", nil)
}

func (c *Client) VerifyMagicLink(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/verify", nil, map[string]string{"token": token}, "session", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, nil, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateDisplayName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/auth/user", nil, map[string]string{"display_name": name}, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, "", nil)
}

func (c *Client) MigrateUserData(ctx context.Context, oldUserID, newUserID string) error {
	body := map[string]string{"old_user_id": oldUserID, "new_user_id": newUserID}
	return c.do(ctx, http.MethodPost, "/rpc/migrate_user_data", nil, body, "", nil)
}

func (c *Client) GetListName(ctx context.Context, listID string) (string, error) {
	var name string
	if err := c.do(ctx, http.MethodGet, "/rpc/get_list_name/"+url.PathEscape(listID), nil, nil, "name", &name); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Client) ListLists(ctx context.Context, sort string) ([]models.List, error) {
	var query url.Values
	if sort != "" {
		query = url.Values{"sort": {sort}}
	}
	var lists []models.List
	if err := c.do(ctx, http.MethodGet, "/lists", query, nil, "lists", &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateList(ctx context.Context, name string) (*models.List, error) {
	var list models.List
	if err := c.do(ctx, http.MethodPost, "/lists", nil, map[string]string{"name": name}, "list", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetListDetails(ctx context.Context, listID string) (*models.ListDetails, error) {
	var details models.ListDetails
	if err := c.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID), nil, nil, "list", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) RenameList(ctx context.Context, listID, name string) (*models.List, error) {
	var list models.List
	if err := c.do(ctx, http.MethodPatch, "/lists/"+url.PathEscape(listID), nil, map[string]string{"name": name}, "list", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/lists/"+url.PathEscape(listID), nil, nil, "", nil)
}

func (c *Client) ShareURL(ctx context.Context, listID string, role models.Role) (string, error) {
	var shareURL string
	query := url.Values{"role": {string(role)}}
	if err := c.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID)+"/share", query, nil, "url", &shareURL); err != nil {
		return "", err
	}
	return shareURL, nil
}

func (c *Client) AddItem(ctx context.Context, listID string, ref models.ContentRef) (*models.ListItem, error) {
	var item models.ListItem
	if err := c.do(ctx, http.MethodPost, "/lists/"+url.PathEscape(listID)+"/items", nil, ref, "item", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/lists/items/"+url.PathEscape(itemID), nil, nil, "", nil)
}

func (c *Client) JoinList(ctx context.Context, listID, memberName string, role models.Role) (*models.ListMember, error) {
	body := map[string]string{"member_name": memberName, "role": string(role)}
	var member models.ListMember
	if err := c.do(ctx, http.MethodPost, "/lists/"+url.PathEscape(listID)+"/members", nil, body, "member", &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) RemoveMember(ctx context.Context, listID, userID string) error {
	path := "/lists/" + url.PathEscape(listID) + "/members/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

func (c *Client) ListsContainingContent(ctx context.Context, contentID int, contentType models.MediaType) (map[string]string, error) {
	query := url.Values{"content_id": {strconv.Itoa(contentID)}, "content_type": {string(contentType)}}
	var containing map[string]string
	if err := c.do(ctx, http.MethodGet, "/lists/containing", query, nil, "lists", &containing); err != nil {
		return nil, err
	}
	return containing, nil
}

func (c *Client) Watchlist(ctx context.Context) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := c.do(ctx, http.MethodGet, "/watchlist", nil, nil, "watchlist", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToWatchlist(ctx context.Context, ref models.ContentRef) error {
	return c.do(ctx, http.MethodPost, "/watchlist", nil, ref, "", nil)
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, tmdbID int) error {
	return c.do(ctx, http.MethodDelete, "/watchlist/"+strconv.Itoa(tmdbID), nil, nil, "", nil)
}

func (c *Client) MarkWatched(ctx context.Context, tmdbID int, mediaType models.MediaType) error {
	body := map[string]any{"id": tmdbID, "media_type": mediaType}
	return c.do(ctx, http.MethodPost, "/watched", nil, body, "", nil)
}

func (c *Client) MarkUnwatched(ctx context.Context, tmdbID int) error {
	return c.do(ctx, http.MethodDelete, "/watched/"+strconv.Itoa(tmdbID), nil, nil, "", nil)
}

// UserContent pulls the remote watchlist and watched ids.
func (c *Client) UserContent(ctx context.Context) (*models.UserContent, error) {
	var content models.UserContent
	if err := c.do(ctx, http.MethodGet, "/watchlist/content", nil, nil, "content", &content); err != nil {
		return nil, err
	}
	return &content, nil
}

type SyncResult struct {
	Watchlist int `json:"watchlist"`
	Watched   int `json:"watched"`
}

// SyncUserContent pushes local rows. The backend inserts only the missing ones.
func (c *Client) SyncUserContent(ctx context.Context, items []models.ContentRef, watchedIDs []int) (*SyncResult, error) {
	if items == nil {
		items = []models.ContentRef{}
	}
	if watchedIDs == nil {
		watchedIDs = []int{}
	}
	body := map[string]any{"items": items, "watched_ids": watchedIDs}
	var result SyncResult
	if err := c.do(ctx, http.MethodPost, "/watchlist/sync", nil, body, "inserted", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	var details models.ContentDetails
	path := fmt.Sprintf("/content/%s/%d", url.PathEscape(string(mediaType)), id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "content", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := c.do(ctx, http.MethodGet, "/content/search", url.Values{"query": {query}}, nil, "results", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Trending(ctx context.Context, window string) ([]models.ContentItem, error) {
	var query url.Values
	if window != "" {
		query = url.Values{"window": {window}}
	}
	var items []models.ContentItem
	if err := c.do(ctx, http.MethodGet, "/content/trending", query, nil, "results", &items); err != nil {
		return nil, err
	}
	return items, nil
}
