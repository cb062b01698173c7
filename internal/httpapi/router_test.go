// ABOUTME: Tests for the HTTP surface: auth-data, content and health routes
// ABOUTME: Full router with a mock mirror behind the gate

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlumi/wpgate/internal/auth"
	"github.com/openlumi/wpgate/internal/wpdb"
)

const (
	testWordPressURL = "https://wp.example.com"
	testServiceURL   = "https://state.example.com"
)

type fixture struct {
	router   http.Handler
	verifier *auth.CookieVerifier
	store    *wpdb.MockStore
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()

	store := wpdb.NewMockStore()
	store.AddRole("editor", "edit_posts", "edit_h5p_contents")
	store.AddRole("subscriber", "read")
	store.AddUser(&wpdb.Profile{
		ID: "1", Username: "alice", DisplayName: "Alice Allman", Email: "alice@example.com",
	}, "editor")
	store.AddUser(&wpdb.Profile{
		ID: "2", Username: "bob", DisplayName: "Bob Brown", Email: "bob@example.com",
	}, "subscriber")
	store.AddContent(&wpdb.Content{
		ID: "42", Title: "Volcanoes", Parameters: `{"q":1}`,
		EmbedTypes: []string{"div"}, Library: "H5P.InteractiveVideo 1.27",
	})

	verifier := auth.NewCookieVerifier("logged-in-key", "logged-in-salt")
	caps := auth.NewCapabilityCache(store)
	resolver := auth.NewResolver(store, caps)
	gate := auth.NewGate(verifier, resolver, testWordPressURL, testServiceURL)

	router := NewRouter(RouterOptions{
		Gate:     gate,
		Behavior: auth.BehaviorReject,
		Handlers: NewHandlers(storeGetter{store}, caps),
	})
	return &fixture{router: router, verifier: verifier, store: store}
}

// storeGetter adapts the mirror store directly, bypassing the LRU cache so
// SetErr takes effect immediately.
type storeGetter struct {
	store wpdb.Store
}

func (g storeGetter) Content(ctx context.Context, contentID string) (*wpdb.Content, error) {
	return g.store.ContentInfo(ctx, contentID)
}

func (f *fixture) get(path, username string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if username != "" {
		r.AddCookie(&http.Cookie{
			Name:  auth.CookieName(testWordPressURL),
			Value: url.QueryEscape(f.verifier.Mint(username, time.Now().Add(time.Hour))),
		})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func TestAuthData(t *testing.T) {
	f := setupRouter(t)

	tests := []struct {
		name       string
		username   string
		wantLevel  string
		wantUserID string
	}{
		{name: "anonymous", username: "", wantLevel: "anonymous"},
		{name: "subscriber", username: "bob", wantLevel: "user", wantUserID: "2"},
		{name: "editor", username: "alice", wantLevel: "privileged", wantUserID: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get("/auth-data/42", tt.username)
			require.Equal(t, http.StatusOK, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantLevel, resp["level"])
			if tt.wantUserID == "" {
				// anonymous carries no userId at all
				assert.NotContains(t, w.Body.String(), "userId")
			} else {
				assert.Equal(t, tt.wantUserID, resp["userId"])
			}
		})
	}
}

func TestContent_RequiresAuth(t *testing.T) {
	f := setupRouter(t)

	w := f.get("/content/42", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContent_Authenticated(t *testing.T) {
	f := setupRouter(t)

	w := f.get("/content/42", "bob")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		EmbedTypes []string        `json:"embedTypes"`
		Parameters json.RawMessage `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.ID)
	assert.Equal(t, "Volcanoes", resp.Title)
	assert.Equal(t, []string{"div"}, resp.EmbedTypes)
	assert.JSONEq(t, `{"q":1}`, string(resp.Parameters))
}

func TestContent_NotFound(t *testing.T) {
	f := setupRouter(t)

	w := f.get("/content/999", "bob")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContent_StoreUnavailable(t *testing.T) {
	f := setupRouter(t)

	// Authenticate first so the auth pipeline has warm capability data,
	// then break the store: the content route must answer 503.
	w := f.get("/content/42", "bob")
	require.Equal(t, http.StatusOK, w.Code)

	f.store.SetErr(wpdb.ErrUnavailable)
	w = f.get("/content/42", "bob")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthData_StoreFailureIsNotAnonymous(t *testing.T) {
	f := setupRouter(t)
	f.store.SetErr(wpdb.ErrUnavailable)

	// A cookie-bearing caller during an outage gets a 503, not a silent
	// anonymous answer.
	w := f.get("/auth-data/42", "alice")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	f := setupRouter(t)

	w := f.get("/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["capability_data"])

	// Any authenticated request warms the capability cache.
	f.get("/auth-data/42", "alice")
	w = f.get("/healthz", "")
	var resp2 map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp2))
	assert.Equal(t, true, resp2["capability_data"])
}
