// ABOUTME: Tests for the SQL-backed mirror store against a SQLite fixture
// ABOUTME: Seeds a WordPress-shaped schema and exercises all read queries

package wpdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite mirror seeded with two users,
// the role blob fixture and one piece of content.
func setupTestStore(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mirror.db")

	store, err := OpenSQLite(dbPath, "wp_", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, CreateMirrorSchema(store, "wp_"))

	seed := []struct {
		query string
		args  []interface{}
	}{
		{
			"INSERT INTO wp_users (ID, user_login, user_nicename, display_name, user_email) VALUES (?, ?, ?, ?, ?)",
			[]interface{}{1, "alice", "alice", "Alice Allman", "alice@example.com"},
		},
		{
			"INSERT INTO wp_users (ID, user_login, user_nicename, display_name, user_email) VALUES (?, ?, ?, ?, ?)",
			[]interface{}{2, "bob", "bob", "Bob Brown", "bob@example.com"},
		},
		{
			"INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)",
			[]interface{}{1, "wp_capabilities", `a:1:{s:6:"editor";b:1;}`},
		},
		{
			"INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)",
			[]interface{}{2, "wp_capabilities", `a:1:{s:10:"subscriber";b:1;}`},
		},
		{
			"INSERT INTO wp_options (option_name, option_value) VALUES (?, ?)",
			[]interface{}{"wp_user_roles", roleBlobFixture},
		},
		{
			"INSERT INTO wp_h5p_libraries (id, name, major_version, minor_version) VALUES (?, ?, ?, ?)",
			[]interface{}{7, "H5P.InteractiveVideo", 1, 27},
		},
		{
			"INSERT INTO wp_h5p_contents (id, title, parameters, embed_type, library_id) VALUES (?, ?, ?, ?, ?)",
			[]interface{}{42, "Volcanoes", `{"question":"?"}`, "div", 7},
		},
	}
	for _, s := range seed {
		require.NoError(t, Exec(store, s.query, s.args...))
	}

	return store
}

func TestSQLStore_UserProfile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p, err := store.UserProfile(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "Alice Allman", p.DisplayName)
	assert.Equal(t, "alice@example.com", p.Email)
}

func TestSQLStore_UserIDByLogin(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.UserIDByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	_, err = store.UserIDByLogin(ctx, "mallory")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_UserProfile_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.UserProfile(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_UserRoles(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	roles, err := store.UserRoles(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, roles)

	// No usermeta row means no roles, not an error.
	roles, err = store.UserRoles(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestSQLStore_RoleCapabilities(t *testing.T) {
	store := setupTestStore(t)

	roles, err := store.RoleCapabilities(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.True(t, roles["editor"].Capabilities["edit_h5p_contents"])
	assert.False(t, roles["subscriber"].Capabilities["edit_h5p_contents"])
}

func TestSQLStore_ContentInfo(t *testing.T) {
	store := setupTestStore(t)

	c, err := store.ContentInfo(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes", c.Title)
	assert.Equal(t, []string{"div"}, c.EmbedTypes)
	assert.Equal(t, "H5P.InteractiveVideo 1.27", c.Library)
	assert.JSONEq(t, `{"question":"?"}`, c.Parameters)
}

func TestSQLStore_ContentInfo_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.ContentInfo(context.Background(), "777")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_UnavailableAfterClose(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.UserProfile(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable), "closed store should report ErrUnavailable, got %v", err)
}
