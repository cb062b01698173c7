// ABOUTME: Shared database/sql implementation of the mirror read queries
// ABOUTME: Used by both the MySQL and SQLite backends, which differ only in how they open

package wpdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// DefaultQueryTimeout bounds every mirror query so an unreachable database
// cannot stall the authentication pipeline indefinitely.
const DefaultQueryTimeout = 5 * time.Second

// sqlStore implements Store over a database/sql pool. The SQL is identical
// for MySQL and SQLite since both use ? placeholders.
type sqlStore struct {
	db      *sql.DB
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

func newSQLStore(db *sql.DB, prefix string, timeout time.Duration) *sqlStore {
	if prefix == "" {
		prefix = "wp_"
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &sqlStore{
		db:      db,
		prefix:  prefix,
		timeout: timeout,
		logger:  slog.Default().With("component", "wpdb"),
	}
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) UserIDByLogin(ctx context.Context, login string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT ID FROM %susers WHERE user_login = ?", s.prefix)

	var id string
	err := s.db.QueryRowContext(ctx, query, login).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: querying user id: %v", ErrUnavailable, err)
	}
	return id, nil
}

func (s *sqlStore) UserProfile(ctx context.Context, id string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT user_nicename, display_name, user_email FROM %susers WHERE ID = ?",
		s.prefix,
	)

	p := &Profile{ID: id}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.Username, &p.DisplayName, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying user profile: %v", ErrUnavailable, err)
	}

	s.logger.Debug("loaded user profile", "user_id", id)
	return p, nil
}

func (s *sqlStore) UserRoles(ctx context.Context, id string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT meta_value FROM %susermeta WHERE user_id = ? AND meta_key = ?",
		s.prefix,
	)

	var meta []byte
	err := s.db.QueryRowContext(ctx, query, id, s.prefix+"capabilities").Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		// A user row can exist without a capabilities meta entry; that is
		// a user with no roles, not a missing user.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying user roles: %v", ErrUnavailable, err)
	}

	roles, err := decodeCapsMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("decoding roles for user %s: %w", id, err)
	}
	return roles, nil
}

func (s *sqlStore) RoleCapabilities(ctx context.Context) (map[string]RoleCaps, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT option_value FROM %soptions WHERE option_name = ?",
		s.prefix,
	)

	var blob []byte
	err := s.db.QueryRowContext(ctx, query, s.prefix+"user_roles").Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("option %suser_roles: %w", s.prefix, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying role capabilities: %v", ErrUnavailable, err)
	}

	roles, err := decodeRoleBlob(blob)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("loaded role capabilities", "roles", len(roles))
	return roles, nil
}

func (s *sqlStore) ContentInfo(ctx context.Context, contentID string) (*Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT c.title, c.parameters, c.embed_type,
		       l.name, l.major_version, l.minor_version
		FROM %sh5p_contents c
		JOIN %sh5p_libraries l ON c.library_id = l.id
		WHERE c.id = ?`,
		s.prefix, s.prefix,
	)

	var (
		content   = &Content{ID: contentID}
		embedType string
		libName   string
		major     int
		minor     int
	)
	err := s.db.QueryRowContext(ctx, query, contentID).
		Scan(&content.Title, &content.Parameters, &embedType, &libName, &major, &minor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying content info: %v", ErrUnavailable, err)
	}

	// The host stores a single embed type column; downstream consumers
	// take a list, so wrap it.
	content.EmbedTypes = []string{embedType}
	content.Library = libName + " " + strconv.Itoa(major) + "." + strconv.Itoa(minor)
	return content, nil
}
