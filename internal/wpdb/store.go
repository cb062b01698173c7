// ABOUTME: Store interface and data types for the read-only WordPress mirror
// ABOUTME: Defines Profile, Content structs and the Store interface for host-schema reads

package wpdb

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned (wrapped) when the mirror database cannot be
// reached or a query fails at the transport level. Callers use errors.Is to
// distinguish an unreachable store from a row that simply is not there.
var ErrUnavailable = errors.New("wordpress store unavailable")

// Profile holds the basic user fields read from the users table.
// The ID is the host application's primary key for the user.
type Profile struct {
	ID          string
	Username    string // user_nicename
	DisplayName string
	Email       string
}

// RoleCaps is the capability set attached to a single role. Only entries
// with a true flag are granted; WordPress stores explicit denials as false.
type RoleCaps struct {
	Name         string
	Capabilities map[string]bool
}

// Content holds the metadata of a single piece of content from the host
// content tables, consumed by the shared-state layer and the player route.
type Content struct {
	ID         string
	Title      string
	Parameters string // raw JSON as stored by the host
	EmbedTypes []string
	Library    string // ubername, e.g. "H5P.InteractiveVideo 1.27"
}

// Store is the read contract against the WordPress mirror. All methods are
// read-only; this service never writes to the host schema.
type Store interface {
	// UserIDByLogin returns the primary key of the user with the given
	// login name (the name carried in the session cookie).
	// Returns ErrNotFound if no such user exists.
	UserIDByLogin(ctx context.Context, login string) (string, error)

	// UserProfile returns the profile row for the given user ID.
	// Returns ErrNotFound if no such user exists.
	UserProfile(ctx context.Context, id string) (*Profile, error)

	// UserRoles returns the role names currently granted to the user,
	// decoded from the capabilities usermeta entry. A user with no roles
	// returns an empty slice, not an error.
	UserRoles(ctx context.Context, id string) ([]string, error)

	// RoleCapabilities returns the full role -> capability mapping decoded
	// from the user_roles option blob.
	RoleCapabilities(ctx context.Context) (map[string]RoleCaps, error)

	// ContentInfo returns metadata for a single content ID.
	// Returns ErrNotFound if the content does not exist.
	ContentInfo(ctx context.Context, contentID string) (*Content, error)

	// Close releases the underlying connection pool.
	Close() error
}
