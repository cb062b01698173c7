// ABOUTME: Identity value type and the anonymous sentinel
// ABOUTME: Built field-by-field per resolution, never persisted or merged dynamically

package auth

// Identity is the resolved record for an authenticated user. Permissions is
// always the union of capability sets across Roles, recomputed on every
// resolution; only the per-role capability lookup behind it is cached.
type Identity struct {
	ID          string // host application's user primary key
	Username    string
	DisplayName string
	Email       string
	Roles       []string
	Permissions map[string]bool
}

// Anonymous returns the sentinel identity for unauthenticated callers. The
// connection-upgrade path hands this out instead of failing, so a downgraded
// connection can still be opened.
func Anonymous() *Identity {
	return &Identity{Permissions: map[string]bool{}}
}

// IsAnonymous reports whether this is the unauthenticated sentinel (or nil).
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.ID == ""
}

// Can reports whether the identity holds the named capability.
func (id *Identity) Can(capability string) bool {
	if id == nil {
		return false
	}
	return id.Permissions[capability]
}
