// ABOUTME: Maps an identity's capability set to a coarse access level
// ABOUTME: anonymous < user < privileged, total order

package auth

// AccessLevel is the coarse authorization tier derived for downstream
// consumers. The ordering is total: a higher level is never less permissive.
type AccessLevel int

const (
	LevelAnonymous AccessLevel = iota
	LevelUser
	LevelPrivileged
)

// CapEditContents is the capability that marks content-editing rights in
// the host application and elevates an identity to LevelPrivileged.
const CapEditContents = "edit_h5p_contents"

func (l AccessLevel) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelPrivileged:
		return "privileged"
	default:
		return "anonymous"
	}
}

// LevelFor computes the access level for an identity, optionally scoped to a
// content ID. The base policy does not differentiate by content yet; the
// parameter is accepted so ownership-aware refinements stay additive. Any
// such refinement must keep the result monotonic in the capability set.
func LevelFor(id *Identity, contentID string) AccessLevel {
	_ = contentID
	if id.IsAnonymous() || len(id.Roles) == 0 {
		return LevelAnonymous
	}
	if id.Can(CapEditContents) {
		return LevelPrivileged
	}
	return LevelUser
}
