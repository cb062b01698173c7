// ABOUTME: Unit tests for the access-level policy
// ABOUTME: Base tiers plus the monotonicity property over capability sets

package auth

import (
	"testing"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name string
		id   *Identity
		want AccessLevel
	}{
		{
			name: "nil identity",
			id:   nil,
			want: LevelAnonymous,
		},
		{
			name: "anonymous sentinel",
			id:   Anonymous(),
			want: LevelAnonymous,
		},
		{
			name: "resolved but roleless",
			id:   &Identity{ID: "9", Username: "ghost", Permissions: map[string]bool{}},
			want: LevelAnonymous,
		},
		{
			name: "subscriber",
			id: &Identity{
				ID:          "2",
				Username:    "bob",
				Roles:       []string{"subscriber"},
				Permissions: map[string]bool{"read": true},
			},
			want: LevelUser,
		},
		{
			name: "editor",
			id: &Identity{
				ID:          "1",
				Username:    "alice",
				Roles:       []string{"editor"},
				Permissions: map[string]bool{"edit_posts": true, "edit_h5p_contents": true},
			},
			want: LevelPrivileged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelFor(tt.id, "42"); got != tt.want {
				t.Errorf("LevelFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLevelFor_Monotonic checks that a superset of capabilities never maps
// to a less permissive level.
func TestLevelFor_Monotonic(t *testing.T) {
	base := map[string]bool{"read": true}
	sets := []map[string]bool{
		{},
		base,
		{"read": true, "edit_posts": true},
		{"read": true, "edit_posts": true, "edit_h5p_contents": true},
	}

	for i, small := range sets {
		for _, large := range sets[i:] {
			a := &Identity{ID: "1", Roles: []string{"r"}, Permissions: small}
			b := &Identity{ID: "2", Roles: []string{"r"}, Permissions: large}
			if LevelFor(b, "") < LevelFor(a, "") {
				t.Errorf("superset %v mapped below subset %v", large, small)
			}
		}
	}
}

func TestAccessLevel_String(t *testing.T) {
	if LevelAnonymous.String() != "anonymous" ||
		LevelUser.String() != "user" ||
		LevelPrivileged.String() != "privileged" {
		t.Error("AccessLevel.String() renders unexpected names")
	}
}

func TestAccessLevel_Order(t *testing.T) {
	if !(LevelAnonymous < LevelUser && LevelUser < LevelPrivileged) {
		t.Error("access levels are not totally ordered")
	}
}
