// ABOUTME: Mock Store implementation for testing
// ABOUTME: In-memory fixtures with injectable failures, no SQLite needed

package wpdb

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing. Zero value is
// not usable; create with NewMockStore. Set Err to make every call fail,
// which simulates an unreachable mirror.
type MockStore struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	logins    map[string]string
	roles     map[string][]string
	roleCaps  map[string]RoleCaps
	contents  map[string]*Content
	loadCalls int
	loadDelay time.Duration
	err       error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Profile),
		logins:   make(map[string]string),
		roles:    make(map[string][]string),
		roleCaps: make(map[string]RoleCaps),
		contents: make(map[string]*Content),
	}
}

// AddUser registers a profile and its granted roles. The profile Username
// doubles as the login name the session cookie carries.
func (m *MockStore) AddUser(p *Profile, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
	m.logins[p.Username] = p.ID
	m.roles[p.ID] = append([]string(nil), roles...)
}

// AddRole registers a role with the given granted capabilities.
func (m *MockStore) AddRole(role string, caps ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc := RoleCaps{Name: role, Capabilities: make(map[string]bool, len(caps))}
	for _, c := range caps {
		rc.Capabilities[c] = true
	}
	m.roleCaps[role] = rc
}

// AddContent registers content metadata.
func (m *MockStore) AddContent(c *Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contents[c.ID] = &cp
}

// SetErr makes every subsequent call return err. Pass nil to recover.
func (m *MockStore) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetLoadDelay makes RoleCapabilities sleep before answering, so tests can
// hold several callers in flight at once.
func (m *MockStore) SetLoadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadDelay = d
}

// LoadCalls reports how many times RoleCapabilities has been invoked.
func (m *MockStore) LoadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadCalls
}

func (m *MockStore) UserIDByLogin(ctx context.Context, login string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	id, ok := m.logins[login]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *MockStore) UserProfile(ctx context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockStore) UserRoles(ctx context.Context, id string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.roles[id]...), nil
}

func (m *MockStore) RoleCapabilities(ctx context.Context) (map[string]RoleCaps, error) {
	m.mu.RLock()
	delay := m.loadDelay
	m.mu.RUnlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]RoleCaps, len(m.roleCaps))
	for role, rc := range m.roleCaps {
		caps := make(map[string]bool, len(rc.Capabilities))
		for k, v := range rc.Capabilities {
			caps[k] = v
		}
		out[role] = RoleCaps{Name: rc.Name, Capabilities: caps}
	}
	return out, nil
}

func (m *MockStore) ContentInfo(ctx context.Context, contentID string) (*Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.contents[contentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockStore) Close() error { return nil }
