// Package elements owns the per-session tables mapping opaque element ids
// to live driver element references. The tables are pure bookkeeping:
// storing or looking up a handle never issues an automation command, so
// this package's lock never contends with any session's command lock.
package elements

import (
	"sync"

	"github.com/google/uuid"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/driver"
)

// Manager stores element references discovered by find, wait, and script
// operations. Ids are UUIDs, globally unique even though session scoping
// would suffice, which keeps debugging unambiguous and rules out any
// cross-session collision under id reuse.
//
// There is no eviction: memory is bounded by the elements discovered per
// session and released in bulk when the session closes.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]map[string]driver.Element
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]map[string]driver.Element)}
}

// Store records el under a fresh id for sessionID and returns the id.
// It never fails.
func (m *Manager) Store(sessionID string, el driver.Element) string {
	elementID := uuid.New().String()

	m.mu.Lock()
	table, ok := m.sessions[sessionID]
	if !ok {
		table = make(map[string]driver.Element)
		m.sessions[sessionID] = table
	}
	table[elementID] = el
	m.mu.Unlock()

	return elementID
}

// Get returns the element stored under (sessionID, elementID). A miss means
// the handle was never issued or its session was cleared; it does NOT imply
// the element is stale. Staleness only surfaces when an operation against
// the reference is attempted.
func (m *Manager) Get(sessionID, elementID string) (driver.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, ok := m.sessions[sessionID]
	if !ok {
		return nil, schemas.Errorf(schemas.KindElementNotFound, "element not found or expired: %s", elementID)
	}
	el, ok := table[elementID]
	if !ok {
		return nil, schemas.Errorf(schemas.KindElementNotFound, "element not found or expired: %s", elementID)
	}
	return el, nil
}

// ClearSession drops every entry for sessionID. Called exactly once per
// session, from the registry's close path.
func (m *Manager) ClearSession(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Count reports how many handles sessionID currently holds. Diagnostic
// only; handle tables are unbounded by design.
func (m *Manager) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}
