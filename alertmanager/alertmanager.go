// Package alertmanager is the engine's in-memory registry of emitted
// alerts: a broadcast fan-out, a query surface, and a statistics view.
// It produces no notifications itself — that is the notifier's job.
package alertmanager

import (
	"sync"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/broadcast"
)

const broadcastCapacity = 1000

// Filter narrows List results. Zero-value fields are not applied.
type Filter struct {
	ProgramID   string
	RuleName    string
	MinSeverity *alert.Severity
	Acknowledged *bool
	Resolved     *bool
}

func (f Filter) matches(a *alert.Alert) bool {
	if f.ProgramID != "" && a.ProgramID != f.ProgramID {
		return false
	}
	if f.RuleName != "" && a.RuleName != f.RuleName {
		return false
	}
	if f.MinSeverity != nil && a.Severity < *f.MinSeverity {
		return false
	}
	if f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged {
		return false
	}
	if f.Resolved != nil && a.Resolved != *f.Resolved {
		return false
	}
	return true
}

// Statistics summarizes the manager's current contents.
type Statistics struct {
	Total         int
	BySeverity    map[string]int
	Acknowledged  int
	Resolved      int
}

// Manager stores alerts in memory for the lifetime of the engine and fans
// them out to any number of broadcast subscribers (the notifier, a
// dashboard, tests).
type Manager struct {
	mu     sync.RWMutex
	byID   map[string]*alert.Alert
	order  []string
	bus    *broadcast.Bus[*alert.Alert]
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		byID: make(map[string]*alert.Alert),
		bus:  broadcast.New[*alert.Alert](broadcastCapacity),
	}
}

// Send records a alert and publishes it on the broadcast bus. It never
// fails: "no subscribers" is not an error condition for a broadcast bus.
func (m *Manager) Send(a *alert.Alert) {
	m.mu.Lock()
	m.byID[a.ID] = a
	m.order = append(m.order, a.ID)
	m.mu.Unlock()

	m.bus.Publish(a)
}

// Subscribe returns a fresh broadcast receiver, independent of the
// engine's own alert broadcast (the two buses carry the same alerts but
// are wired separately so a dashboard subscribing here doesn't compete
// with the notifier's engine-level subscription).
func (m *Manager) Subscribe() <-chan *alert.Alert {
	return m.bus.Subscribe()
}

// Unsubscribe releases a subscription returned by Subscribe.
func (m *Manager) Unsubscribe(recv <-chan *alert.Alert) {
	m.bus.Unsubscribe(recv)
}

// Get returns the alert with the given id, if present.
func (m *Manager) Get(id string) (*alert.Alert, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	return a, ok
}

// List returns alerts matching filter, oldest first.
func (m *Manager) List(filter Filter) []*alert.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*alert.Alert, 0, len(m.order))
	for _, id := range m.order {
		a := m.byID[id]
		if filter.matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// Count returns the number of alerts currently stored (Clear resets it to
// zero).
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Acknowledge marks the alert acknowledged. Returns false if id is unknown.
func (m *Manager) Acknowledge(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return false
	}
	a.Acknowledge()
	return true
}

// Resolve marks the alert resolved. Returns false if id is unknown.
func (m *Manager) Resolve(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return false
	}
	a.Resolve()
	return true
}

// Statistics summarizes the manager's current contents.
func (m *Manager) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		Total:      len(m.order),
		BySeverity: make(map[string]int),
	}
	for _, id := range m.order {
		a := m.byID[id]
		stats.BySeverity[a.Severity.String()]++
		if a.Acknowledged {
			stats.Acknowledged++
		}
		if a.Resolved {
			stats.Resolved++
		}
	}
	return stats
}

// Clear drops all stored alerts. Existing broadcast subscriptions are
// unaffected.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[string]*alert.Alert)
	m.order = nil
}
