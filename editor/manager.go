package editor

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"printstudio/core"
	"printstudio/render"
)

// Manager is the id-keyed registry of live editor sessions used by the
// HTTP handlers. One font catalog is shared across sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Editor
	fonts    *render.FontCatalog
}

// NewManager creates an empty session registry.
func NewManager(fonts *render.FontCatalog) *Manager {
	return &Manager{
		sessions: make(map[string]*Editor),
		fonts:    fonts,
	}
}

// Fonts returns the shared font catalog.
func (m *Manager) Fonts() *render.FontCatalog { return m.fonts }

// Create opens a new session mounted on the template and returns its id.
func (m *Manager) Create(t core.ProductTemplate) (string, *Editor, error) {
	ed, err := New(t, m.fonts)
	if err != nil {
		return "", nil, err
	}
	id := ulid.Make().String()
	m.mu.Lock()
	m.sessions[id] = ed
	m.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"template":   t.Name,
	}).Info("Editor session created")
	return id, ed, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Editor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ed, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session with id %s not found", id)
	}
	return ed, nil
}

// Close tears down a session and removes it from the registry. Closing an
// absent id is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	ed, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		ed.Close()
		logrus.WithField("session_id", id).Info("Editor session closed")
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
