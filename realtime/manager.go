// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

package realtime

import (
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Manager tracks live connections by session ID.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewManager() *Manager {
	return &Manager{conns: map[string]*Conn{}}
}

// Add registers conn under id, closing any connection it replaces.
func (m *Manager) Add(id string, conn *Conn) {
	m.mu.Lock()
	previous := m.conns[id]
	m.conns[id] = conn
	m.mu.Unlock()

	if previous != nil && previous != conn {
		_ = previous.Close()
	}
}

func (m *Manager) Get(id string) (*Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.conns[id]

	return conn, ok
}

// Remove unregisters and closes the connection. Unknown IDs are ignored.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	conn, ok := m.conns[id]
	delete(m.conns, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	return conn.Close()
}

// IDs returns the registered session IDs in order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.conns))
}

// CloseAll closes and unregisters every connection.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	conns := m.conns
	m.conns = map[string]*Conn{}
	m.mu.Unlock()

	var result *multierror.Error
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
