package store

import (
	"context"
	"maps"
	"sync"
)

// Memory keeps global variables in process memory
type Memory struct {
	mu      sync.Mutex
	servers map[string]map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{servers: make(map[string]map[string]string)}
}

func (m *Memory) Get(_ context.Context, serverID, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.servers[serverID][name]
	return v, ok, nil
}

func (m *Memory) Upsert(_ context.Context, serverID, name, value string) error {
	if err := validateKey(serverID, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(serverID, name, value)
	return nil
}

func (m *Memory) Update(_ context.Context, serverID, name string, fn UpdateFunc) (string, error) {
	if err := validateKey(serverID, name); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.servers[serverID][name]
	value, err := fn(old, ok)
	if err != nil {
		return old, err
	}
	m.set(serverID, name, value)
	return value, nil
}

func (m *Memory) List(_ context.Context, serverID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := maps.Clone(m.servers[serverID])
	if out == nil {
		out = make(map[string]string)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, serverID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.servers[serverID], name)
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := 0
	for _, vars := range m.servers {
		keys += len(vars)
	}
	return Stats{Backend: BackendMemory, Keys: keys}, nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) set(serverID, name, value string) {
	vars, ok := m.servers[serverID]
	if !ok {
		vars = make(map[string]string)
		m.servers[serverID] = vars
	}
	vars[name] = value
}
