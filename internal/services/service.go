package services

import (
	"context"
	"fmt"
	"strings"
)

// Service is the contract every registered service satisfies.
type Service interface {
	Boot(ctx context.Context) error
}

// KeyPrefix prefixes every service binding key.
const KeyPrefix = "wp."

// Key returns the container key a service name is bound under.
func Key(name string) string {
	return KeyPrefix + name
}

// Class names a service implementation in a Catalog.
type Class string

// Entry pairs a service name with its class.
type Entry struct {
	Name  string `json:"name" koanf:"name"`
	Class Class  `json:"class" koanf:"class"`
}

// Map is the ordered, immutable set of registered services.
type Map struct {
	entries []Entry
	index   map[string]int
}

// NewMap builds a map. Names must be unique and non-empty.
func NewMap(entries ...Entry) (*Map, error) {
	m := &Map{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: service name must not be empty (class [%s])", ErrInvalidService, e.Class)
		}
		if _, dup := m.index[name]; dup {
			return nil, fmt.Errorf("%w: WordPress service [%s] is registered twice", ErrInvalidService, name)
		}
		m.index[name] = len(m.entries)
		m.entries = append(m.entries, Entry{Name: name, Class: e.Class})
	}
	return m, nil
}

// Lookup returns the class registered for name.
func (m *Map) Lookup(name string) (Class, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[name]
	if !ok {
		return "", false
	}
	return m.entries[i].Class, true
}

// Names returns the service names in registration order.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the entries in registration order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of services.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
