package acf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// PostOptions is the post ID under which options page values live.
const PostOptions = "options"

// Store holds the registered field groups and the field values per post.
type Store struct {
	mu     sync.RWMutex
	groups map[string]FieldGroup
	order  []string
	values map[string]map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		groups: make(map[string]FieldGroup),
		values: make(map[string]map[string]any),
	}
}

// AddFieldGroup registers g, replacing a group with the same key.
func (s *Store) AddFieldGroup(g FieldGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.Key]; !ok {
		s.order = append(s.order, g.Key)
	}
	s.groups[g.Key] = g
}

// RemoveFieldGroup unregisters the group with key.
func (s *Store) RemoveFieldGroup(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[key]; !ok {
		return false
	}
	delete(s.groups, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	return true
}

// FieldGroups returns the active groups matching filter, ordered by menu
// order then registration order.
func (s *Store) FieldGroups(filter map[string]string) []FieldGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FieldGroup, 0, len(s.order))
	for _, key := range s.order {
		g := s.groups[key]
		if g.IsActive() && g.Matches(filter) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MenuOrder < out[j].MenuOrder })
	return out
}

// FieldGroup returns the group with key, or with title when no key
// matches.
func (s *Store) FieldGroup(keyOrTitle string) (FieldGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.groups[keyOrTitle]; ok {
		return g, true
	}
	for _, key := range s.order {
		if g := s.groups[key]; g.Title == keyOrTitle {
			return g, true
		}
	}
	return FieldGroup{}, false
}

// Field finds a top-level field by key or name across all groups.
func (s *Store) Field(selector string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.order {
		for _, f := range s.groups[key].Fields {
			if f.Key == selector || f.Name == selector {
				return f, true
			}
		}
	}
	return Field{}, false
}

// name resolves a selector to the field name values are stored under.
// Unknown selectors are used as-is.
func (s *Store) name(selector string) string {
	if f, ok := s.Field(selector); ok {
		return f.Name
	}
	return selector
}

// Value returns the stored value of selector for postID.
func (s *Store) Value(postID, selector string) (any, bool) {
	name := s.name(selector)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[postKey(postID)][name]
	return v, ok
}

// Values returns a copy of every value stored for postID.
func (s *Store) Values(postID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.values[postKey(postID)]
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SetValue stores value for selector on postID.
func (s *Store) SetValue(postID, selector string, value any) {
	name := s.name(selector)
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := postKey(postID)
	if s.values[pk] == nil {
		s.values[pk] = make(map[string]any)
	}
	s.values[pk][name] = value
}

// DeleteValue removes the value of selector on postID.
func (s *Store) DeleteValue(postID, selector string) bool {
	name := s.name(selector)
	s.mu.Lock()
	defer s.mu.Unlock()
	vals := s.values[postKey(postID)]
	if _, ok := vals[name]; !ok {
		return false
	}
	delete(vals, name)
	return true
}

func postKey(postID string) string {
	if postID = strings.TrimSpace(postID); postID == "" || postID == "option" {
		return PostOptions
	}
	return postID
}

// SaveJSON writes g to dir as "<key>.json", stamping the modification
// time.
func SaveJSON(dir string, g FieldGroup) (string, error) {
	g.Modified = time.Now().Unix()
	data, err := json.MarshalIndent(g, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode field group %s: %w", g.Key, err)
	}
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, g.Key+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadJSONDir loads every *.json field group in dir into s and returns
// how many were loaded. Invalid files are reported in the error but do
// not stop the others.
func (s *Store) LoadJSONDir(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(matches)

	var errs []error
	n := 0
	for _, path := range matches {
		g, err := LoadFieldGroupFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.AddFieldGroup(g)
		n++
	}
	return n, errors.Join(errs...)
}

// RemoveSource unregisters every group loaded from path and returns how
// many were removed.
func (s *Store) RemoveSource(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, g := range s.groups {
		if g.Source == path {
			delete(s.groups, key)
			n++
		}
	}
	if n > 0 {
		s.order = slices.DeleteFunc(s.order, func(k string) bool {
			_, ok := s.groups[k]
			return !ok
		})
	}
	return n
}
