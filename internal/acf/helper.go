package acf

import (
	"fmt"
	"slices"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

// PageRegistrar registers options pages.
type PageRegistrar interface {
	AddOptionsPage(page platform.OptionsPage)
	AddOptionsSubPage(page platform.OptionsPage)
}

// FieldObject is a field definition with its value for one post.
type FieldObject struct {
	Field
	Value any `json:"value"`
}

// Helper is the read/write facade over field groups and field values.
// Repeater rows are addressed with 1-based indexes.
type Helper struct {
	store    *Store
	settings Settings
	pages    PageRegistrar
}

// NewHelper creates a helper over store.
func NewHelper(store *Store, settings Settings, pages PageRegistrar) *Helper {
	return &Helper{store: store, settings: settings.Clone(), pages: pages}
}

// FieldGroups returns the active groups matching filter.
func (h *Helper) FieldGroups(filter map[string]string) []FieldGroup {
	return h.store.FieldGroups(filter)
}

// FieldGroup returns a group by key or title.
func (h *Helper) FieldGroup(key string) (FieldGroup, bool) {
	return h.store.FieldGroup(key)
}

// Fields returns the fields of a group, or the sub fields of a field.
func (h *Helper) Fields(parent string) []Field {
	if g, ok := h.store.FieldGroup(parent); ok {
		return slices.Clone(g.Fields)
	}
	if f, ok := h.store.Field(parent); ok {
		return slices.Clone(f.SubFields)
	}
	return nil
}

// FieldObject returns the definition and value of selector on postID.
func (h *Helper) FieldObject(selector, postID string) (FieldObject, bool) {
	f, ok := h.store.Field(selector)
	if !ok {
		return FieldObject{}, false
	}
	return FieldObject{Field: f, Value: h.Field(selector, postID)}, true
}

// FieldObjects returns the field objects of every value stored on postID
// that has a known definition, keyed by field name.
func (h *Helper) FieldObjects(postID string) map[string]FieldObject {
	out := make(map[string]FieldObject)
	for name := range h.store.Values(postID) {
		if obj, ok := h.FieldObject(name, postID); ok {
			out[name] = obj
		}
	}
	return out
}

// Field returns the value of selector on postID, or the field default.
func (h *Helper) Field(selector, postID string) any {
	if v, ok := h.store.Value(postID, selector); ok {
		return v
	}
	if f, ok := h.store.Field(selector); ok {
		return f.DefaultValue
	}
	return nil
}

// FieldValues returns every value stored on postID.
func (h *Helper) FieldValues(postID string) map[string]any {
	return h.store.Values(postID)
}

// UpdateField stores value for selector on postID.
func (h *Helper) UpdateField(selector string, value any, postID string) bool {
	if selector == "" {
		return false
	}
	h.store.SetValue(postID, selector, value)
	return true
}

// DeleteField removes the value of selector on postID.
func (h *Helper) DeleteField(selector, postID string) bool {
	return h.store.DeleteValue(postID, selector)
}

// Rows returns the repeater rows of selector on postID.
func (h *Helper) Rows(selector, postID string) []map[string]any {
	v, _ := h.store.Value(postID, selector)
	rows, _ := v.([]map[string]any)
	return rows
}

// HaveRows reports whether selector has at least one row.
func (h *Helper) HaveRows(selector, postID string) bool {
	return len(h.Rows(selector, postID)) > 0
}

// AddRow appends row to selector on postID.
func (h *Helper) AddRow(selector string, row map[string]any, postID string) bool {
	rows := slices.Clone(h.Rows(selector, postID))
	h.store.SetValue(postID, selector, append(rows, row))
	return true
}

// UpdateRow replaces row i.
func (h *Helper) UpdateRow(selector string, i int, row map[string]any, postID string) bool {
	rows := slices.Clone(h.Rows(selector, postID))
	if i < 1 || i > len(rows) {
		return false
	}
	rows[i-1] = row
	h.store.SetValue(postID, selector, rows)
	return true
}

// DeleteRow removes row i.
func (h *Helper) DeleteRow(selector string, i int, postID string) bool {
	rows := slices.Clone(h.Rows(selector, postID))
	if i < 1 || i > len(rows) {
		return false
	}
	h.store.SetValue(postID, selector, slices.Delete(rows, i-1, i))
	return true
}

// RowIndex converts a zero-based loop position to the displayed row index.
func (h *Helper) RowIndex(i int) int {
	return h.settings.RowIndexOffset + i
}

// AddOptionsPage registers an options page.
func (h *Helper) AddOptionsPage(page platform.OptionsPage) bool {
	if h.pages == nil {
		return false
	}
	h.pages.AddOptionsPage(page)
	return true
}

// AddOptionsSubPage registers an options sub-page.
func (h *Helper) AddOptionsSubPage(page platform.OptionsPage) bool {
	if h.pages == nil {
		return false
	}
	h.pages.AddOptionsSubPage(page)
	return true
}

// SaveFieldGroup validates g, registers it and, when local JSON is on,
// writes it to the save_json directory. It returns the written path.
func (h *Helper) SaveFieldGroup(g FieldGroup) (string, error) {
	if err := g.prepare(); err != nil {
		return "", err
	}
	h.store.AddFieldGroup(g)
	if !h.settings.JSON {
		return "", nil
	}
	path, err := SaveJSON(h.settings.SaveJSON, g)
	if err != nil {
		return "", fmt.Errorf("failed to save field group %s: %w", g.Key, err)
	}
	return path, nil
}
