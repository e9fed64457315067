package acf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heroGroup() FieldGroup {
	return FieldGroup{
		Key:   "group_hero",
		Title: "Hero",
		Fields: []Field{
			{Key: "field_title", Name: "hero_title", Type: "text", DefaultValue: "Welcome"},
			{Key: "field_slides", Name: "slides", Type: "repeater", SubFields: []Field{
				{Key: "field_image", Name: "image", Type: "image"},
			}},
		},
	}
}

func newTestHelper(t *testing.T, in Input) (*Helper, *platform.Runtime) {
	t.Helper()
	rt := platform.NewRuntime()
	store := NewStore()
	store.AddFieldGroup(heroGroup())
	return NewHelper(store, NormalizeSettings(in, Base{Root: t.TempDir()}), rt), rt
}

func TestHelper_FieldGroupsAndFields(t *testing.T) {
	h, _ := newTestHelper(t, Input{})

	groups := h.FieldGroups(nil)
	require.Len(t, groups, 1)

	g, ok := h.FieldGroup("Hero")
	require.True(t, ok, "groups resolve by title too")
	assert.Equal(t, "group_hero", g.Key)

	assert.Len(t, h.Fields("group_hero"), 2)
	sub := h.Fields("slides")
	require.Len(t, sub, 1)
	assert.Equal(t, "image", sub[0].Name)
	assert.Nil(t, h.Fields("unknown"))
}

func TestHelper_Values(t *testing.T) {
	h, _ := newTestHelper(t, Input{})

	assert.Equal(t, "Welcome", h.Field("hero_title", "42"), "default value before any update")
	assert.True(t, h.UpdateField("field_title", "Hello", "42"))
	assert.Equal(t, "Hello", h.Field("hero_title", "42"), "keys and names address the same value")
	assert.Equal(t, map[string]any{"hero_title": "Hello"}, h.FieldValues("42"))

	obj, ok := h.FieldObject("hero_title", "42")
	require.True(t, ok)
	assert.Equal(t, "field_title", obj.Key)
	assert.Equal(t, "Hello", obj.Value)
	assert.Contains(t, h.FieldObjects("42"), "hero_title")

	h.UpdateField("tagline", "Hi", "")
	assert.Equal(t, "Hi", h.Field("tagline", PostOptions), "an empty post ID means options")

	assert.True(t, h.DeleteField("hero_title", "42"))
	assert.False(t, h.DeleteField("hero_title", "42"))
	assert.False(t, h.UpdateField("", 1, "42"))
}

func TestHelper_Rows(t *testing.T) {
	h, _ := newTestHelper(t, Input{RowIndexOffset: intPtr(1)})

	assert.False(t, h.HaveRows("slides", "7"))
	h.AddRow("slides", map[string]any{"image": "a.png"}, "7")
	h.AddRow("slides", map[string]any{"image": "b.png"}, "7")
	assert.True(t, h.HaveRows("slides", "7"))

	assert.True(t, h.UpdateRow("slides", 2, map[string]any{"image": "c.png"}, "7"))
	assert.False(t, h.UpdateRow("slides", 3, nil, "7"))
	assert.True(t, h.DeleteRow("slides", 1, "7"))
	assert.False(t, h.DeleteRow("slides", 0, "7"))

	assert.Equal(t, []map[string]any{{"image": "c.png"}}, h.Rows("slides", "7"))
	assert.Equal(t, 1, h.RowIndex(0))
}

func TestHelper_OptionsPages(t *testing.T) {
	h, rt := newTestHelper(t, Input{})
	assert.True(t, h.AddOptionsPage(platform.OptionsPage{"menu_slug": "site-settings"}))
	assert.True(t, h.AddOptionsSubPage(platform.OptionsPage{"menu_slug": "footer"}))

	pages := rt.OptionsPages()
	require.Len(t, pages, 2)
	assert.Equal(t, "acf-options", pages[1].ParentSlug())

	assert.False(t, NewHelper(NewStore(), Settings{}, nil).AddOptionsPage(nil))
}

func TestHelper_SaveFieldGroup(t *testing.T) {
	h, _ := newTestHelper(t, Input{})

	path, err := h.SaveFieldGroup(FieldGroup{Title: "Footer", Fields: []Field{{Name: "copy", Type: "text"}}})
	require.NoError(t, err)
	assert.Equal(t, h.settings.SaveJSON, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved FieldGroup
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "Footer", saved.Title)
	assert.NotZero(t, saved.Modified)

	_, ok := h.FieldGroup(saved.Key)
	assert.True(t, ok)

	_, err = h.SaveFieldGroup(FieldGroup{Title: "Bad", Fields: []Field{{Name: "x", Type: "nope"}}})
	assert.ErrorIs(t, err, ErrFieldGroup)
}

func TestStore_LoadJSONDirAndRemoveSource(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "hero.json", groupJSON)
	writeFile(t, dir, "broken.json", "{")
	writeFile(t, dir, "notes.txt", "ignored")

	s := NewStore()
	n, err := s.LoadJSONDir(dir)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, ErrFieldGroup, "invalid files are reported")

	_, ok := s.FieldGroup("group_hero")
	require.True(t, ok)
	assert.Equal(t, 1, s.RemoveSource(good))
	assert.Empty(t, s.FieldGroups(nil))
}

func TestStore_FieldGroupsOrder(t *testing.T) {
	s := NewStore()
	off := false
	s.AddFieldGroup(FieldGroup{Key: "b", Title: "B", MenuOrder: 1})
	s.AddFieldGroup(FieldGroup{Key: "a", Title: "A", MenuOrder: 0})
	s.AddFieldGroup(FieldGroup{Key: "c", Title: "C", MenuOrder: 1})
	s.AddFieldGroup(FieldGroup{Key: "d", Title: "D", Active: &off})

	var keys []string
	for _, g := range s.FieldGroups(nil) {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.True(t, s.RemoveFieldGroup("b"))
	assert.False(t, s.RemoveFieldGroup("b"))
}
