package acf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var fieldTypes = []string{
	"email",
	"number",
	"password",
	"range",
	"text",
	"textarea",
	"url",
	"button_group",
	"checkbox",
	"radio_button",
	"select",
	"true_false",
	"file",
	"gallery",
	"image",
	"oembed",
	"wysiwyg_editor",
	"color_picker",
	"date_picker",
	"date_time_picker",
	"google_map",
	"icon_picker",
	"time_picker",
	"accordion",
	"clone",
	"flexible_content",
	"group",
	"repeater",
	"tab",
	"link",
	"page_link",
	"post_object",
	"relationship",
	"taxonomy",
	"user",
}

// FieldTypes returns the supported field types.
func FieldTypes() []string {
	return slices.Clone(fieldTypes)
}

// IsValidFieldType reports whether t is a supported field type.
func IsValidFieldType(t string) bool {
	return slices.Contains(fieldTypes, t)
}

// Field is a field definition.
type Field struct {
	Key          string         `json:"key" toml:"key" koanf:"key"`
	Name         string         `json:"name" toml:"name" koanf:"name"`
	Label        string         `json:"label,omitempty" toml:"label" koanf:"label"`
	Type         string         `json:"type" toml:"type" koanf:"type"`
	Instructions string         `json:"instructions,omitempty" toml:"instructions" koanf:"instructions"`
	Required     bool           `json:"required,omitempty" toml:"required" koanf:"required"`
	DefaultValue any            `json:"default_value,omitempty" toml:"default_value" koanf:"default_value"`
	SubFields    []Field        `json:"sub_fields,omitempty" toml:"sub_fields" koanf:"sub_fields"`
	Extra        map[string]any `json:"extra,omitempty" toml:"extra" koanf:"extra"`
}

// IsValidField reports whether f has a key, a name and a supported type.
func IsValidField(f Field) bool {
	if strings.TrimSpace(f.Key) == "" || strings.TrimSpace(f.Name) == "" {
		return false
	}
	return IsValidFieldType(f.Type)
}

// Location is one location rule. A group matches when any of its rule
// sets matches, and a rule set matches when all of its rules do.
type Location struct {
	Param    string `json:"param" toml:"param" koanf:"param"`
	Operator string `json:"operator" toml:"operator" koanf:"operator"`
	Value    string `json:"value" toml:"value" koanf:"value"`
}

// FieldGroup is a field group definition.
type FieldGroup struct {
	Key       string       `json:"key" toml:"key" koanf:"key"`
	Title     string       `json:"title" toml:"title" koanf:"title"`
	Fields    []Field      `json:"fields" toml:"fields" koanf:"fields"`
	Location  [][]Location `json:"location,omitempty" toml:"location" koanf:"location"`
	MenuOrder int          `json:"menu_order,omitempty" toml:"menu_order" koanf:"menu_order"`
	Active    *bool        `json:"active,omitempty" toml:"active" koanf:"active"`
	Modified  int64        `json:"modified,omitempty" toml:"modified" koanf:"modified"`
	// Source is the file the group was loaded from.
	Source string `json:"-" toml:"-" koanf:"-"`
}

// IsActive reports whether the group is active. Groups are active unless
// explicitly disabled.
func (g FieldGroup) IsActive() bool {
	return g.Active == nil || *g.Active
}

// Matches reports whether the group's location rules match params. A
// group without rules matches everything.
func (g FieldGroup) Matches(params map[string]string) bool {
	if len(g.Location) == 0 {
		return true
	}
	for _, set := range g.Location {
		ok := true
		for _, rule := range set {
			v, has := params[rule.Param]
			switch rule.Operator {
			case "!=":
				ok = ok && (!has || v != rule.Value)
			default:
				ok = ok && has && v == rule.Value
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func newKey(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}

// prepare fills missing keys and validates every field.
func (g *FieldGroup) prepare() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: field group has no title", ErrFieldGroup)
	}
	if g.Key == "" {
		g.Key = newKey("group_")
	}
	return prepareFields(g.Key, g.Fields)
}

func prepareFields(parent string, fields []Field) error {
	for i := range fields {
		f := &fields[i]
		if f.Key == "" {
			f.Key = newKey("field_")
		}
		if !IsValidField(*f) {
			return fmt.Errorf("%w: field %q in %s has invalid name or type %q",
				ErrFieldGroup, f.Key, parent, f.Type)
		}
		if err := prepareFields(f.Key, f.SubFields); err != nil {
			return err
		}
	}
	return nil
}

// LoadFieldGroupFile reads a field group from a .json, .yaml, .yml or
// .toml file, assigns missing keys and validates the fields.
func LoadFieldGroupFile(path string) (FieldGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FieldGroup{}, fmt.Errorf("%w: Missing ACF field group file: %s", ErrFieldGroup, path)
		}
		return FieldGroup{}, fmt.Errorf("%w: %s: %v", ErrFieldGroup, path, err)
	}

	var g FieldGroup
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &g)
	case ".toml":
		_, err = toml.Decode(string(data), &g)
	case ".yaml", ".yml":
		k := koanf.New(".")
		if err = k.Load(rawbytes.Provider(data), yaml.Parser()); err == nil {
			err = k.Unmarshal("", &g)
		}
	default:
		err = fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		return FieldGroup{}, fmt.Errorf("%w: %s: %v", ErrFieldGroup, path, err)
	}

	if err := g.prepare(); err != nil {
		return FieldGroup{}, fmt.Errorf("%s: %w", path, err)
	}
	g.Source = path
	return g, nil
}
