// Package acf integrates the bundled Advanced Custom Fields core: settings,
// bootstrap guards, field groups, the field store and asset publishing.
package acf

import (
	"path/filepath"
	"slices"
	"strings"
)

// Default setting values.
const (
	DefaultPath       = "src/acf"
	DefaultSaveJSON   = "app/private/acf/json"
	DefaultCapability = "manage_options"
)

// Input is the raw settings section as read from configuration. Nil
// pointers select the default.
type Input struct {
	Path           string   `koanf:"path" json:"path,omitempty"`
	URL            string   `koanf:"url" json:"url,omitempty"`
	JSON           *bool    `koanf:"json" json:"json,omitempty"`
	SaveJSON       string   `koanf:"save_json" json:"save_json,omitempty"`
	LoadJSON       []string `koanf:"load_json" json:"load_json,omitempty"`
	Capability     string   `koanf:"capability" json:"capability,omitempty"`
	ShowAdmin      *bool    `koanf:"show_admin" json:"show_admin,omitempty"`
	Autoload       *bool    `koanf:"autoload" json:"autoload,omitempty"`
	ShowUpdates    *bool    `koanf:"show_updates" json:"show_updates,omitempty"`
	RowIndexOffset *int     `koanf:"row_index_offset" json:"row_index_offset,omitempty"`
	Local          *bool    `koanf:"local" json:"local,omitempty"`
}

// Base holds the application paths the defaults derive from.
type Base struct {
	// Root is the project root. Relative paths resolve against it.
	Root string
	// Storage is the storage directory, "<Root>/storage" when empty.
	Storage string
	// AssetsURL is the public URL of the published ACF assets.
	AssetsURL string
	// Debug is the default of show_admin.
	Debug bool
}

func (b Base) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.Root, p)
}

func (b Base) storage() string {
	if b.Storage != "" {
		return b.abs(b.Storage)
	}
	return b.abs("storage")
}

// Settings is the normalized, frozen ACF configuration.
type Settings struct {
	Path           string   `json:"path"`
	URL            string   `json:"url"`
	JSON           bool     `json:"json"`
	SaveJSON       string   `json:"save_json"`
	LoadJSON       []string `json:"load_json"`
	Capability     string   `json:"capability"`
	ShowAdmin      bool     `json:"show_admin"`
	Autoload       bool     `json:"autoload"`
	ShowUpdates    bool     `json:"show_updates"`
	RowIndexOffset int      `json:"row_index_offset"`
	Local          bool     `json:"local"`
}

// NormalizeSettings applies defaults to in and normalizes the result:
// paths are absolute without a trailing slash, load_json entries may be
// comma-separated lists, and load_json falls back to save_json.
func NormalizeSettings(in Input, base Base) Settings {
	s := Settings{
		Path:           base.abs(DefaultPath),
		URL:            base.AssetsURL,
		JSON:           true,
		SaveJSON:       filepath.Join(base.storage(), DefaultSaveJSON),
		Capability:     DefaultCapability,
		ShowAdmin:      base.Debug,
		Autoload:       false,
		ShowUpdates:    false,
		RowIndexOffset: 0,
		Local:          true,
	}

	if p := strings.TrimSpace(in.Path); p != "" {
		s.Path = base.abs(p)
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		s.URL = u
	}
	if sj := strings.TrimSpace(in.SaveJSON); sj != "" {
		s.SaveJSON = base.abs(sj)
	}
	if c := strings.TrimSpace(in.Capability); c != "" {
		s.Capability = c
	}
	setBool(&s.JSON, in.JSON)
	setBool(&s.ShowAdmin, in.ShowAdmin)
	setBool(&s.Autoload, in.Autoload)
	setBool(&s.ShowUpdates, in.ShowUpdates)
	setBool(&s.Local, in.Local)
	if in.RowIndexOffset != nil {
		s.RowIndexOffset = *in.RowIndexOffset
	}

	s.Path = strings.TrimRight(s.Path, "/")
	s.URL = strings.TrimRight(s.URL, "/")
	s.SaveJSON = strings.TrimRight(s.SaveJSON, `/\`)

	var loads []string
	for _, entry := range in.LoadJSON {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				p = strings.TrimRight(base.abs(p), `/\`)
				if !slices.Contains(loads, p) {
					loads = append(loads, p)
				}
			}
		}
	}
	if len(loads) == 0 {
		loads = []string{s.SaveJSON}
	}
	s.LoadJSON = loads

	return s
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.LoadJSON = slices.Clone(s.LoadJSON)
	return s
}

// EntryFile is the path of the ACF core entry file.
func (s Settings) EntryFile() string {
	return s.Path + "/" + EntryFileName
}

// Filter is one frozen settings filter.
type Filter struct {
	Hook  string
	Value any
}

// Filters returns the settings filters in registration order. Path and URL
// carry a trailing slash.
func (s Settings) Filters() []Filter {
	return []Filter{
		{"acf/settings/path", trailingSlash(s.Path)},
		{"acf/settings/url", trailingSlash(s.URL)},
		{"acf/settings/capability", s.Capability},
		{"acf/settings/show_admin", s.ShowAdmin},
		{"acf/settings/show_updates", s.ShowUpdates},
		{"acf/settings/row_index_offset", s.RowIndexOffset},
		{"acf/settings/autoload", s.Autoload},
		{"acf/settings/local", s.Local},
		{"acf/settings/json", s.JSON},
		{"acf/settings/save_json", s.SaveJSON},
	}
}

func trailingSlash(s string) string {
	return strings.TrimRight(s, `/\`) + "/"
}
