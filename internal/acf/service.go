package acf

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

// Hooks fired and consumed by the ACF service.
const (
	HookInit    = "init"
	HookACFInit = "acf/init"
)

// Service is the ACF service bound under "acf". On boot it arranges for
// acf/init to fire from init and loads field groups when it does.
type Service struct {
	hooks    *hooks.Hooks
	helper   *Helper
	store    *Store
	settings Settings
	groups   []string
	logger   *zap.Logger

	mu  sync.Mutex
	err error
}

// NewService creates the ACF service. groups lists field group files
// registered on acf/init.
func NewService(h *hooks.Hooks, store *Store, helper *Helper, settings Settings, groups []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		hooks:    h.WithoutNamespace(),
		helper:   helper,
		store:    store,
		settings: settings.Clone(),
		groups:   append([]string(nil), groups...),
		logger:   logger,
	}
}

// Boot registers the init and acf/init handlers. Booting twice registers
// nothing new.
func (s *Service) Boot(ctx context.Context) error {
	s.hooks.OnceOn(hooks.KindAction, HookInit, platform.Method(s, "fireInit", s.fireInit), hooks.Priority(5), hooks.AcceptedArgs(0))
	s.hooks.OnceOn(hooks.KindAction, HookACFInit, platform.Method(s, "registerFieldGroups", s.registerFieldGroups), hooks.AcceptedArgs(0))
	return nil
}

func (s *Service) fireInit(ctx context.Context, _ ...any) any {
	s.hooks.Once("acf:fired-init", func() {
		s.hooks.Fire(ctx, HookACFInit)
	})
	return nil
}

func (s *Service) registerFieldGroups(ctx context.Context, _ ...any) any {
	if err := s.LoadFieldGroups(); err != nil {
		s.logger.Error("[ACF] failed to register field groups", zap.Error(err))
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
	return nil
}

// LoadFieldGroups loads local JSON groups from the existing load_json
// directories, when local JSON is on, then the configured group files. A
// configured file that is missing or invalid is an error.
func (s *Service) LoadFieldGroups() error {
	var errs []error
	if s.settings.Local && s.settings.JSON {
		for _, dir := range existingDirs(s.settings.LoadJSON) {
			n, err := s.store.LoadJSONDir(dir)
			if err != nil {
				errs = append(errs, err)
			}
			s.logger.Debug("[ACF] local JSON loaded", zap.String("dir", dir), zap.Int("groups", n))
		}
	}
	for _, path := range s.groups {
		g, err := LoadFieldGroupFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.store.AddFieldGroup(g)
	}
	return errors.Join(errs...)
}

// Err returns the error of the last field group registration, if any.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Helper returns the field helper.
func (s *Service) Helper() *Helper { return s.helper }

// Store returns the field store.
func (s *Service) Store() *Store { return s.store }

// Settings returns a copy of the frozen settings.
func (s *Service) Settings() Settings { return s.settings.Clone() }

// IsValidField reports whether f is a valid field definition.
func (s *Service) IsValidField(f Field) bool { return IsValidField(f) }

// IsValidFieldType reports whether t is a supported field type.
func (s *Service) IsValidFieldType(t string) bool { return IsValidFieldType(t) }

// AllowedFieldTypes returns the supported field types.
func (s *Service) AllowedFieldTypes() []string { return FieldTypes() }

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// existingDirs returns the unique entries of paths that are directories.
func existingDirs(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if isDir(p) {
			out = append(out, p)
		}
	}
	return out
}
