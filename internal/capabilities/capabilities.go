// Package capabilities manages role capabilities and answers permission
// checks for the current user.
package capabilities

import (
	"context"
	"sort"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"go.uber.org/zap"
)

// Roles is the platform surface the service needs.
type Roles interface {
	Role(slug string) *platform.Role
	RoleNames() map[string]string
	CurrentUserCan(ctx context.Context, capability string) bool
}

// Service is the caps service.
type Service struct {
	roles  Roles
	logger *zap.Logger
}

// New creates the caps service.
func New(roles Roles, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{roles: roles, logger: logger}
}

// Boot implements the service contract. There is nothing to register.
func (s *Service) Boot(ctx context.Context) error { return nil }

// CurrentUserCan checks a single capability.
func (s *Service) CurrentUserCan(ctx context.Context, capability string) bool {
	return s.roles.CurrentUserCan(ctx, capability)
}

// CurrentUserCanAny reports whether the current user has at least one of
// capabilities.
func (s *Service) CurrentUserCanAny(ctx context.Context, capabilities ...string) bool {
	for _, c := range capabilities {
		if s.roles.CurrentUserCan(ctx, c) {
			return true
		}
	}
	return false
}

// RoleNames maps role slugs to display names.
func (s *Service) RoleNames() map[string]string {
	return s.roles.RoleNames()
}

// AddCap grants capability to each existing role in roles.
func (s *Service) AddCap(capability string, roles ...string) {
	for _, slug := range roles {
		role := s.roles.Role(slug)
		if role == nil {
			s.logger.Debug("skipping unknown role", zap.String("role", slug))
			continue
		}
		if !role.HasCap(capability) {
			role.AddCap(capability)
		}
	}
}

// RemoveCapFromAllRoles revokes capability everywhere.
func (s *Service) RemoveCapFromAllRoles(capability string) {
	for _, slug := range s.roleSlugs() {
		if role := s.roles.Role(slug); role != nil && role.HasCap(capability) {
			role.RemoveCap(capability)
		}
	}
}

// HasCap reports whether role grants capability. Unknown roles grant
// nothing.
func (s *Service) HasCap(role, capability string) bool {
	r := s.roles.Role(role)
	return r != nil && r.HasCap(capability)
}

// SyncCapabilities makes mapping (capability to role slugs) authoritative.
// Capabilities in oldCaps missing from mapping are revoked everywhere; every
// mapped capability is first revoked then granted to exactly its roles.
func (s *Service) SyncCapabilities(mapping map[string][]string, oldCaps ...string) {
	caps := make([]string, 0, len(mapping))
	for c := range mapping {
		caps = append(caps, c)
	}
	sort.Strings(caps)

	for _, c := range oldCaps {
		if _, kept := mapping[c]; !kept {
			s.RemoveCapFromAllRoles(c)
		}
	}
	for _, c := range caps {
		s.RemoveCapFromAllRoles(c)
	}
	for _, c := range caps {
		s.AddCap(c, mapping[c]...)
	}
	s.logger.Info("capabilities synced", zap.Strings("capabilities", caps))
}

func (s *Service) roleSlugs() []string {
	names := s.roles.RoleNames()
	slugs := make([]string, 0, len(names))
	for slug := range names {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
