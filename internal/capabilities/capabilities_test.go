package capabilities

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/stretchr/testify/assert"
)

func editorCtx() context.Context {
	return platform.WithRequest(context.Background(), &platform.Request{
		Admin: true,
		User:  &platform.User{ID: 2, Roles: []string{"editor"}},
	})
}

func TestCurrentUserCan(t *testing.T) {
	s := New(platform.NewRuntime(), nil)
	ctx := editorCtx()

	assert.True(t, s.CurrentUserCan(ctx, "edit_pages"))
	assert.False(t, s.CurrentUserCan(ctx, "manage_options"))
	assert.True(t, s.CurrentUserCanAny(ctx, "manage_options", "edit_pages"))
	assert.False(t, s.CurrentUserCanAny(ctx))
	assert.False(t, s.CurrentUserCan(context.Background(), "read"))
}

func TestAddAndRemoveCap(t *testing.T) {
	rt := platform.NewRuntime()
	s := New(rt, nil)

	s.AddCap("rooty_edit", "editor", "author", "ghost")
	assert.True(t, s.HasCap("editor", "rooty_edit"))
	assert.True(t, s.HasCap("author", "rooty_edit"))
	assert.False(t, s.HasCap("subscriber", "rooty_edit"))
	assert.False(t, s.HasCap("ghost", "rooty_edit"))

	s.RemoveCapFromAllRoles("rooty_edit")
	assert.False(t, s.HasCap("editor", "rooty_edit"))
	assert.False(t, s.HasCap("author", "rooty_edit"))
}

func TestSyncCapabilities(t *testing.T) {
	rt := platform.NewRuntime()
	s := New(rt, nil)
	s.AddCap("rooty_legacy", "administrator", "editor")
	s.AddCap("rooty_edit", "subscriber")

	s.SyncCapabilities(map[string][]string{
		"rooty_edit":    {"administrator", "editor"},
		"rooty_publish": {"administrator"},
	}, "rooty_legacy", "rooty_edit")

	assert.False(t, s.HasCap("administrator", "rooty_legacy"))
	assert.False(t, s.HasCap("editor", "rooty_legacy"))
	assert.False(t, s.HasCap("subscriber", "rooty_edit"), "mapped caps are reset first")
	assert.True(t, s.HasCap("editor", "rooty_edit"))
	assert.True(t, s.HasCap("administrator", "rooty_publish"))
	assert.False(t, s.HasCap("editor", "rooty_publish"))
}

func TestRoleNamesAndBoot(t *testing.T) {
	s := New(platform.NewRuntime(), nil)
	assert.Contains(t, s.RoleNames(), "subscriber")
	assert.NoError(t, s.Boot(context.Background()))
}
