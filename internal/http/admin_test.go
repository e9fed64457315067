package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/app"
	"github.com/fyrsmithlabs/rooty/internal/config"
	"github.com/fyrsmithlabs/rooty/internal/conflicts"
	"github.com/fyrsmithlabs/rooty/internal/logging"
	"github.com/fyrsmithlabs/rooty/internal/platform"
)

func subscriber(*http.Request) *platform.User {
	return &platform.User{ID: 2, Login: "reader", Roles: []string{"subscriber"}}
}

func TestPluginsPage(t *testing.T) {
	s, _, _ := setupTestServer(t)

	rec := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data-plugin="hello-dolly/hello.php"`)
	assert.NotContains(t, body, conflicts.ACFPlugin, "blocked plugins are hidden")
	assert.Contains(t, body, "screen-plugins")
	assert.Contains(t, body, "wp-admin")
}

func TestActivatePlugin(t *testing.T) {
	s, a, _ := setupTestServer(t)

	rec := serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}, "plugin": {helloPlugin}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:9090/wp-admin/plugins.php?activate=true", rec.Header().Get("Location"))

	p, ok := a.Runtime().Plugin(helloPlugin)
	require.True(t, ok)
	assert.True(t, p.Active)
}

func TestActivatePlugin_BlockedRedirectsWithNotice(t *testing.T) {
	s, a, _ := setupTestServer(t)

	rec := serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}, "plugin": {conflicts.ACFPlugin}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:9090/wp-admin/plugins.php", rec.Header().Get("Location"))

	p, ok := a.Runtime().Plugin(conflicts.ACFPlugin)
	require.True(t, ok)
	assert.False(t, p.Active)

	page := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil).Body.String()
	assert.Contains(t, page, `class="notice notice-error is-dismissible"`)
	assert.Contains(t, page, "Rooty already bundles it")

	again := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil).Body.String()
	assert.NotContains(t, again, "notice-error", "the notice is shown once")
}

func TestActivatePlugin_Errors(t *testing.T) {
	s, _, _ := setupTestServer(t)

	rec := serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}, "plugin": {"missing/missing.php"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plugin file does not exist.")

	rec = serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"delete"}, "plugin": {helloPlugin}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPluginsPage_ForbiddenAborts(t *testing.T) {
	s, a, _ := setupTestServer(t, WithUserResolver(subscriber))

	rec := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sorry, you are not allowed to access this page.")
	assert.Contains(t, rec.Body.String(), "<title>Forbidden</title>")

	rec = serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}, "plugin": {helloPlugin}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	p, _ := a.Runtime().Plugin(helloPlugin)
	assert.False(t, p.Active)
}

// returningManager records aborts without terminating the request.
type returningManager struct {
	aborts []int
}

func (m *returningManager) Boot(context.Context) error { return nil }

func (m *returningManager) Abort(_ context.Context, code int, _, _ string, _ map[string]any) {
	m.aborts = append(m.aborts, code)
}

func (m *returningManager) Redirect(context.Context, string, int) {}

func TestAdmin_ForbiddenStopsWithReturningAbortManager(t *testing.T) {
	m := &returningManager{}
	a := newTestApp(t, withOptionPages(t), app.WithAbortManager(m))
	require.NoError(t, a.Boot(context.Background()))
	s, err := NewServer(a, logging.Nop(), nil, WithUserResolver(subscriber))
	require.NoError(t, err)

	rec := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Hello Dolly")

	rec = serve(s, http.MethodPost, "/wp-admin/plugins.php", url.Values{"action": {"activate"}, "plugin": {helloPlugin}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	p, _ := a.Runtime().Plugin(helloPlugin)
	assert.False(t, p.Active, "unauthorised activation must not run")

	rec = serve(s, http.MethodPost, "/wp-admin/admin.php?page=site-settings", url.Values{"tagline": {"pwned"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	helper, err := a.ACFHelper()
	require.NoError(t, err)
	assert.Nil(t, helper.Field("tagline", acf.PostOptions), "unauthorised save must not store values")

	assert.Equal(t, []int{http.StatusForbidden, http.StatusForbidden, http.StatusForbidden}, m.aborts)
}

const heroGroup = `{
  "key": "group_site",
  "title": "Site",
  "fields": [
    {"key": "field_tagline", "name": "tagline", "label": "Tagline", "type": "text"},
    {"key": "field_footer", "name": "footer_text", "label": "Footer", "type": "textarea"}
  ],
  "location": [[{"param": "options_page", "operator": "==", "value": "site-settings"}]]
}`

// withOptionPages writes the site field group and registers the site
// options pages.
func withOptionPages(t *testing.T) func(*config.Config) {
	return func(c *config.Config) {
		group := filepath.Join(c.App.Root, "config", "acf", "site.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(group), 0o755))
		require.NoError(t, os.WriteFile(group, []byte(heroGroup), 0o644))
		c.ACF.FieldGroups = []string{"config/acf/site.json"}
		c.ACF.OptionPages = []map[string]any{
			{"page_title": "Site Settings", "menu_slug": "site-settings"},
			{"page_title": "Secrets", "menu_slug": "secrets", "parent_slug": "site-settings", "capability": "edit_users"},
		}
	}
}

func setupOptionsServer(t *testing.T, opts ...Option) (*Server, *acf.Helper) {
	t.Helper()
	a := newTestApp(t, withOptionPages(t))
	require.NoError(t, a.Boot(context.Background()))

	s, err := NewServer(a, logging.Nop(), nil, opts...)
	require.NoError(t, err)
	helper, err := a.ACFHelper()
	require.NoError(t, err)
	return s, helper
}

func TestOptionsPage_RendersFieldGroups(t *testing.T) {
	s, helper := setupOptionsServer(t)
	require.True(t, helper.UpdateField("tagline", "Just another site", acf.PostOptions))

	s.app.Hooks().WithoutNamespace().Action("acf/options_page/before", platform.Closure(func(ctx context.Context, args ...any) any {
		_, _ = fmt.Fprintf(platform.Output(ctx), `<div id="before-%v"></div>`, args[0])
		return nil
	}))

	rec := serve(s, http.MethodGet, "/wp-admin/admin.php?page=site-settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Site Settings</title>")
	assert.Contains(t, body, `data-key="group_site"`)
	assert.Contains(t, body, `name="tagline" value="Just another site"`)
	assert.Contains(t, body, `<textarea id="acf-field_footer" name="footer_text"></textarea>`)
	assert.Contains(t, body, `<div id="before-site-settings"></div>`, "fire directive output")
	assert.Contains(t, body, "screen-toplevel_page_site-settings")
}

func TestOptionsPage_SubPageScreen(t *testing.T) {
	s, _ := setupOptionsServer(t)

	rec := serve(s, http.MethodGet, "/wp-admin/admin.php?page=secrets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "screen-site-settings_page_secrets")
	assert.Contains(t, rec.Body.String(), "No field groups are assigned")
}

func TestOptionsPage_Save(t *testing.T) {
	s, helper := setupOptionsServer(t)

	var saved []any
	s.app.Hooks().WithoutNamespace().Action(HookSavePost, platform.Closure(func(ctx context.Context, args ...any) any {
		saved = append(saved, args...)
		return nil
	}))

	rec := serve(s, http.MethodPost, "/wp-admin/admin.php?page=site-settings", url.Values{
		"tagline":  {"  <b>Fresh</b> tagline  "},
		"unknown":  {"ignored"},
		"whatever": {""},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:9090/wp-admin/admin.php?page=site-settings&updated=true", rec.Header().Get("Location"))

	assert.Equal(t, "Fresh tagline", helper.Field("tagline", acf.PostOptions))
	assert.Nil(t, helper.Field("unknown", acf.PostOptions))
	assert.Equal(t, []any{acf.PostOptions}, saved)

	page := serve(s, http.MethodGet, "/wp-admin/admin.php?page=site-settings&updated=true", nil).Body.String()
	assert.Contains(t, page, "Options Updated")
}

func TestOptionsPage_NotFound(t *testing.T) {
	s, _ := setupOptionsServer(t)

	for _, target := range []string{"/wp-admin/admin.php", "/wp-admin/admin.php?page=nope"} {
		rec := serve(s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "The requested options page does not exist.")
	}
}

func TestOptionsPage_CapabilityChecks(t *testing.T) {
	editor := func(*http.Request) *platform.User {
		return &platform.User{ID: 3, Login: "ed", Roles: []string{"editor"}}
	}
	s, _ := setupOptionsServer(t, WithUserResolver(editor))

	rec := serve(s, http.MethodGet, "/wp-admin/admin.php?page=site-settings", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "editors lack manage_options")

	granted := func(*http.Request) *platform.User {
		return &platform.User{ID: 3, Login: "ed", Roles: []string{"editor"}, Caps: map[string]bool{"edit_users": true}}
	}
	s, _ = setupOptionsServer(t, WithUserResolver(granted))
	rec = serve(s, http.MethodGet, "/wp-admin/admin.php?page=secrets", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "page capability overrides the ACF default")
}

func TestAdminBodyClassesFilter(t *testing.T) {
	s, _, _ := setupTestServer(t)
	s.app.Hooks().AddBodyClasses(BodyClassesHook, func(ctx context.Context, classes []string) []string {
		return append(classes, "rooty-admin", "rooty-admin", "")
	})

	body := serve(s, http.MethodGet, "/wp-admin/plugins.php", nil).Body.String()
	assert.Contains(t, body, `class="wp-admin screen-plugins rooty-admin"`)
}

func TestAdminWritesAreRateLimited(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Boot(context.Background()))
	s, err := NewServer(a, logging.Nop(), &Config{Host: "127.0.0.1", Port: 9090, WriteRate: 0.001, WriteBurst: 1})
	require.NoError(t, err)

	form := url.Values{"action": {"activate"}, "plugin": {"missing/missing.php"}}
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodPost, "/wp-admin/plugins.php", form).Code)

	rec := serve(s, http.MethodPost, "/wp-admin/plugins.php", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/wp-admin/plugins.php", nil).Code, "reads are not limited")
}
