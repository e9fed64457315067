package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/platform"
)

const (
	capActivatePlugins = "activate_plugins"
	// HookSavePost fires after an options page form was stored.
	HookSavePost = "acf/save_post"
)

type pluginsPage struct {
	page
	Plugins []platform.Plugin
}

type optionsPage struct {
	page
	Slug    string
	Updated bool
	Groups  []acf.FieldGroup
	Values  map[string]any
}

const forbiddenMessage = "Sorry, you are not allowed to access this page."

// forbidden aborts the request through the abort manager. Managers that
// return instead of terminating still get a 403 error back, so callers
// must return it.
func (s *Server) forbidden(c echo.Context) error {
	s.app.Abort().Abort(c.Request().Context(), http.StatusForbidden, forbiddenMessage, "Forbidden", nil)
	return echo.NewHTTPError(http.StatusForbidden, forbiddenMessage)
}

func (s *Server) handlePlugins(c echo.Context) error {
	ctx := c.Request().Context()
	if !s.app.Runtime().CurrentUserCan(ctx, capActivatePlugins) {
		return s.forbidden(c)
	}

	plugins := s.visiblePlugins(c)
	data := &pluginsPage{page: page{Title: "Plugins"}}
	for _, f := range platform.SortedPluginFiles(plugins) {
		data.Plugins = append(data.Plugins, plugins[f])
	}
	return s.render(c, http.StatusOK, "plugins", data)
}

// handleActivatePlugin activates the posted plugin. The conflict guard
// aborts with a redirect for blocked plugins.
func (s *Server) handleActivatePlugin(c echo.Context) error {
	ctx := c.Request().Context()
	rt := s.app.Runtime()
	if !rt.CurrentUserCan(ctx, capActivatePlugins) {
		return s.forbidden(c)
	}
	if action := c.FormValue("action"); action != "activate" {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported action %q", action))
	}

	file := c.FormValue("plugin")
	if file == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "plugin is required")
	}
	if _, ok := rt.Plugin(file); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Plugin file does not exist.")
	}
	if err := rt.ActivatePlugin(ctx, file); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	s.logger.Info(ctx, "plugin activated", zap.String("plugin", file))
	return c.Redirect(http.StatusFound, rt.AdminURL("plugins.php?activate=true"))
}

// optionsPage finds a registered options page by menu slug.
func (s *Server) optionsPage(slug string) (platform.OptionsPage, bool) {
	for _, p := range s.app.Runtime().OptionsPages() {
		if p.Slug() == slug {
			return p, true
		}
	}
	return nil, false
}

// pageCapability is the page's own capability, falling back to the ACF
// capability setting.
func (s *Server) pageCapability(p platform.OptionsPage) string {
	if capability, ok := p["capability"].(string); ok && capability != "" {
		return capability
	}
	if svc, err := s.app.ACF(); err == nil {
		return svc.Settings().Capability
	}
	return acf.DefaultCapability
}

func pageTitle(p platform.OptionsPage) string {
	for _, key := range []string{"page_title", "menu_title"} {
		if t, ok := p[key].(string); ok && t != "" {
			return t
		}
	}
	return p.Slug()
}

// loadOptionsPage resolves the requested page and checks access. It
// aborts the request when the user lacks the page capability.
func (s *Server) loadOptionsPage(c echo.Context) (platform.OptionsPage, *acf.Helper, error) {
	slug := c.QueryParam("page")
	p, ok := s.optionsPage(slug)
	if slug == "" || !ok {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "The requested options page does not exist.")
	}
	if !s.app.Runtime().CurrentUserCan(c.Request().Context(), s.pageCapability(p)) {
		return nil, nil, s.forbidden(c)
	}
	helper, err := s.app.ACFHelper()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusServiceUnavailable, "ACF is not available").SetInternal(err)
	}
	return p, helper, nil
}

func (s *Server) handleOptionsPage(c echo.Context) error {
	p, helper, err := s.loadOptionsPage(c)
	if err != nil {
		return err
	}

	slug := p.Slug()
	data := &optionsPage{
		page:    page{Title: pageTitle(p)},
		Slug:    slug,
		Updated: c.QueryParam("updated") == "true",
		Groups:  helper.FieldGroups(map[string]string{"options_page": slug}),
		Values:  helper.FieldValues(acf.PostOptions),
	}
	return s.render(c, http.StatusOK, "options", data)
}

// handleSaveOptionsPage stores the posted values of the page's fields and
// fires acf/save_post with the options post id.
func (s *Server) handleSaveOptionsPage(c echo.Context) error {
	p, helper, err := s.loadOptionsPage(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}

	slug := p.Slug()
	saved := 0
	for _, g := range helper.FieldGroups(map[string]string{"options_page": slug}) {
		for _, f := range g.Fields {
			if !form.Has(f.Name) {
				continue
			}
			if helper.UpdateField(f.Name, platform.SanitizeTextField(form.Get(f.Name)), acf.PostOptions) {
				saved++
			}
		}
	}

	s.app.Hooks().WithoutNamespace().Fire(ctx, HookSavePost, acf.PostOptions)
	s.logger.Info(ctx, "options page saved", zap.String("page", slug), zap.Int("fields", saved))

	return c.Redirect(http.StatusFound, s.app.Runtime().AdminURL("admin.php?page="+url.QueryEscape(slug)+"&updated=true"))
}
