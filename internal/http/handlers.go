package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/platform"
)

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Booted: s.app.Booted()}
	if s.tel != nil {
		h := s.tel.Health()
		resp.Telemetry = &h
		if h.Degraded {
			resp.Status = "degraded"
		}
	}
	if !resp.Booted {
		resp.Status = "starting"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleServices(c echo.Context) error {
	hub, err := s.app.Hub()
	if err != nil {
		s.logger.Error(c.Request().Context(), "service hub unavailable", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service hub unavailable")
	}

	view := hub.Services()
	resp := ServicesResponse{Services: []ServiceStatus{}}
	for _, e := range view.Entries() {
		res := view.Inspect(e.Name)
		st := ServiceStatus{
			Name:   e.Name,
			Class:  string(e.Class),
			Key:    view.Key(e.Name),
			Bound:  view.HasBound(e.Name),
			Status: res.Status.String(),
		}
		if res.Err != nil {
			st.Error = res.Err.Error()
		}
		resp.Services = append(resp.Services, st)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleHooks lists registrar records. ?hook= narrows to one hook and
// ?sort=priority orders by priority.
func (s *Server) handleHooks(c echo.Context) error {
	records := s.app.Hooks().Records()
	filtered := filterRecords(records, c.QueryParam("hook"), c.QueryParam("sort") == "priority")
	return c.JSON(http.StatusOK, HooksResponse{
		Counts:  CountRecords(records),
		Records: filtered,
	})
}

func (s *Server) handlePluginsJSON(c echo.Context) error {
	plugins := s.visiblePlugins(c)
	resp := PluginsResponse{Plugins: make([]platform.Plugin, 0, len(plugins))}
	for _, f := range platform.SortedPluginFiles(plugins) {
		resp.Plugins = append(resp.Plugins, plugins[f])
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(resp.Plugins)))
	return c.JSON(http.StatusOK, resp)
}

// visiblePlugins passes the installed plugins through all_plugins.
func (s *Server) visiblePlugins(c echo.Context) map[string]platform.Plugin {
	rt := s.app.Runtime()
	installed := rt.Plugins()
	filtered, ok := rt.ApplyFilters(c.Request().Context(), "all_plugins", installed).(map[string]platform.Plugin)
	if !ok {
		s.logger.Warn(c.Request().Context(), "all_plugins returned an unexpected value")
		return installed
	}
	return filtered
}
