package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/logging"
	"github.com/fyrsmithlabs/rooty/internal/platform"
)

const adminPrefix = "/wp-admin/"

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

// platformRequest attaches the request environment the hook callbacks read:
// the admin flag, the screen, the query and the acting user. The request
// id and the logger go on the context too.
func (s *Server) platformRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		ctx := r.Context()

		if rid := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidateRequestID(rid) == nil {
			ctx = logging.WithRequestID(ctx, rid)
		}
		ctx = logging.WithLogger(ctx, s.logger)

		query := r.URL.Query()
		admin := strings.HasPrefix(r.URL.Path, adminPrefix)
		req := &platform.Request{
			Admin: admin,
			Query: query,
			User:  s.users(r),
		}
		if admin {
			req.Screen = s.screenID(r.URL.Path, query.Get("page"))
		}
		ctx = platform.WithRequest(ctx, req)

		c.SetRequest(r.WithContext(ctx))
		return next(c)
	}
}

// screenID derives the admin screen id: "plugins" for plugins.php,
// "toplevel_page_{slug}" or "{parent}_page_{slug}" for options pages.
func (s *Server) screenID(path, page string) string {
	file := strings.TrimSuffix(strings.TrimPrefix(path, adminPrefix), ".php")
	if file != "admin" || page == "" {
		return file
	}
	if p, ok := s.optionsPage(page); ok && p.ParentSlug() != "" {
		return p.ParentSlug() + "_page_" + page
	}
	return "toplevel_page_" + page
}

// abortRecovery turns a termination raised by the abort manager into a
// redirect or an error page.
func (s *Server) abortRecovery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var err error
		t := abort.Recover(func() { err = next(c) })
		if t == nil {
			return err
		}
		if t.IsRedirect() {
			return c.Redirect(t.Code, t.Location)
		}
		return s.renderTermination(c, t)
	}
}

func (s *Server) renderTermination(c echo.Context, t *abort.Termination) error {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return c.JSON(t.Code, ErrorResponse{Error: t.Message, Title: t.Title})
	}
	title := t.Title
	if title == "" {
		title = http.StatusText(t.Code)
	}
	return s.render(c, t.Code, "error", errorPage{Title: title, Message: t.Message})
}

// handleError renders echo errors as JSON for the API and as an error page
// elsewhere.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	} else {
		s.logger.Error(c.Request().Context(), "request failed", zap.Error(err))
	}

	var rerr error
	switch {
	case c.Request().Method == http.MethodHead:
		rerr = c.NoContent(code)
	case strings.HasPrefix(c.Request().URL.Path, adminPrefix):
		rerr = s.render(c, code, "error", errorPage{Title: http.StatusText(code), Message: msg})
	default:
		rerr = c.JSON(code, ErrorResponse{Error: msg})
	}
	if rerr != nil {
		s.logger.Warn(context.Background(), "failed to write error response", zap.Error(rerr))
	}
}

// newWriteLimiter throttles admin form posts per client IP.
func (s *Server) newWriteLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.config.WriteRate),
		Burst:     s.config.WriteBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.logger.Warn(c.Request().Context(), "admin write rate limited", zap.String("client", identifier))
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
		},
	})
}
