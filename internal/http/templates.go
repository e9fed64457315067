package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/hooks"
)

// BodyClassesHook is the (namespaced) filter composing admin body classes.
const BodyClassesHook = "admin/body_classes"

const layoutTmpl = `{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{hook "fire:admin_head"}}
</head>
<body class="{{join .BodyClasses " "}}">
<div class="wrap">
<h1>{{hook "apply:admin_title" .Title}}</h1>
{{hook "fire:admin_notices"}}
{{end}}
{{define "footer"}}{{hook "fire:admin_footer"}}
</div>
</body>
</html>
{{end}}`

const pluginsTmpl = `{{template "header" .}}
<table class="wp-list-table plugins">
<thead><tr><th>Plugin</th><th>Version</th><th>Status</th><th></th></tr></thead>
<tbody>
{{range .Plugins}}<tr class="{{if .Active}}active{{else}}inactive{{end}}" data-plugin="{{.File}}">
<td>{{.Name}}</td><td>{{.Version}}</td><td>{{if .Active}}Active{{else}}Inactive{{end}}</td>
<td>{{if not .Active}}<form method="post" action="plugins.php"><input type="hidden" name="action" value="activate"><input type="hidden" name="plugin" value="{{.File}}"><button type="submit">Activate</button></form>{{end}}</td>
</tr>
{{else}}<tr><td colspan="4">No plugins found.</td></tr>
{{end}}</tbody>
</table>
{{template "footer" .}}`

const optionsTmpl = `{{template "header" .}}
{{if .Updated}}<div class="notice notice-success"><p>Options Updated</p></div>{{end}}
<form method="post" action="admin.php?page={{.Slug}}" id="acf-options">
{{hook "fire:acf/options_page/before" .Slug}}
{{range .Groups}}<fieldset class="acf-field-group" data-key="{{.Key}}">
<legend>{{.Title}}</legend>
{{range .Fields}}<div class="acf-field acf-field-{{.Type}}" data-name="{{.Name}}">
<label for="acf-{{.Key}}">{{.Label}}</label>
{{if eq .Type "textarea"}}<textarea id="acf-{{.Key}}" name="{{.Name}}">{{fieldValue $.Values .Name}}</textarea>{{else}}<input id="acf-{{.Key}}" type="text" name="{{.Name}}" value="{{fieldValue $.Values .Name}}">{{end}}
</div>
{{end}}</fieldset>
{{else}}<p>No field groups are assigned to this options page.</p>
{{end}}
{{hook "fire:acf/options_page/after" .Slug}}
<button type="submit">Update</button>
</form>
{{template "footer" .}}`

const errorTmpl = `{{template "header" .}}
<div class="wp-die-message"><p>{{.Message}}</p></div>
{{template "footer" .}}`

// pageTemplates holds the parsed admin pages. Each render clones a page
// and binds the hook directives to the request context.
type pageTemplates struct {
	hooks *hooks.Hooks
	pages map[string]*template.Template
}

func newPageTemplates(h *hooks.Hooks) (*pageTemplates, error) {
	// Admin hooks are platform names, never namespaced.
	h = h.WithoutNamespace()

	funcs := template.FuncMap{
		"join": strings.Join,
		"fieldValue": func(values map[string]any, name string) string {
			if v, ok := values[name]; ok && v != nil {
				return fmt.Sprint(v)
			}
			return ""
		},
	}
	for name, fn := range h.Directives(context.Background()) {
		funcs[name] = fn
	}

	pt := &pageTemplates{hooks: h, pages: make(map[string]*template.Template)}
	for name, body := range map[string]string{
		"plugins": pluginsTmpl,
		"options": optionsTmpl,
		"error":   errorTmpl,
	} {
		t, err := template.New(name).Funcs(funcs).Parse(layoutTmpl)
		if err != nil {
			return nil, fmt.Errorf("parsing layout: %w", err)
		}
		if t, err = t.Parse(body); err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}
		pt.pages[name] = t
	}
	return pt, nil
}

func (pt *pageTemplates) execute(ctx context.Context, name string, data any) ([]byte, error) {
	base, ok := pt.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	t, err := base.Clone()
	if err != nil {
		return nil, err
	}
	t.Funcs(pt.hooks.Directives(ctx))

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// page is the data every admin page gets.
type page struct {
	Title       string
	BodyClasses []string
}

type errorPage struct {
	Title   string
	Message string
}

// pageData is implemented by page payloads that carry the layout fields.
type pageData interface {
	base() *page
}

func (p *page) base() *page { return p }

func (s *Server) render(c echo.Context, code int, name string, data any) error {
	ctx := c.Request().Context()

	switch d := data.(type) {
	case pageData:
		d.base().BodyClasses = s.bodyClasses(ctx)
	case errorPage:
		data = struct {
			page
			Message string
		}{page{Title: d.Title, BodyClasses: s.bodyClasses(ctx)}, d.Message}
	}

	out, err := s.pages.execute(ctx, name, data)
	if err != nil {
		s.logger.Error(ctx, "failed to render admin page", zap.String("page", name), zap.Error(err))
		return echo.NewHTTPError(500, "failed to render page").SetInternal(err)
	}
	return c.HTMLBlob(code, out)
}

func (s *Server) bodyClasses(ctx context.Context) []string {
	classes := []string{"wp-admin"}
	if screen, ok := s.app.Runtime().CurrentScreen(ctx); ok {
		classes = append(classes, hooks.PrefixedClass("screen", screen))
	}
	return hooks.NormalizeClasses(append(classes, s.app.Hooks().BodyClasses(ctx, BodyClassesHook, true)...))
}
