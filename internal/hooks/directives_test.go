package hooks

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, h *Hooks, src string, data any) (string, error) {
	t.Helper()
	tmpl, err := template.New("page").Funcs(h.Directives(context.Background())).Parse(src)
	require.NoError(t, err)
	var buf strings.Builder
	err = tmpl.Execute(&buf, data)
	return buf.String(), err
}

func TestDirectives_Fire(t *testing.T) {
	h, _ := newTestHooks(t)
	h.Action("rooty/editor/head", platform.Closure(func(ctx context.Context, args ...any) any {
		_, _ = fmt.Fprintf(platform.Output(ctx), "<meta name=%q>", args[0])
		return nil
	}))

	short, err := render(t, h, `{{ hook "fire:rooty/editor/head" "x" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<meta name="x">`, short)

	long, err := render(t, h, `{{ hook "FIRE" " rooty/editor/head " "y" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<meta name="y">`, long)
}

func TestDirectives_Apply(t *testing.T) {
	h, _ := newTestHooks(t)
	h.Filter("rooty/title", platform.Closure(func(ctx context.Context, args ...any) any {
		return strings.ToUpper(args[0].(string)) + args[1].(string)
	}), AcceptedArgs(2))

	out, err := render(t, h, `{{ hook "apply:rooty/title" .Title "!" }}`, map[string]string{"Title": "<hi>"})
	require.NoError(t, err)
	assert.Equal(t, "&lt;HI&gt;!", out, "filtered strings are escaped")

	out, err = render(t, h, `{{ hook "apply" "rooty/unfiltered" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestDirectives_Conditional(t *testing.T) {
	h, _ := newTestHooks(t)
	h.Action("bar", platform.Closure(func(ctx context.Context, args ...any) any {
		_, _ = io.WriteString(platform.Output(ctx), "bar")
		return nil
	}))

	tests := []struct {
		src  string
		want string
	}{
		{`{{ hookIf true "fire:bar" }}`, "bar"},
		{`{{ hookIf 0 "fire:bar" }}`, ""},
		{`{{ hookUnless "" "fire" "bar" }}`, "bar"},
		{`{{ hookUnless 1 "fire" "bar" }}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, err := render(t, h, tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDirectives_MisuseIsSilentWithoutDebug(t *testing.T) {
	h, _ := newTestHooks(t)
	for _, src := range []string{
		`{{ hook }}`,
		`{{ hook "echo:bar" }}`,
		`{{ hook "fire:" }}`,
		`{{ hook "fire" }}`,
	} {
		out, err := render(t, h, src, nil)
		assert.NoError(t, err, src)
		assert.Equal(t, "", out, src)
	}
}

func TestDirectives_MisuseFailsInDebug(t *testing.T) {
	h, _ := newTestHooks(t, WithDebug(true))
	tests := []struct {
		src  string
		want string
	}{
		{`{{ hook }}`, "[@hook] Missing arguments."},
		{`{{ hook "echo:bar" }}`, "[@hook] Invalid mode 'echo'. Allowed: 'fire' or 'apply'."},
		{`{{ hook "apply" "" }}`, "[@hook] Missing hook name."},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := render(t, h, tt.src, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.Is(err, ErrInvalidDirective))
		})
	}
}

func TestDirectives_NamespacedView(t *testing.T) {
	h, rt := newTestHooks(t)
	ran := false
	rt.AddAction("rooty/editor/footer", platform.Closure(func(context.Context, ...any) any {
		ran = true
		return nil
	}), 10, 0)

	_, err := render(t, h.Namespace("rooty/editor"), `{{ hook "fire:footer" }}`, nil)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestBodyClasses(t *testing.T) {
	h, rt := newTestHooks(t)
	ctx := context.Background()
	hook := "rooty/editor/body_classes"

	h.AddBodyClasses(hook, func(ctx context.Context, classes []string) []string {
		return append(classes, "rooty-editor", "is admin", "")
	})
	h.AddBodyClasses(hook, func(ctx context.Context, classes []string) []string {
		return append(classes, "rooty-editor", PrefixedClass("page-", "About Us!"))
	}, Priority(20))
	rt.AddFilter(AdminBodyClassHook, platform.Closure(func(ctx context.Context, args ...any) any {
		return args[0].(string) + " folded  rooty-editor "
	}), 10, 1)

	assert.Equal(t, []string{"rooty-editor", "isadmin", "page-aboutus"}, h.BodyClasses(ctx, hook, false))
	assert.Equal(t, []string{"rooty-editor", "isadmin", "page-aboutus", "folded"}, h.BodyClasses(ctx, hook, true))
}

func TestNormalizeClasses(t *testing.T) {
	assert.Equal(t, []string{"a", "b-c"}, NormalizeClasses([]string{"a", "", "b-c", "a", "%20"}))
	assert.Empty(t, NormalizeClasses(nil))
}
