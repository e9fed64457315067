package acf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets_TargetDir(t *testing.T) {
	tests := []struct {
		name   string
		target string
		dir    string
		url    string
	}{
		{"public", TargetPublic, "/srv/public/acf/assets", "http://x/acf/assets/"},
		{"build", TargetBuild, "/srv/public/build/acf/assets", "http://x/build/acf/assets/"},
		{"custom", "vendor", "/srv/public/vendor/acf/assets", "http://x/vendor/acf/assets/"},
		{"default", "", "/srv/public/acf/assets", "http://x/acf/assets/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAssets()
			a.Target = tt.target
			assert.Equal(t, tt.dir, a.TargetDir("/srv"))
			assert.Equal(t, tt.url, a.URL("http://x/"))
		})
	}
}

func TestAssetsFromEnv(t *testing.T) {
	env := map[string]string{
		"PUBLIC_DIR":        "web",
		"ACF_ASSETS_TARGET": "BUILD",
		"BUILD_SUBDIR":      " ",
	}
	a := AssetsFromEnv(func(k string) string { return env[k] })

	assert.Equal(t, "web", a.PublicDir)
	assert.Equal(t, "build", a.BuildSubdir)
	assert.Equal(t, TargetBuild, a.Target)
	assert.Equal(t, DefaultAssetsSource, a.Source)
	assert.Equal(t, "/srv/web/build/acf/assets", a.TargetDir("/srv"))
}

func TestAssets_Publish(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src", "acf", "assets")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "acf.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "acf.js"), []byte("1"), 0o644))

	a := DefaultAssets()
	stale := filepath.Join(a.TargetDir(root), "stale.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	dst, err := a.Publish(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "public", "acf", "assets"), dst)

	data, err := os.ReadFile(filepath.Join(dst, "css", "acf.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
	assert.FileExists(t, filepath.Join(dst, "acf.js"))
	assert.NoFileExists(t, stale, "target is cleaned before copying")
}

func TestAssets_PublishMissingSource(t *testing.T) {
	_, err := DefaultAssets().Publish(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source assets not found")
}

func TestAssets_PublishRejectsUnsafeTargets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Assets)
	}{
		{"slash subpath is the public dir", func(a *Assets) { a.Subpath = "/" }},
		{"parent subpath is the project root", func(a *Assets) { a.Subpath = ".." }},
		{"escaping subpath", func(a *Assets) { a.Subpath = "../../etc" }},
		{"public dir outside root", func(a *Assets) { a.PublicDir = ".." }},
		{"target contains source", func(a *Assets) { a.PublicDir = "src"; a.Subpath = "acf" }},
		{"target inside source", func(a *Assets) { a.PublicDir = "src/acf/assets"; a.Subpath = "copy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			src := filepath.Join(root, "src", "acf", "assets")
			require.NoError(t, os.MkdirAll(src, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(src, "acf.js"), []byte("1"), 0o644))
			keep := []string{
				filepath.Join(root, "config.yaml"),
				filepath.Join(root, "public", "wp-config.php"),
			}
			for _, f := range keep {
				require.NoError(t, os.MkdirAll(filepath.Dir(f), 0o755))
				require.NoError(t, os.WriteFile(f, []byte("keep"), 0o644))
			}

			a := DefaultAssets()
			tt.mutate(&a)
			dst, err := a.Publish(root)

			require.ErrorIs(t, err, ErrUnsafeTarget)
			assert.Empty(t, dst)
			for _, f := range keep {
				assert.FileExists(t, f)
			}
			assert.FileExists(t, filepath.Join(src, "acf.js"))
		})
	}
}

func TestAssets_PublishEmptySubpathUsesDefault(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src", "acf", "assets")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "acf.js"), []byte("1"), 0o644))
	config := filepath.Join(root, "public", "wp-config.php")
	require.NoError(t, os.MkdirAll(filepath.Dir(config), 0o755))
	require.NoError(t, os.WriteFile(config, []byte("keep"), 0o644))

	a := AssetsFromEnv(func(string) string { return "" })
	a.Subpath = ""
	dst, err := a.Publish(root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "public", "acf", "assets"), dst)
	assert.FileExists(t, config)
	assert.FileExists(t, filepath.Join(dst, "acf.js"))
}
