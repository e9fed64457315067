package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/services"
)

// setupTestEnv points HOME and APP_ROOT at temporary directories and
// returns them.
func setupTestEnv(t *testing.T) (home, root string) {
	t.Helper()
	home = t.TempDir()
	root = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APP_ROOT", root)
	return home, root
}

func writeConfig(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
}

const projectYAML = `app:
  env: production
  url: https://example.test
server:
  http_port: 8081
  shutdown_timeout: 3s
hooks:
  namespace: theme
acf:
  save_json: storage/acf
  load_json: [vendor/acf, storage/acf]
  show_admin: false
  row_index_offset: 1
  option_pages:
    - page_title: Site Settings
      menu_slug: site-settings
  field_groups:
    - config/acf/hero.json
  assets:
    target: build
services:
  - name: caps
    class: capabilities.Service
  - name: hooks
    class: hooks.Hooks
`

func TestLoadWithFile_ProjectYAML(t *testing.T) {
	_, root := setupTestEnv(t)
	writeConfig(t, filepath.Join(root, "config", "rooty.yaml"), projectYAML, 0o600)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.App.Root)
	assert.True(t, cfg.Production())
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "theme", cfg.Hooks.Namespace)
	assert.Equal(t, "json", cfg.Observability.LogFormat)

	require.NotNil(t, cfg.ACF.ShowAdmin)
	assert.False(t, *cfg.ACF.ShowAdmin)
	require.NotNil(t, cfg.ACF.RowIndexOffset)
	assert.Equal(t, 1, *cfg.ACF.RowIndexOffset)
	assert.Equal(t, acf.TargetBuild, cfg.ACF.Assets.Target)

	s := cfg.ACFSettings()
	assert.Equal(t, filepath.Join(root, "storage", "acf"), s.SaveJSON)
	assert.Equal(t, []string{filepath.Join(root, "vendor", "acf"), filepath.Join(root, "storage", "acf")}, s.LoadJSON)
	assert.Equal(t, "https://example.test/build/acf/assets", s.URL)

	pc := cfg.ACFProviderConfig()
	require.Len(t, pc.OptionPages, 1)
	assert.Equal(t, "site-settings", pc.OptionPages[0].Slug())
	assert.Equal(t, []string{filepath.Join(root, "config", "acf", "hero.json")}, pc.FieldGroups)

	m, err := cfg.ServiceMap()
	require.NoError(t, err)
	assert.Equal(t, []services.Entry{
		{Name: "caps", Class: services.ClassCapabilities},
		{Name: "hooks", Class: services.ClassHooks},
	}, m.Entries())
}

func TestLoadWithFile_UserConfigDir(t *testing.T) {
	home, _ := setupTestEnv(t)
	path := filepath.Join(home, ".config", "rooty", "config.yaml")
	writeConfig(t, path, "observability:\n  enable_telemetry: true\n  service_name: rooty-test\n", 0o600)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.True(t, cfg.Observability.EnableTelemetry)
	assert.Equal(t, "rooty-test", cfg.Observability.ServiceName)
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	_, root := setupTestEnv(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "http", cfg.Abort.Manager)
	assert.Equal(t, filepath.Join(root, "storage", acf.DefaultSaveJSON), cfg.ACFSettings().SaveJSON)
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	_, root := setupTestEnv(t)
	writeConfig(t, filepath.Join(root, "config", "rooty.yaml"), projectYAML, 0o600)

	t.Setenv("SERVER_HTTP_PORT", "7777")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("ACF_SAVE_JSON", "/var/acf")
	t.Setenv("ACF_LOAD_JSON", "/a, /b")
	t.Setenv("ACF_SHOW_UPDATES", "true")
	t.Setenv("ABORT_MANAGER", "CLI")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.False(t, cfg.Production())
	assert.Equal(t, "cli", cfg.Abort.Manager)

	s := cfg.ACFSettings()
	assert.Equal(t, "/var/acf", s.SaveJSON)
	assert.Equal(t, []string{"/a", "/b"}, s.LoadJSON)
	assert.True(t, s.ShowUpdates)
}

func TestLoadWithFile_DotEnv(t *testing.T) {
	_, root := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"),
		[]byte("APP_DEBUG=true\nSERVER_HTTP_PORT=6060\nACF_ASSETS_TARGET=Build\n"), 0o600))

	// Already set variables win over .env.
	t.Setenv("SERVER_HTTP_PORT", "5050")
	// godotenv sets the variables it loads; restore them after the test.
	t.Setenv("APP_DEBUG", "")
	t.Setenv("ACF_ASSETS_TARGET", "")
	require.NoError(t, os.Unsetenv("APP_DEBUG"))
	require.NoError(t, os.Unsetenv("ACF_ASSETS_TARGET"))

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.True(t, cfg.App.Debug)
	assert.True(t, cfg.Hooks.Debug)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "Build", cfg.ACF.Assets.Target)
	assert.Equal(t, filepath.Join(root, "public", "build", "acf", "assets"), cfg.ACF.Assets.TargetDir(root))
}

func TestLoadWithFile_RejectsWritableByOthers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	_, root := setupTestEnv(t)
	path := filepath.Join(root, "config", "rooty.yaml")
	writeConfig(t, path, "server:\n  http_port: 8080\n", 0o666)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_RejectsLargeFile(t *testing.T) {
	_, root := setupTestEnv(t)
	path := filepath.Join(root, "config", "rooty.yaml")
	big := bytes.Repeat([]byte("# padding\n"), maxConfigFileSize/10+1)
	writeConfig(t, path, string(big), 0o600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	_, root := setupTestEnv(t)
	path := filepath.Join(root, "config", "rooty.yaml")
	writeConfig(t, path, "server: [unclosed\n", 0o600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	_, root := setupTestEnv(t)
	path := filepath.Join(root, "config", "rooty.yaml")
	writeConfig(t, path, "abort:\n  manager: wp_die\n", 0o600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestValidateConfigPath(t *testing.T) {
	home, root := setupTestEnv(t)

	valid := []string{
		filepath.Join(home, ".config", "rooty", "config.yaml"),
		filepath.Join(home, ".config", "rooty", "subdir", "config.yaml"),
		"/etc/rooty/config.yaml",
		filepath.Join(root, "config", "rooty.yaml"),
	}
	for _, p := range valid {
		t.Run("allows "+p, func(t *testing.T) {
			assert.NoError(t, validateConfigPath(p, root))
		})
	}

	invalid := []string{
		"/etc/passwd",
		"/tmp/config.yaml",
		"/etc/rooty../etc/passwd",
		"/etc/rooty",
		filepath.Join(home, ".config", "rooty", "..", "..", "..", "etc", "passwd"),
		filepath.Join(root, "rooty.yaml"),
	}
	for _, p := range invalid {
		t.Run("rejects "+p, func(t *testing.T) {
			assert.Error(t, validateConfigPath(p, root))
		})
	}
}

func TestValidateConfigPath_RejectsSymlinkEscape(t *testing.T) {
	_, root := setupTestEnv(t)
	outside := filepath.Join(t.TempDir(), "evil.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0o600))

	link := filepath.Join(root, "config", "rooty.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o700))
	require.NoError(t, os.Symlink(outside, link))

	assert.Error(t, validateConfigPath(link, root))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SERVER_HTTP_PORT":           "server.http_port",
		"ACF_SAVE_JSON":              "acf.save_json",
		"OBSERVABILITY_SERVICE_NAME": "observability.service_name",
		"HOOKS_DEBUG":                "hooks.debug",
		"APP_ENV":                    "app.env",
		"PATH":                       "",
		"HOME_DIR":                   "",
		"ACF_":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestApplyAssetsEnv(t *testing.T) {
	cfg := &Config{ACF: ACFConfig{Assets: acf.Assets{Source: "assets/acf", Target: "public"}}}
	env := map[string]string{
		"PUBLIC_DIR":         "web",
		"ACF_ASSETS_SUBPATH": "vendor/acf",
		"ACF_ASSETS_TARGET":  " ",
	}
	applyAssetsEnv(cfg, func(k string) string { return env[k] })

	assert.Equal(t, acf.Assets{
		PublicDir: "web",
		Source:    "assets/acf",
		Subpath:   "vendor/acf",
		Target:    "public",
	}, cfg.ACF.Assets)
}

func TestEnsureConfigDir(t *testing.T) {
	home, _ := setupTestEnv(t)
	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(home, ".config", "rooty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}
