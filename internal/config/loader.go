package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// ProjectConfigFile is the config file looked up under the project root.
	ProjectConfigFile = "config/rooty.yaml"
)

// sections are the top-level keys environment variables may set.
var sections = map[string]struct{}{
	"app":           {},
	"server":        {},
	"observability": {},
	"hooks":         {},
	"abort":         {},
	"acf":           {},
}

// Load loads configuration from the default config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from a YAML file, then the project .env
// file, then environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_HTTP_PORT, ACF_SAVE_JSON, etc.)
//  2. <root>/.env, which never overrides variables already set
//  3. YAML config file
//  4. Hardcoded defaults
//
// The project root is APP_ROOT or the working directory. When configPath
// is empty, <root>/config/rooty.yaml is used if it exists, otherwise
// ~/.config/rooty/config.yaml.
//
// # Security Considerations
//
// Only files under <root>/config/, ~/.config/rooty/ or /etc/rooty/ can be
// loaded. Group- or world-writable files and files larger than 1MB are
// rejected.
//
// # Environment Variable Mapping
//
// Variables split on the first underscore into section and field. Only the
// known sections are read:
//
//	SERVER_HTTP_PORT -> server.http_port
//	ACF_SAVE_JSON    -> acf.save_json
//	ABORT_MANAGER    -> abort.manager
func LoadWithFile(configPath string) (*Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(root); err != nil {
		return nil, err
	}

	if configPath == "" {
		if configPath, err = defaultConfigPath(root); err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")

	if err := validateConfigPath(configPath, root); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}
	if content, err := readConfigFile(configPath); err != nil {
		return nil, err
	} else if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.App.Root == "" {
		cfg.App.Root = root
	}

	applyAssetsEnv(&cfg, os.Getenv)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside
// the known sections map to "" and are skipped.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	if _, ok := sections[parts[0]]; !ok {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func projectRoot() (string, error) {
	if root := strings.TrimSpace(os.Getenv("APP_ROOT")); root != "" {
		return filepath.Abs(root)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadDotEnv loads <root>/.env when present. Variables already in the
// environment win.
func loadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func defaultConfigPath(root string) (string, error) {
	project := filepath.Join(root, filepath.FromSlash(ProjectConfigFile))
	if _, err := os.Stat(project); err == nil {
		return project, nil
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rooty"), nil
}

// readConfigFile returns the content of path, or nil when it does not
// exist. The file is opened once and validated through the descriptor.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// EnsureConfigDir creates ~/.config/rooty with 0700 permissions if it
// doesn't exist.
func EnsureConfigDir() error {
	dir, err := userConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}

// validateConfigPath checks that path is inside an allowed directory. It
// runs even if the file doesn't exist yet.
func validateConfigPath(path, root string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	// Follow symlinks so they cannot escape the allowed directories.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolved = absPath
	}

	userDir, err := userConfigDir()
	if err != nil {
		return err
	}
	allowed := []string{userDir, "/etc/rooty"}
	if root != "" {
		allowed = append(allowed, filepath.Join(root, "config"))
	}

	for _, dir := range allowed {
		if within(resolved, dir) {
			return nil
		}
		if rd, err := filepath.EvalSymlinks(dir); err == nil && within(resolved, rd) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in <project>/config/, ~/.config/rooty/ or /etc/rooty/")
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// validateConfigFileProperties checks file permissions and size using the
// FileInfo of an already-opened file.
func validateConfigFileProperties(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("config path is not a regular file")
	}
	// Skip on Windows (different permission model)
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyAssetsEnv lets the asset publishing variables override the
// acf.assets section.
func applyAssetsEnv(cfg *Config, getenv func(string) string) {
	a := &cfg.ACF.Assets
	for key, dst := range map[string]*string{
		"PUBLIC_DIR":         &a.PublicDir,
		"BUILD_SUBDIR":       &a.BuildSubdir,
		"ACF_ASSETS_SRC":     &a.Source,
		"ACF_ASSETS_SUBPATH": &a.Subpath,
		"ACF_ASSETS_TARGET":  &a.Target,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rooty"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.App.URL == "" {
		cfg.App.URL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "rooty"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
		cfg.Observability.Insecure = true
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
		if cfg.App.Debug {
			cfg.Observability.LogLevel = "debug"
		}
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "json"
		if !cfg.Production() {
			cfg.Observability.LogFormat = "console"
		}
	}

	// App debug turns on directive errors.
	if cfg.App.Debug {
		cfg.Hooks.Debug = true
	}

	if cfg.Abort.Manager == "" {
		cfg.Abort.Manager = "http"
	}
	cfg.Abort.Manager = strings.ToLower(cfg.Abort.Manager)
}
