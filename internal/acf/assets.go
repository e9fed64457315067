package acf

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Asset publishing defaults, overridable through the environment.
const (
	DefaultPublicDir     = "public"
	DefaultBuildSubdir   = "build"
	DefaultAssetsSource  = "src/acf/assets"
	DefaultAssetsSubpath = "acf/assets"
	DefaultAssetsTarget  = TargetPublic
)

// Asset targets. Any other value names a custom directory under the
// public directory.
const (
	TargetPublic = "public"
	TargetBuild  = "build"
)

// Assets locates the ACF assets in the source tree and in the public
// directory.
type Assets struct {
	PublicDir   string `koanf:"public_dir" json:"public_dir"`
	BuildSubdir string `koanf:"build_subdir" json:"build_subdir"`
	Source      string `koanf:"source" json:"source"`
	Subpath     string `koanf:"subpath" json:"subpath"`
	Target      string `koanf:"target" json:"target"`
}

// DefaultAssets returns the stock layout: src/acf/assets published to
// public/acf/assets.
func DefaultAssets() Assets {
	return Assets{
		PublicDir:   DefaultPublicDir,
		BuildSubdir: DefaultBuildSubdir,
		Source:      DefaultAssetsSource,
		Subpath:     DefaultAssetsSubpath,
		Target:      DefaultAssetsTarget,
	}
}

// AssetsFromEnv reads PUBLIC_DIR, BUILD_SUBDIR, ACF_ASSETS_SRC,
// ACF_ASSETS_SUBPATH and ACF_ASSETS_TARGET through getenv, falling back to
// the defaults for unset or empty values.
func AssetsFromEnv(getenv func(string) string) Assets {
	a := DefaultAssets()
	pick := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	pick(&a.PublicDir, "PUBLIC_DIR")
	pick(&a.BuildSubdir, "BUILD_SUBDIR")
	pick(&a.Source, "ACF_ASSETS_SRC")
	pick(&a.Subpath, "ACF_ASSETS_SUBPATH")
	pick(&a.Target, "ACF_ASSETS_TARGET")
	a.Target = strings.ToLower(a.Target)
	return a
}

func (a Assets) withDefaults() Assets {
	d := DefaultAssets()
	if a.PublicDir == "" {
		a.PublicDir = d.PublicDir
	}
	if a.BuildSubdir == "" {
		a.BuildSubdir = d.BuildSubdir
	}
	if a.Source == "" {
		a.Source = d.Source
	}
	if a.Subpath == "" {
		a.Subpath = d.Subpath
	}
	if a.Target == "" {
		a.Target = d.Target
	}
	return a
}

// relTarget is the published location relative to the public directory.
func (a Assets) relTarget() string {
	a = a.withDefaults()
	sub := strings.Trim(a.Subpath, "/")
	switch strings.ToLower(a.Target) {
	case TargetPublic:
		return sub
	case TargetBuild:
		return strings.Trim(a.BuildSubdir, "/") + "/" + sub
	default:
		return strings.Trim(a.Target, "/") + "/" + sub
	}
}

// SourceDir is the assets directory in the source tree.
func (a Assets) SourceDir(root string) string {
	a = a.withDefaults()
	return filepath.Join(root, strings.TrimLeft(a.Source, "/"))
}

// TargetDir is the published assets directory.
func (a Assets) TargetDir(root string) string {
	a = a.withDefaults()
	return filepath.Join(root, strings.Trim(a.PublicDir, "/"), filepath.FromSlash(a.relTarget()))
}

// URL returns the public URL of the published assets under siteURL, with
// a trailing slash.
func (a Assets) URL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + path.Clean("/"+a.relTarget()) + "/"
}

// Publish replaces the published assets with a fresh copy of the source
// directory and returns the target directory.
func (a Assets) Publish(root string) (string, error) {
	src := a.SourceDir(root)
	dst, err := a.safeTarget(root, src)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("source assets not found: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("unable to create public base dir %s: %w", filepath.Dir(dst), err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("failed to clean %s: %w", dst, err)
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return "", fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return dst, nil
}

// safeTarget returns the cleaned target directory. The target is removed
// before copying, so it must sit strictly inside the public directory,
// which itself must sit strictly inside root, and must not overlap the
// source.
func (a Assets) safeTarget(root, src string) (string, error) {
	a = a.withDefaults()
	root = filepath.Clean(root)
	public := filepath.Clean(filepath.Join(root, strings.Trim(a.PublicDir, "/")))
	dst := filepath.Clean(a.TargetDir(root))

	if !strictlyInside(root, public) {
		return "", fmt.Errorf("%w: public dir %s is not inside %s", ErrUnsafeTarget, public, root)
	}
	if !strictlyInside(public, dst) {
		return "", fmt.Errorf("%w: %s is not inside %s", ErrUnsafeTarget, dst, public)
	}
	if src = filepath.Clean(src); src == dst || strictlyInside(dst, src) || strictlyInside(src, dst) {
		return "", fmt.Errorf("%w: %s overlaps the source %s", ErrUnsafeTarget, dst, src)
	}
	return dst, nil
}

// strictlyInside reports whether path is below dir and not dir itself.
func strictlyInside(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
