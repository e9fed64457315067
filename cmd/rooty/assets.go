package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/config"
)

func init() {
	rootCmd.AddCommand(publishAssetsCmd)
	rootCmd.AddCommand(setupCmd)
	for _, c := range []*cobra.Command{publishAssetsCmd, setupCmd} {
		c.Flags().StringVar(&rootDir, "root", "", "project root (default APP_ROOT or the working directory)")
	}
}

var publishAssetsCmd = &cobra.Command{
	Use:   "publish-acf-assets",
	Short: "Copy the bundled ACF assets into the public directory",
	Long: `Replace the published ACF assets with a fresh copy of ACF_ASSETS_SRC.

The target is PUBLIC_DIR/ACF_ASSETS_SUBPATH, or
PUBLIC_DIR/BUILD_SUBDIR/ACF_ASSETS_SUBPATH when ACF_ASSETS_TARGET=build.
Variables are read from the environment and the project .env file.

Examples:
  rooty publish-acf-assets
  ACF_ASSETS_TARGET=build rooty publish-acf-assets`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		return publishAssets(cmd, root)
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare a fresh checkout",
	Long: `Create the user config directory and publish the ACF assets.

Run once after cloning or after updating the bundled ACF.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}
		return publishAssets(cmd, root)
	},
}

// projectRoot is --root, APP_ROOT or the working directory.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	if r := os.Getenv("APP_ROOT"); r != "" {
		return filepath.Abs(r)
	}
	return os.Getwd()
}

// publishAssets loads <root>/.env without overriding the environment and
// publishes the assets it describes.
func publishAssets(cmd *cobra.Command, root string) error {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	dst, err := acf.AssetsFromEnv(os.Getenv).Publish(root)
	if err != nil {
		return fmt.Errorf("[ACF] %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[ACF] Assets copied to %s\n", dst)
	return nil
}
