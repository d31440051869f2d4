package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/megamente/internal/api"
	"github.com/diogo/megamente/internal/config"
	"github.com/diogo/megamente/internal/render"
)

var configInitFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration paths and effective settings",
	Long: `Show where megamente keeps its files and the settings in effect after
environment variables and flags are applied.

Use --init to write a config.json with the default settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInitFlag {
			return initConfig(cmd.OutOrStdout())
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInitFlag, "init", false, "Write a default config file if none exists")
}

// initConfig writes the default configuration unless a file already exists
func initConfig(w io.Writer) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Config already exists: %s\n", path)
		return nil
	}
	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

func printConfig(w io.Writer, cfg config.Config) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}

	keyStatus := "missing"
	if config.APIKey() != "" {
		keyStatus = "set"
	}

	aspectRatio := cfg.ImageAspectRatio
	if aspectRatio == "" {
		aspectRatio = api.DefaultAspectRatio
	}

	rows := [][2]string{
		{"config file", configPath},
		{"log file", logPath},
		{"download dir", cfg.DownloadDir},
		{"api key", keyStatus},
		{"chat model", cfg.ChatModel},
		{"image model", cfg.ImageModel},
		{"aspect ratio", aspectRatio},
		{"storage", cfg.Storage},
		{"log level", cfg.LogLevel},
		{"tui theme", cfg.TUITheme + " (" + strings.Join(render.TUIThemeNames(), ", ") + ")"},
		{"markdown style", cfg.Markdown.Style},
		{"copy replies", fmt.Sprintf("%t", cfg.CopyToClipboard)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-15s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}
