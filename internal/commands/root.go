// Package commands provides CLI commands for megamente.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/megamente/internal/api"
	"github.com/diogo/megamente/internal/chat"
	"github.com/diogo/megamente/internal/config"
	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/history"
	"github.com/diogo/megamente/internal/kv"
	"github.com/diogo/megamente/internal/logging"
	"github.com/diogo/megamente/internal/models"
	"github.com/diogo/megamente/internal/render"
	"github.com/diogo/megamente/internal/tui"
)

var (
	// Global flags
	modelFlag      string
	imageModelFlag string
	storageFlag    string
	logLevelFlag   string
	resumeFlag     bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"

	deps = NewDependencies()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "megamente",
	Short: "Terminal chat with Gemini, with inline image generation",
	Long: `megamente opens a full-screen chat with Google Gemini.

Replies stream in as they are written. Ask for a picture ("gere uma imagem
de...", "desenhe...") and the image model answers instead, with a download
action in the view. Conversations are kept in ~/.megamente.

The API key is read from GEMINI_API_KEY (or API_KEY).

Examples:
  megamente                             Start the chat
  megamente -m gemini-2.5-pro           Use another chat model
  megamente --storage sqlite            Keep sessions in SQLite
  megamente -r                          Reopen the most recent conversation
  megamente config                      Show paths and settings`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "megamente %s (built %s)\n", Version, BuildTime)
			return nil
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runApp(ctx, deps)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "megamente"))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Chat model to use (e.g., gemini-2.5-flash)")
	rootCmd.PersistentFlags().StringVar(&imageModelFlag, "image-model", "", "Model used for image requests")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Session storage backend (file, sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&resumeFlag, "resume", "r", false, "Reopen the most recent conversation")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies environment and flag overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
	}
	cfg = applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := validateMarkdownStyle(cfg.Markdown.Style); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateMarkdownStyle accepts a glamour standard style or a path to a JSON style file
func validateMarkdownStyle(style string) error {
	if style == "" || render.IsStandardStyle(style) {
		return nil
	}
	if _, err := os.Stat(style); err == nil {
		return nil
	}
	names := make([]string, 0, len(render.AvailableStyles()))
	for _, s := range render.AvailableStyles() {
		names = append(names, s.Name)
	}
	return fmt.Errorf("unknown markdown style %q (available: %s, or a style file path)", style, strings.Join(names, ", "))
}

// applyFlags overrides cfg with any flags given on the command line
func applyFlags(cfg config.Config) config.Config {
	if modelFlag != "" {
		cfg.ChatModel = modelFlag
	}
	if imageModelFlag != "" {
		cfg.ImageModel = imageModelFlag
	}
	if storageFlag != "" {
		cfg.Storage = strings.ToLower(storageFlag)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = strings.ToLower(logLevelFlag)
	}
	return cfg
}

// runApp wires storage, the gateway and the orchestrator, then runs the TUI
func runApp(ctx context.Context, d *Dependencies) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if d.IsTerminal != nil && !d.IsTerminal() {
		return errors.New("megamente needs an interactive terminal")
	}

	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return err
	}

	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}
	logger, err := logging.New(logPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, err := kv.Open(cfg.Storage, configDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
	}()

	sessions := history.NewStore(backend, logging.Named(logger, "history"))
	if err := sessions.Load(); err != nil {
		logger.Warn("starting with an empty session list", zap.Error(err))
	}

	gateway := d.Gateway
	if gateway == nil {
		gwOpts := []api.Option{
			api.WithChatModel(models.ModelFromName(cfg.ChatModel)),
			api.WithImageModel(models.ModelFromName(cfg.ImageModel)),
			api.WithLogger(logging.Named(logger, "gateway")),
		}
		if cfg.ImageAspectRatio != "" {
			gwOpts = append(gwOpts, api.WithAspectRatio(cfg.ImageAspectRatio))
		}
		gw, err := api.NewGateway(ctx, config.APIKey(), gwOpts...)
		if err != nil {
			return err
		}
		logger.Debug("gateway ready",
			zap.String("chat_model", gw.ChatModel().Name),
			zap.String("image_model", gw.ImageModel().Name))
		gateway = gw
	}

	orchOpts := []chat.Option{chat.WithLogger(logging.Named(logger, "chat"))}
	if resumeFlag {
		if list := sessions.Sessions(); len(list) > 0 {
			orchOpts = append(orchOpts, chat.WithActiveSession(list[0].ID))
		}
	}
	orch := chat.New(sessions, gateway, orchOpts...)

	downloadDir, err := config.GetDownloadDir(cfg)
	if err != nil {
		return err
	}

	width := 80
	if d.TerminalWidth != nil {
		width = d.TerminalWidth()
	}

	tui.ApplyTheme(render.TUIThemeOrDefault(cfg.TUITheme))

	logger.Info("starting",
		zap.String("version", Version),
		zap.String("chat_model", cfg.ChatModel),
		zap.String("image_model", cfg.ImageModel),
		zap.String("storage", cfg.Storage),
		zap.Int("sessions", sessions.Len()))

	runErr := d.TUI.RunChat(orch, tui.Options{
		ModelName:       cfg.ChatModel,
		DownloadDir:     downloadDir,
		Render:          render.OptionsFromConfig(cfg, width),
		CopyToClipboard: cfg.CopyToClipboard,
		Logger:          logging.Named(logger, "tui"),
	})

	// Save never writes an empty collection
	if err := sessions.Save(); err != nil {
		logger.Error("final save failed", zap.Error(err))
	}
	return runErr
}

// formatErrorMessage formats an error with a hint for the common startup failures
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	switch {
	case errors.Is(err, apierrors.ErrNoAPIKey):
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Hint: export %s=<your key>", config.EnvAPIKey)))
	case apierrors.IsStorageError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: check permissions on ~/.megamente or try --storage file"))
	case apierrors.IsGatewayError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: check your internet connection and try again"))
	}

	return sb.String()
}
