package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/diogo/megamente/internal/api"
	"github.com/diogo/megamente/internal/chat"
	"github.com/diogo/megamente/internal/config"
	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/models"
	"github.com/diogo/megamente/internal/router"
	"github.com/diogo/megamente/internal/tui"
)

// fakeTUI records the options it was started with and optionally
// drives the orchestrator in place of a user.
type fakeTUI struct {
	calls int
	opts  tui.Options
	drive func(orch *chat.Orchestrator) error
}

func (f *fakeTUI) RunChat(orch *chat.Orchestrator, opts tui.Options) error {
	f.calls++
	f.opts = opts
	if f.drive != nil {
		return f.drive(orch)
	}
	return nil
}

// isolate points HOME at a temp dir and resets environment and flags
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{config.EnvAPIKey, config.EnvAPIKeyFallback, config.EnvChatModel,
		config.EnvImageModel, config.EnvStorage, config.EnvLogLevel, "GLAMOUR_STYLE"} {
		t.Setenv(k, "")
	}
	resetFlags()
	t.Cleanup(resetFlags)
	return home
}

func resetFlags() {
	modelFlag = ""
	imageModelFlag = ""
	storageFlag = ""
	logLevelFlag = ""
	resumeFlag = false
	configInitFlag = false
}

func testDeps(gw api.Gateway, ui *fakeTUI) *Dependencies {
	return &Dependencies{
		Gateway:       gw,
		TUI:           ui,
		IsTerminal:    func() bool { return true },
		TerminalWidth: func() int { return 120 },
	}
}

func TestRootCommand_Help(t *testing.T) {
	cmd := rootCmd
	if cmd.Use != "megamente" {
		t.Errorf("Expected use 'megamente', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestRootCommand_HelpImageExamplesAreTriggers(t *testing.T) {
	examples := regexp.MustCompile(`"([^"]+)\.\.\."`).FindAllStringSubmatch(rootCmd.Long, -1)
	if len(examples) == 0 {
		t.Fatal("help text should show image request examples")
	}
	for _, ex := range examples {
		phrase := strings.ReplaceAll(ex[1], "\n", " ")
		if router.Classify(phrase) != models.KindImage {
			t.Errorf("help example %q is not routed to the image model", phrase)
		}
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	for _, name := range []string{"model", "image-model", "storage", "log-level"} {
		t.Run(name+" flag (persistent)", func(t *testing.T) {
			if rootCmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("PersistentFlag %s not found", name)
			}
		})
	}

	flag := rootCmd.Flags().Lookup("version")
	if flag == nil {
		t.Fatal("Flag version not found")
	}
	if flag.Shorthand != "v" {
		t.Errorf("version shorthand = %q, want v", flag.Shorthand)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "config" {
			found = true
		}
	}
	if !found {
		t.Error("Subcommand config not found")
	}
}

func TestRootCommand_Version(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		_ = rootCmd.Flags().Set("version", "false")
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out.String(), "megamente "+Version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestApplyFlags(t *testing.T) {
	isolate(t)

	cfg := config.DefaultConfig()
	if got := applyFlags(cfg); got != cfg {
		t.Error("no flags should leave the config untouched")
	}

	modelFlag = "gemini-2.5-pro"
	imageModelFlag = "img-x"
	storageFlag = "SQLite"
	logLevelFlag = "DEBUG"

	got := applyFlags(cfg)
	if got.ChatModel != "gemini-2.5-pro" || got.ImageModel != "img-x" {
		t.Errorf("models = %s/%s", got.ChatModel, got.ImageModel)
	}
	if got.Storage != "sqlite" || got.LogLevel != "debug" {
		t.Errorf("storage/log level not lowercased: %s/%s", got.Storage, got.LogLevel)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvChatModel, "from-env")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ChatModel != "from-env" {
		t.Errorf("ChatModel = %s, want from-env", cfg.ChatModel)
	}

	modelFlag = "from-flag"
	cfg, _ = loadConfig()
	if cfg.ChatModel != "from-flag" {
		t.Errorf("ChatModel = %s, want from-flag", cfg.ChatModel)
	}
}

func TestLoadConfig_InvalidStorage(t *testing.T) {
	isolate(t)
	storageFlag = "redis"

	if _, err := loadConfig(); err == nil {
		t.Error("expected an error for an unknown storage backend")
	}
}

func TestRunApp_StartsTUI(t *testing.T) {
	home := isolate(t)

	ui := &fakeTUI{}
	if err := runApp(context.Background(), testDeps(&api.MockGateway{}, ui)); err != nil {
		t.Fatalf("runApp: %v", err)
	}

	if ui.calls != 1 {
		t.Fatalf("TUI started %d times, want 1", ui.calls)
	}
	if ui.opts.ModelName != models.DefaultChatModel {
		t.Errorf("ModelName = %s", ui.opts.ModelName)
	}
	if ui.opts.Render.Width != 120 {
		t.Errorf("render width = %d, want 120", ui.opts.Render.Width)
	}
	if ui.opts.Logger == nil {
		t.Error("TUI should receive a logger")
	}

	wantDir := filepath.Join(home, ".megamente", "images")
	if ui.opts.DownloadDir != wantDir {
		t.Errorf("DownloadDir = %s, want %s", ui.opts.DownloadDir, wantDir)
	}
	if _, err := os.Stat(filepath.Join(home, ".megamente", "megamente.log")); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestRunApp_PersistsSessions(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			isolate(t)
			storageFlag = backend

			gw := &api.MockGateway{Fragments: []string{"Olá!"}}
			ui := &fakeTUI{drive: func(orch *chat.Orchestrator) error {
				return orch.Send(context.Background(), "Oi", nil)
			}}
			if err := runApp(context.Background(), testDeps(gw, ui)); err != nil {
				t.Fatalf("runApp: %v", err)
			}

			// A second start sees the session written by the first
			var seen []models.Session
			ui = &fakeTUI{drive: func(orch *chat.Orchestrator) error {
				seen = orch.State().Sessions
				return nil
			}}
			if err := runApp(context.Background(), testDeps(gw, ui)); err != nil {
				t.Fatalf("second runApp: %v", err)
			}

			if len(seen) != 1 {
				t.Fatalf("got %d sessions after restart, want 1", len(seen))
			}
			msgs := seen[0].Messages
			if len(msgs) != 2 || msgs[1].Content != "Olá!" {
				t.Errorf("unexpected persisted messages: %+v", msgs)
			}
		})
	}
}

func TestRunApp_TUIErrorReturned(t *testing.T) {
	isolate(t)

	boom := errors.New("boom")
	ui := &fakeTUI{drive: func(*chat.Orchestrator) error { return boom }}
	if err := runApp(context.Background(), testDeps(&api.MockGateway{}, ui)); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRunApp_NotATerminal(t *testing.T) {
	isolate(t)

	ui := &fakeTUI{}
	d := testDeps(&api.MockGateway{}, ui)
	d.IsTerminal = func() bool { return false }

	if err := runApp(context.Background(), d); err == nil {
		t.Error("expected an error without a terminal")
	}
	if ui.calls != 0 {
		t.Error("TUI must not start without a terminal")
	}
}

func TestRunApp_NoAPIKey(t *testing.T) {
	isolate(t)

	ui := &fakeTUI{}
	err := runApp(context.Background(), testDeps(nil, ui))
	if !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
	if ui.calls != 0 {
		t.Error("TUI must not start without an API key")
	}
}

func TestRunApp_UnreadableSessionsKeptOnExit(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".megamente", "store")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "mega_mente_sessions.json")
	stored := []byte(`[{"id":"1","title":"Minha conversa","messages":[{"id":"2","role":"system","content":"x","timestamp":0}]}]`)
	if err := os.WriteFile(path, stored, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runApp(context.Background(), testDeps(&api.MockGateway{}, &fakeTUI{})); err != nil {
		t.Fatalf("runApp: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored sessions: %v", err)
	}
	if !bytes.Equal(after, stored) {
		t.Errorf("stored sessions rewritten on exit: %s", after)
	}
}

func TestRunApp_Resume(t *testing.T) {
	isolate(t)

	gw := &api.MockGateway{Fragments: []string{"ok"}}
	var newestID string
	ui := &fakeTUI{drive: func(orch *chat.Orchestrator) error {
		if err := orch.Send(context.Background(), "primeira", nil); err != nil {
			return err
		}
		orch.NewChat()
		if err := orch.Send(context.Background(), "segunda", nil); err != nil {
			return err
		}
		newestID = orch.ActiveID()
		return nil
	}}
	if err := runApp(context.Background(), testDeps(gw, ui)); err != nil {
		t.Fatalf("runApp: %v", err)
	}

	var active string
	ui = &fakeTUI{drive: func(orch *chat.Orchestrator) error {
		active = orch.ActiveID()
		return nil
	}}
	if err := runApp(context.Background(), testDeps(gw, ui)); err != nil {
		t.Fatalf("runApp: %v", err)
	}
	if active != "" {
		t.Errorf("without --resume no session should be active, got %s", active)
	}

	resumeFlag = true
	if err := runApp(context.Background(), testDeps(gw, ui)); err != nil {
		t.Fatalf("runApp: %v", err)
	}
	if active != newestID {
		t.Errorf("resumed session = %s, want newest %s", active, newestID)
	}
}

func TestRunApp_WithAPIKey(t *testing.T) {
	home := isolate(t)
	t.Setenv(config.EnvAPIKey, "test-key")

	cfg := config.DefaultConfig()
	cfg.ImageAspectRatio = "16:9"
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(home, ".megamente", "config.json")); err != nil {
		t.Fatal(err)
	}

	ui := &fakeTUI{}
	if err := runApp(context.Background(), testDeps(nil, ui)); err != nil {
		t.Fatalf("runApp: %v", err)
	}
	if ui.calls != 1 {
		t.Error("TUI should start when a key is configured")
	}
}

func TestValidateMarkdownStyle(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "style.json")
	if err := os.WriteFile(custom, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		style   string
		wantErr bool
	}{
		{"", false},
		{"dark", false},
		{"tokyo-night", false},
		{custom, false},
		{"neon", true},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			err := validateMarkdownStyle(tt.style)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMarkdownStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
			}
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no api key", apierrors.ErrNoAPIKey, config.EnvAPIKey},
		{"storage", apierrors.NewStorageError("write", "k", errors.New("denied")), "--storage file"},
		{"gateway", apierrors.NewGatewayError("stream", "m", errors.New("eof")), "internet connection"},
		{"plain", errors.New("plain failure"), "plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatErrorMessage(tt.err, "megamente")
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatErrorMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}

	if formatErrorMessage(nil, "x") != "" {
		t.Error("nil error should format as empty")
	}
}
