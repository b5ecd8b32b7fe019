package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/notify"
	"github.com/sadopc/tracklet/internal/output"
	"github.com/sadopc/tracklet/internal/store"
	"github.com/sadopc/tracklet/internal/tui"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui  *output.UI
	eng *engine.Engine

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tracklet",
	Short: "Time tracking with Pomodoro cycles, GPS trails and geofences",
	Long: `tracklet tracks time against tasks. At most one entry runs at a time;
a task can attach a Pomodoro cycle, and places can start and stop
tracking when you arrive or leave.

Running bare 'tracklet' opens the terminal dashboard.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	closeEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun()
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/tracklet/config.yaml)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".config", "tracklet"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TRACKLET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setDefaults() {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".config", "tracklet")

	if dbPath, err := store.DefaultDBPath(); err == nil {
		viper.SetDefault("db_path", dbPath)
	}
	viper.SetDefault("widget.dir", filepath.Join(dir, "widget"))
	viper.SetDefault("log.dir", filepath.Join(dir, "logs"))
	viper.SetDefault("log.debug", false)
	viper.SetDefault("gps_trail.enabled", false)
	viper.SetDefault("location.authorized", false)
	viper.SetDefault("pomodoro.poll_interval", "500ms")
	viper.SetDefault("pomodoro.work_minutes", 25)
	viper.SetDefault("pomodoro.short_break_minutes", 5)
	viper.SetDefault("pomodoro.long_break_minutes", 15)
	viper.SetDefault("pomodoro.sessions_before_long_break", 4)
	viper.SetDefault("notify.enabled", true)
	viper.SetDefault("notify.bell", true)
	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.tray_lockfile", "")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	if err := logger.Init(logger.Config{
		Debug: viper.GetBool("log.debug"),
		Dir:   viper.GetString("log.dir"),
	}); err != nil {
		ui.Warning("File logging disabled: %v", err)
	}

	// The engine is opened lazily, only when a command needs it. This
	// lets config and version commands run without a database.
}

// rootRun opens the dashboard with notifications routed into the UI.
func rootRun() error {
	e, err := openEngine(true)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := e.Restore(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewApp(ctx, e), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// getEngine returns the shared engine with the running entry restored,
// opening it on first call.
func getEngine() (*engine.Engine, error) {
	if eng != nil {
		return eng, nil
	}
	e, err := openEngine(false)
	if err != nil {
		return nil, err
	}
	if err := e.Restore(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

func openEngine(interactive bool) (*engine.Engine, error) {
	e, err := engine.New(engineConfig(interactive))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	eng = e
	return e, nil
}

func engineConfig(interactive bool) engine.Config {
	cfg := engine.Config{
		DBPath:             viper.GetString("db_path"),
		WidgetDir:          viper.GetString("widget.dir"),
		GPSTrail:           viper.GetBool("gps_trail.enabled"),
		LocationAuthorized: viper.GetBool("location.authorized"),
		PollInterval:       viper.GetDuration("pomodoro.poll_interval"),
		Notifications:      viper.GetBool("notify.enabled"),
		WebhookURL:         viper.GetString("notify.webhook_url"),
		TrayLockfile:       viper.GetString("notify.tray_lockfile"),
	}
	if interactive {
		cfg.Cues = 16
	} else if viper.GetBool("notify.bell") {
		cfg.Bell = ui.ErrOut
	}
	if cfg.WebhookURL != "" {
		secret, err := notify.WebhookSecret()
		switch {
		case errors.Is(err, notify.ErrNoSecret):
		case err != nil:
			ui.Warning("Webhook secret unavailable: %v", err)
		default:
			cfg.WebhookSecret = secret
		}
	}
	return cfg
}

func closeEngine() {
	if eng == nil {
		return
	}
	if err := eng.Close(); err != nil {
		logger.Warn("close engine", "err", err)
	}
	eng = nil
}

// reportTrackerError surfaces the non-fatal failure left by the last
// tracker operation, if any.
func reportTrackerError(e *engine.Engine) {
	if err := e.Tracker.LastError(); err != nil {
		ui.Warning("%v", err)
		e.Tracker.ClearLastError()
	}
}
