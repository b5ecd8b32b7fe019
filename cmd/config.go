package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tracklet"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage tracklet configuration.

Running bare 'tracklet config' is the same as 'tracklet config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# tracklet configuration
# See: tracklet config show (for effective values and sources)

# SQLite database path (default: ~/.config/tracklet/tracklet.db)
db_path: {{ .DBPath }}

# Directory shared with the widget (state.json, action.json)
widget:
  dir: {{ .WidgetDir }}

log:
  dir: {{ .LogDir }}
  # Also log to stderr at debug level
  debug: {{ .LogDebug }}

location:
  # Whether location access has been granted
  authorized: {{ .LocationAuthorized }}

gps_trail:
  # Record GPS fixes against the running entry
  enabled: {{ .GPSTrail }}

# Defaults for 'tracklet task pomodoro'
pomodoro:
  poll_interval: {{ .PollInterval }}
  work_minutes: {{ .WorkMinutes }}
  short_break_minutes: {{ .ShortBreakMinutes }}
  long_break_minutes: {{ .LongBreakMinutes }}
  sessions_before_long_break: {{ .Sessions }}

notify:
  enabled: {{ .NotifyEnabled }}
  # Ring the terminal bell for notifications from CLI commands
  bell: {{ .NotifyBell }}
  # POST notifications as JSON; the secret comes from 'tracklet notify secret set'
  webhook_url: "{{ .WebhookURL }}"
  # Lockfile of a running tray app ("port|pid|secret")
  tray_lockfile: "{{ .TrayLockfile }}"
`

type configTemplateData struct {
	DBPath             string
	WidgetDir          string
	LogDir             string
	LogDebug           bool
	LocationAuthorized bool
	GPSTrail           bool
	PollInterval       string
	WorkMinutes        int
	ShortBreakMinutes  int
	LongBreakMinutes   int
	Sessions           int
	NotifyEnabled      bool
	NotifyBell         bool
	WebhookURL         string
	TrayLockfile       string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		DBPath:             viper.GetString("db_path"),
		WidgetDir:          viper.GetString("widget.dir"),
		LogDir:             viper.GetString("log.dir"),
		LogDebug:           viper.GetBool("log.debug"),
		LocationAuthorized: viper.GetBool("location.authorized"),
		GPSTrail:           viper.GetBool("gps_trail.enabled"),
		PollInterval:       viper.GetString("pomodoro.poll_interval"),
		WorkMinutes:        viper.GetInt("pomodoro.work_minutes"),
		ShortBreakMinutes:  viper.GetInt("pomodoro.short_break_minutes"),
		LongBreakMinutes:   viper.GetInt("pomodoro.long_break_minutes"),
		Sessions:           viper.GetInt("pomodoro.sessions_before_long_break"),
		NotifyEnabled:      viper.GetBool("notify.enabled"),
		NotifyBell:         viper.GetBool("notify.bell"),
		WebhookURL:         viper.GetString("notify.webhook_url"),
		TrayLockfile:       viper.GetString("notify.tray_lockfile"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

var configKeys = []string{
	"db_path",
	"widget.dir",
	"log.dir",
	"log.debug",
	"location.authorized",
	"gps_trail.enabled",
	"pomodoro.poll_interval",
	"pomodoro.work_minutes",
	"pomodoro.short_break_minutes",
	"pomodoro.long_break_minutes",
	"pomodoro.sessions_before_long_break",
	"notify.enabled",
	"notify.bell",
	"notify.webhook_url",
	"notify.tray_lockfile",
}

// envVar is the environment variable AutomaticEnv consults for key.
func envVar(key string) string {
	return "TRACKLET_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k)
		source := detectSource(k, envVar(k), fileValues)
		fmt.Fprintf(ui.Out, "  %-36s %v  %s\n", k, val, source)
	}
	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'tracklet config init' first)", cfgPath)
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
