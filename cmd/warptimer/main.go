// Package main provides the CLI entrypoint for warptimer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/warptimer/internal/alarm"
	"github.com/verte-zerg/warptimer/internal/config"
	"github.com/verte-zerg/warptimer/internal/countdown"
	"github.com/verte-zerg/warptimer/internal/model"
	"github.com/verte-zerg/warptimer/internal/starfield"
	"github.com/verte-zerg/warptimer/internal/timesync"
	"github.com/verte-zerg/warptimer/internal/tui"
)

const (
	defaultFPS         = 60
	defaultVolume      = 1.0
	defaultRepeat      = 4
	defaultSyncTimeout = "10s"
)

var (
	timerTarget string
	timerClock  bool

	starCount   int
	starFocal   float64
	starRadius  float64
	starTrail   float64
	starFPS     int
	starsHidden bool

	syncDisabled bool
	syncURL      string
	syncField    string
	syncTimeout  string

	audioMute   bool
	audioSound  string
	audioVolume float64
	audioRepeat int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := starfield.DefaultParams()
	rootCmd := &cobra.Command{
		Use:           "warptimer",
		Short:         "Countdown timer over a warp-speed starfield",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.Flags().StringVar(&timerTarget, "at", "", "target time of day as HH:MM (default: one hour from now)")
	rootCmd.Flags().BoolVar(&timerClock, "clock", false, "start with the wall clock readout")
	rootCmd.Flags().IntVar(&starCount, "stars", defaults.Count, "number of stars")
	rootCmd.Flags().Float64Var(&starFocal, "focal-length", defaults.FocalLength, "perspective focal length")
	rootCmd.Flags().Float64Var(&starRadius, "base-radius", defaults.BaseRadius, "star radius at the focal plane, in sub-pixels")
	rootCmd.Flags().Float64Var(&starTrail, "trail", defaults.TrailAlpha, "per-frame fade of the previous frame (0-1]")
	rootCmd.Flags().IntVar(&starFPS, "fps", defaultFPS, "animation frames per second")
	rootCmd.Flags().BoolVar(&starsHidden, "hide-stars", false, "start with the starfield hidden")
	rootCmd.Flags().BoolVar(&syncDisabled, "no-sync", false, "skip the remote time offset query")
	rootCmd.Flags().StringVar(&syncURL, "sync-url", timesync.DefaultURL, "time service URL")
	rootCmd.Flags().StringVar(&syncField, "sync-field", timesync.DefaultField, "JSON field holding the timestamp")
	rootCmd.Flags().StringVar(&syncTimeout, "sync-timeout", defaultSyncTimeout, "time service request timeout")
	rootCmd.Flags().BoolVar(&audioMute, "mute", false, "disable the alarm sound")
	rootCmd.Flags().StringVar(&audioSound, "sound", "", "mp3 or wav file to play instead of the built-in tone")
	rootCmd.Flags().Float64Var(&audioVolume, "volume", defaultVolume, "alarm gain (0-4)")
	rootCmd.Flags().IntVar(&audioRepeat, "repeat", defaultRepeat, "alarm repetitions")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newNextCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "at", &timerTarget, fileCfg.Timer.Target)
	applyBoolConfig(cmd, "clock", &timerClock, fileCfg.Timer.ClockMode)
	applyIntConfig(cmd, "stars", &starCount, fileCfg.Starfield.Stars)
	applyFloatConfig(cmd, "focal-length", &starFocal, fileCfg.Starfield.FocalLength)
	applyFloatConfig(cmd, "base-radius", &starRadius, fileCfg.Starfield.BaseRadius)
	applyFloatConfig(cmd, "trail", &starTrail, fileCfg.Starfield.Trail)
	applyIntConfig(cmd, "fps", &starFPS, fileCfg.Starfield.FPS)
	applyBoolConfig(cmd, "hide-stars", &starsHidden, fileCfg.Starfield.Hidden)
	if enabled := fileCfg.Sync.Enabled; enabled != nil && !cmd.Flags().Changed("no-sync") {
		syncDisabled = !*enabled
	}
	applyStringConfig(cmd, "sync-url", &syncURL, fileCfg.Sync.URL)
	applyStringConfig(cmd, "sync-field", &syncField, fileCfg.Sync.Field)
	applyStringConfig(cmd, "sync-timeout", &syncTimeout, fileCfg.Sync.Timeout)
	applyBoolConfig(cmd, "mute", &audioMute, fileCfg.Audio.Mute)
	applyStringConfig(cmd, "sound", &audioSound, fileCfg.Audio.Sound)
	applyFloatConfig(cmd, "volume", &audioVolume, fileCfg.Audio.Volume)
	applyIntConfig(cmd, "repeat", &audioRepeat, fileCfg.Audio.Repeat)

	timeout, err := time.ParseDuration(syncTimeout)
	if err != nil {
		return fmt.Errorf("invalid --sync-timeout value: %w", err)
	}
	cfg := model.Config{
		Target:      strings.TrimSpace(timerTarget),
		ClockMode:   timerClock,
		Stars:       starCount,
		FocalLength: starFocal,
		BaseRadius:  starRadius,
		Trail:       starTrail,
		FPS:         starFPS,
		HideStars:   starsHidden,
		Sync:        !syncDisabled,
		SyncURL:     syncURL,
		SyncField:   syncField,
		SyncTimeout: timeout,
		Mute:        audioMute,
		Sound:       audioSound,
		Volume:      audioVolume,
		Repeat:      audioRepeat,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("warptimer needs an interactive terminal")
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		width, height = 0, 0
	}

	logFile, err := openLog(config.DefaultLogPath())
	if err != nil {
		logErrf("failed to open log file: %v\n", err)
	} else {
		defer func() {
			_ = logFile.Close()
		}()
	}

	player := newAlarm(cfg)
	defer func() {
		if cerr := player.Close(); cerr != nil {
			logErrf("failed to close audio: %v\n", cerr)
		}
	}()

	m := tui.NewModel(cfg, tui.Deps{
		Alarm:  player,
		Sync:   newSyncFunc(cfg),
		Width:  width,
		Height: height,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

type alarmPlayer interface {
	tui.Alarm
	Close() error
}

func newAlarm(cfg model.Config) alarmPlayer {
	if cfg.Mute {
		return alarm.Nop{}
	}
	return alarm.New(alarm.Options{
		SoundPath: cfg.Sound,
		Volume:    cfg.Volume,
		Repeat:    cfg.Repeat,
	})
}

func newSyncFunc(cfg model.Config) tui.SyncFunc {
	if !cfg.Sync {
		return nil
	}
	opts := timesync.Options{
		URL:     cfg.SyncURL,
		Field:   cfg.SyncField,
		Timeout: cfg.SyncTimeout,
	}
	return func(ctx context.Context) (time.Duration, error) {
		res, err := timesync.Query(ctx, opts)
		if err != nil {
			return 0, err
		}
		return res.Offset, nil
	}
}

// openLog points the standard logger at path so log output does not tear
// the alternate screen.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "warptimer")
	if err != nil {
		return nil, err
	}
	return f, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Query the time service once and print the clock offset",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
	cmd.Flags().StringVar(&syncURL, "url", timesync.DefaultURL, "time service URL")
	cmd.Flags().StringVar(&syncField, "field", timesync.DefaultField, "JSON field holding the timestamp")
	cmd.Flags().StringVar(&syncTimeout, "timeout", defaultSyncTimeout, "request timeout")
	return cmd
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "url", &syncURL, fileCfg.Sync.URL)
	applyStringConfig(cmd, "field", &syncField, fileCfg.Sync.Field)
	applyStringConfig(cmd, "timeout", &syncTimeout, fileCfg.Sync.Timeout)
	timeout, err := time.ParseDuration(syncTimeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout value: %w", err)
	}

	logErrf("Querying %s...\n", syncURL)
	res, err := timesync.Query(context.Background(), timesync.Options{
		URL:     syncURL,
		Field:   syncField,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to query time service: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "remote  %s\noffset  %+.3fs\nrtt     %s\n",
		res.Remote.Format(time.RFC3339Nano), res.Offset.Seconds(), res.RTT.Round(time.Millisecond)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next HH:MM",
		Short: "Print when a time of day next occurs",
		Args:  cobra.ExactArgs(1),
		RunE:  runNextCmd,
	}
}

func runNextCmd(cmd *cobra.Command, args []string) error {
	return printNext(cmd, args[0], time.Now())
}

func printNext(cmd *cobra.Command, input string, now time.Time) error {
	hour, minute, err := countdown.ParseTimeOfDay(input)
	if err != nil {
		return err
	}
	target := countdown.NextOccurrence(now, hour, minute)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (in %s)\n",
		target.Format("2006-01-02 15:04:05"), countdown.FormatDuration(target.Sub(now))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := starfield.DefaultParams()
	return fmt.Sprintf(`# warptimer configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# target = "07:30"        # Target time of day (default: one hour from now)
# clock-mode = false      # Start with the wall clock readout

[starfield]
# stars = %d             # Number of stars
# focal-length = %.0f     # Perspective focal length
# base-radius = %.2f     # Star radius at the focal plane, in sub-pixels
# trail = %.2f           # Per-frame fade of the previous frame (0-1]
# fps = %d                # Animation frames per second
# hidden = false          # Start with the starfield hidden

[sync]
# enabled = true          # Query the time service at startup
# url = %q
# field = %q
# timeout = %q

[audio]
# mute = false            # Disable the alarm sound
# sound = ""              # mp3 or wav file instead of the built-in tone
# volume = %.1f           # Alarm gain (0-4)
# repeat = %d              # Alarm repetitions
`,
		defaults.Count,
		defaults.FocalLength,
		defaults.BaseRadius,
		defaults.TrailAlpha,
		defaultFPS,
		timesync.DefaultURL,
		timesync.DefaultField,
		defaultSyncTimeout,
		defaultVolume,
		defaultRepeat,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Target != "" {
		if _, _, err := countdown.ParseTimeOfDay(cfg.Target); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	}
	if cfg.Stars <= 0 {
		return fmt.Errorf("--stars must be > 0")
	}
	if cfg.FocalLength <= 0 {
		return fmt.Errorf("--focal-length must be > 0")
	}
	if cfg.BaseRadius <= 0 {
		return fmt.Errorf("--base-radius must be > 0")
	}
	if cfg.Trail <= 0 || cfg.Trail > 1 {
		return fmt.Errorf("--trail must be in (0, 1]")
	}
	if cfg.FPS <= 0 || cfg.FPS > 240 {
		return fmt.Errorf("--fps must be between 1 and 240")
	}
	if cfg.Sync && cfg.SyncTimeout <= 0 {
		return fmt.Errorf("--sync-timeout must be > 0")
	}
	if cfg.Volume < 0 || cfg.Volume > 4 {
		return fmt.Errorf("--volume must be between 0 and 4")
	}
	if cfg.Repeat <= 0 {
		return fmt.Errorf("--repeat must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
