package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var (
	// Global flags
	verbose bool
	cfgFile string
	appFile string

	cfg    = viper.New()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// settingFlags maps persistent flags to the settings keys they override.
var settingFlags = map[string]string{
	"max-iterations":      "max_iterations",
	"obstacle-margin":     "obstacle_margin",
	"elbow-overshoot":     "elbow_overshoot",
	"guideline-clearance": "guideline_clearance",
	"parallelism":         "parallelism",
	"fail-on-overlap":     "fail_on_unresolved_overlap",
}

var rootCmd = &cobra.Command{
	Use:   "schemtrace",
	Short: "SchemTrace - Schematic trace router",
	Long: `SchemTrace routes orthogonal traces between chip pins, places net labels
for everything it cannot draw as a wire, and exports the resulting layout.

Settings are read from the config file, then SCHEMTRACE_* environment
variables (SCHEMTRACE_ELBOW_OVERSHOOT=0.3), then command line flags.

Examples:
  schemtrace solve board.json -o routed.json     # Route a problem
  schemtrace import nets.csv --chips board.dxf   # Build a problem from a netlist
  schemtrace export routed.json -f svg,pdf       # Render a routed layout
  schemtrace check routed.json                   # Verify a routed layout
  schemtrace compare board.json                  # Try setting variants`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log solver progress to stderr")
	flags.StringVar(&cfgFile, "config", "", "settings file (default ~/.schemtrace/settings.json)")
	flags.StringVar(&appFile, "app-config", "", "application config file (default ~/.schemtrace/config.json)")

	flags.Int("max-iterations", 0, "iteration ceiling for every solver")
	flags.Float64("obstacle-margin", 0, "margin kept around foreign chips")
	flags.Float64("elbow-overshoot", 0, "stub length before an elbow turns")
	flags.Float64("guideline-clearance", 0, "distance of guidelines from chips")
	flags.Int("parallelism", 0, "pairs routed concurrently")
	flags.Bool("fail-on-overlap", false, "fail the run when overlaps remain")
}

// initConfig sets up logging and reads the settings file and environment.
func initConfig(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg = viper.New()
	for flag, key := range settingFlags {
		if err := cfg.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	cfg.SetEnvPrefix("SCHEMTRACE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	if cmd == configInitCmd {
		return nil
	}
	if cfgFile != "" {
		cfg.SetConfigFile(cfgFile)
	} else {
		cfg.SetConfigName("settings")
		cfg.SetConfigType("json")
		cfg.AddConfigPath(project.DefaultConfigDir())
	}
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		logger.Debug("using config file", "path", cfg.ConfigFileUsed())
	}
	return nil
}

func appConfigPath() string {
	if appFile != "" {
		return appFile
	}
	return project.DefaultConfigPath()
}

// loadSettings layers the config file, environment and flags over the
// application defaults.
func loadSettings() (model.Settings, error) {
	app, err := project.LoadAppConfig(appConfigPath())
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load app config: %w", err)
	}
	base := model.DefaultSettings()
	app.ApplyToSettings(&base)

	// Every key needs a default for AutomaticEnv to reach Unmarshal.
	data, err := json.Marshal(base)
	if err != nil {
		return model.Settings{}, err
	}
	var defaults map[string]interface{}
	if err := json.Unmarshal(data, &defaults); err != nil {
		return model.Settings{}, err
	}
	for k, v := range defaults {
		cfg.SetDefault(k, v)
	}

	s := base
	if err := cfg.Unmarshal(&s); err != nil {
		return model.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return model.Settings{}, err
	}
	return s, nil
}

// rememberProblem records path in the application config's recent list.
func rememberProblem(path string) {
	if err := project.RememberProblem(appConfigPath(), path); err != nil {
		logger.Warn("cannot update recent problems", "error", err)
	}
}
