package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage routing settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Long: `Write the default routing settings to the settings file (--config, or
~/.schemtrace/settings.json). An existing file is kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Print the settings a run would use after applying the settings file,
SCHEMTRACE_* environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing settings file")
}

func settingsPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(project.DefaultConfigDir(), "settings.json")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := settingsPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := project.SaveSettings(path, model.DefaultSettings()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(settings)
}
