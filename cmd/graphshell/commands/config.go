package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/graphshell/am"
)

// ConfigCmd is the parent command for configuration inspection.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the active configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every active setting and which file it came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		intro, err := am.GetConfigIntrospection()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if intro.ConfigFile != "" {
			pterm.Info.Printf("Config file: %s\n", intro.ConfigFile)
		} else {
			pterm.Info.Println("No config file in use — running on built-in defaults")
		}

		for _, setting := range intro.Settings {
			source := pterm.LightCyan(string(setting.Source))
			if setting.SourcePath != "" {
				source = pterm.LightCyan(fmt.Sprintf("%s (%s)", setting.Source, setting.SourcePath))
			}
			fmt.Printf("  %-40s %-20v %s\n", setting.Key, setting.Value, source)
		}

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			pterm.Warning.Println(err.Error())
			return err
		}
		pterm.Success.Println("Configuration is valid")
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}
