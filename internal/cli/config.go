package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/logwhy/logwhy/internal/config"
)

var configInitPath string

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file, and
environment overrides. API keys are redacted.`,
		RunE: runConfigShow,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter configuration with default values. Refuses to
overwrite an existing file.

Examples:
  logwhy config init
  logwhy config init --path ~/.config/logwhy/config.yaml`,
		RunE: runConfigInit,
	}
	initCmd.Flags().StringVar(&configInitPath, "path", ".logwhy.yaml", "where to write the config file")

	cmd.AddCommand(showCmd)
	cmd.AddCommand(initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = "<redacted>"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteStarter(configInitPath); err != nil {
		return err
	}
	fmt.Printf("Wrote starter config to %s\n", configInitPath)
	return nil
}
