package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/cardflip/internal/config"
)

var flagConfigDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the house would run with, after the file search
order and CARDFLIP_* environment overrides are applied.

Search order: --config -> ~/.cardflip/config.yaml -> ./configs/cardflip.yaml -> embedded default.

Examples:
  cardflip config
  cardflip config --defaults > ~/.cardflip/config.yaml
  CARDFLIP_GAME_MIN_BET=5000000 cardflip config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagConfigDefaults, "defaults", false, "Print the embedded default YAML")
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagConfigDefaults {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}

	pterm.Info.Printfln("source: %s", config.Source(flagConfig))
	fmt.Print(string(out))
	return nil
}
