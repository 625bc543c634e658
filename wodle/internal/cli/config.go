package cli

import (
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long:  "Print the configuration after defaults, the config file, environment variables and flags are applied. Secrets are omitted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return output.YAML(cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
