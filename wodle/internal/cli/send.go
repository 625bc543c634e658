package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/integration"
)

var sendCmd = &cobra.Command{
	Use:   "send [payload]",
	Short: "Forward a single JSON payload",
	Long: `Forward one payload to analysisd. Without an argument, or with "-", the
payload is read from stdin.

Examples:
  wodle send '{"severity":"INFO"}'
  echo '{"severity":"INFO"}' | wodle send`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload string
		if len(args) == 1 && args[0] != "-" {
			payload = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			payload = strings.TrimSpace(string(data))
		}
		if payload == "" {
			return errors.New("empty payload")
		}
		return runIntegration(cmd.Context(), integration.NewStatic("send", payload))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
