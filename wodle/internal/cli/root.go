package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/config"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/metrics"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/output"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/analysisd"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/integration"
)

var (
	cfgFile      string
	logLevel     string
	socketPath   string
	outputFormat string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wodle",
	Short: "Forward integration events to analysisd",
	Long: `wodle reads events from an integration source and forwards each one to the
local analysisd queue socket.

Configuration is read from --config, ./config.yaml or
/etc/telhawk/wodle/config.yaml, and can be overridden with WODLE_* environment
variables (e.g. WODLE_ANALYSISD_SOCKET).`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit status.
// analysisd not running exits 2 so schedulers can tell it apart.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, analysisd.ErrDestinationUnavailable):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/telhawk/wodle/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, critical (overrides logging.level)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "analysisd queue socket (overrides analysisd.socket)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", output.FormatText, "output format: text, json, yaml")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	output.SetWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if socketPath != "" {
		loaded.Analysisd.Socket = socketPath
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	logger = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("wodle"))
	logging.SetDefault(logger)
	return nil
}

func newForwarder() *analysisd.Forwarder {
	return analysisd.New(logger, analysisd.GCloud, analysisd.WithSocketPath(cfg.Analysisd.Socket))
}

// runIntegration forwards everything in produces, reports the result and
// exports metrics.
func runIntegration(ctx context.Context, in integration.Integration) error {
	res, runErr := integration.Run(ctx, newForwarder(), in, logger)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics", logging.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	return output.Render(outputFormat, res, func() {
		output.Success("Forwarded %d events from %s to %s", res.Forwarded, res.Integration, cfg.Analysisd.Socket)
		table := output.NewTable([]string{"Run ID", "Integration", "Events", "Bytes", "Duration"})
		table.AddRow([]string{
			res.RunID,
			res.Integration,
			fmt.Sprint(res.Forwarded),
			fmt.Sprint(res.Bytes),
			res.Duration.String(),
		})
		table.Render()
	})
}

// PrintError reports err on stderr with the failure class and destination.
func PrintError(err error) {
	var fwdErr *analysisd.Error
	if errors.As(err, &fwdErr) {
		output.Error("%s: %s (%v)", fwdErr.Reason, fwdErr.Destination, fwdErr.Err)
		return
	}
	output.Error("%v", err)
}
