package cli

import (
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/common/messaging"
	"github.com/telhawk-systems/telhawk-wodles/common/messaging/nats"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/output"
)

var checkNATS bool

// CheckResult is what check reports.
type CheckResult struct {
	Socket    string                  `json:"socket" yaml:"socket"`
	Reachable bool                    `json:"reachable" yaml:"reachable"`
	Error     string                  `json:"error,omitempty" yaml:"error,omitempty"`
	NATS      *messaging.HealthStatus `json:"nats,omitempty" yaml:"nats,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that analysisd is accepting events",
	Long: `Open and close the analysisd queue socket without sending anything.
Exits 2 when analysisd is not running, 1 on any other failure.

With --nats the JetStream server is checked as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		res := CheckResult{Socket: cfg.Analysisd.Socket}

		conn, err := newForwarder().EstablishConnection(ctx)
		if err == nil {
			res.Reachable = true
			err = conn.Close()
		}
		if err != nil {
			res.Error = err.Error()
		}

		if checkNATS {
			status := natsHealth()
			res.NATS = &status
		}

		renderErr := output.Render(outputFormat, res, func() {
			if res.Reachable {
				output.Success("analysisd is accepting events on %s", res.Socket)
			} else {
				output.Warn("analysisd is not reachable on %s", res.Socket)
			}
			if res.NATS != nil {
				if res.NATS.Healthy() {
					output.Success("NATS %s is healthy (%.2fms)", cfg.JetStream.URL, res.NATS.Latency)
				} else {
					output.Warn("NATS %s: %s", cfg.JetStream.URL, res.NATS.Error)
				}
			}
		})
		if err != nil {
			return err
		}
		return renderErr
	},
}

func natsHealth() messaging.HealthStatus {
	client, err := nats.NewClient(natsConfig())
	if err != nil {
		return messaging.HealthStatus{Error: err.Error()}
	}
	defer client.Close()
	return messaging.CheckConnHealth(client)
}

func init() {
	checkCmd.Flags().BoolVar(&checkNATS, "nats", false, "also check the JetStream server")
	rootCmd.AddCommand(checkCmd)
}
