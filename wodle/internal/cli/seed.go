package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/common/messaging/nats"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/output"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/seeder"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/integration"
)

var (
	seedCount   int
	seedSeed    int64
	seedKinds   string
	seedDryRun  bool
	seedPublish bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic cloud audit events",
	Long: `Generate synthetic cloud audit log entries and forward them to analysisd.

Flags override seed.* configuration values.

Examples:
  # Print ten entries without sending
  wodle seed --dry-run

  # Forward 500 reproducible entries
  wodle seed --count 500 --seed 42

  # Queue entries on JetStream for "wodle run jetstream"
  wodle seed --publish --kinds admin_activity,policy_denied`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		count := cfg.Seed.Count
		if cmd.Flags().Changed("count") {
			count = seedCount
		}
		seed := cfg.Seed.Seed
		if cmd.Flags().Changed("seed") {
			seed = seedSeed
		}
		kinds := cfg.Seed.Kinds
		if seedKinds != "" {
			kinds = strings.Split(seedKinds, ",")
		}

		gen := seeder.NewGenerator(seed)
		gen.TimeSpread = cfg.Seed.TimeSpread
		payloads, err := gen.Payloads(count, kinds...)
		if err != nil {
			return err
		}

		switch {
		case seedDryRun:
			for _, p := range payloads {
				output.Raw(p)
			}
			return nil
		case seedPublish:
			client, err := nats.NewJetStreamClient(natsConfig())
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := seeder.Publish(ctx, client, cfg.JetStream.Subject, payloads)
			if err != nil {
				return err
			}
			output.Success("Published %d events to %s", n, cfg.JetStream.Subject)
			return nil
		default:
			return runIntegration(ctx, integration.NewStatic("seed", payloads...))
		}
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of events (overrides seed.count)")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed, 0 for random (overrides seed.seed)")
	seedCmd.Flags().StringVar(&seedKinds, "kinds", "", "comma-separated kinds: "+strings.Join(seeder.Kinds, ","))
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "print events instead of sending them")
	seedCmd.Flags().BoolVar(&seedPublish, "publish", false, "publish events to jetstream.subject instead of analysisd")
	seedCmd.MarkFlagsMutuallyExclusive("dry-run", "publish")
	rootCmd.AddCommand(seedCmd)
}
