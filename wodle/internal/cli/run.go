package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
	"github.com/telhawk-systems/telhawk-wodles/common/messaging"
	"github.com/telhawk-systems/telhawk-wodles/common/messaging/nats"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/sources/file"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/sources/jetstream"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an integration",
	Long:  "Read every available event from an integration source and forward it to analysisd",
}

var runFileCmd = &cobra.Command{
	Use:   "file [path]",
	Short: "Forward newline-delimited JSON events from a file",
	Long: `Forward one event per non-blank line of path. Use "-" to read stdin.
Without an argument file.path from the configuration is used.

Examples:
  wodle run file /var/log/gcp/events.ndjson
  gcloud logging read --format=json | jq -c '.[]' | wodle run file -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.File.Path
		if len(args) > 0 {
			path = args[0]
		}
		src := file.New(path,
			file.WithMaxLineBytes(cfg.File.MaxLineBytes),
			file.WithStdin(cmd.InOrStdin()),
		)
		return runIntegration(cmd.Context(), src)
	},
}

var runJetStreamCmd = &cobra.Command{
	Use:   "jetstream",
	Short: "Forward events pulled from a JetStream consumer",
	Long: `Pull up to jetstream.max_messages events from the durable consumer
jetstream.consumer on jetstream.stream. Each message is acknowledged only after
it has been delivered to analysisd; undelivered messages are redelivered on the
next run.

With jetstream.provision the stream and consumer are created if missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		js := cfg.JetStream

		client, err := nats.NewJetStreamClient(natsConfig())
		if err != nil {
			return err
		}
		defer client.Close()

		var consumer jetstream.Consumer
		if js.Provision {
			if _, err := client.CreateOrUpdateStream(ctx, provisionedStream(js.Stream, js.Subject)); err != nil {
				return err
			}
			consumer, err = client.CreateOrUpdateConsumer(ctx, js.Stream, nats.DefaultConsumerConfig(js.Consumer, js.Subject))
		} else {
			consumer, err = client.Consumer(ctx, js.Stream, js.Consumer)
		}
		if err != nil {
			return err
		}
		logger.DebugContext(ctx, "Pulling from JetStream",
			"stream", js.Stream,
			"consumer", js.Consumer,
			logging.Count(js.MaxMessages),
		)

		src := jetstream.New(consumer, jetstream.Config{
			MaxMessages: js.MaxMessages,
			BatchSize:   js.BatchSize,
			FetchWait:   js.FetchWait,
		}, logger)
		return runIntegration(ctx, src)
	},
}

func natsConfig() nats.Config {
	nc := nats.DefaultConfig()
	nc.URL = cfg.JetStream.URL
	nc.Name = cfg.JetStream.Name
	nc.Token = cfg.JetStream.Token
	nc.Logger = logger
	return nc
}

func init() {
	runCmd.AddCommand(runFileCmd)
	runCmd.AddCommand(runJetStreamCmd)
	rootCmd.AddCommand(runCmd)
}

// provisionedStream is nats.WodleEventsStream under the configured name. A
// subject outside the wodle.events hierarchy is captured as well so the
// consumer filter always lies inside the stream.
func provisionedStream(name, subject string) nats.StreamConfig {
	stream := nats.WodleEventsStream
	stream.Name = name
	stream.Subjects = slices.Clone(stream.Subjects)
	if !strings.HasPrefix(subject, messaging.SubjectWodleEvents+".") {
		stream.Subjects = append(stream.Subjects, subject)
	}
	return stream
}
