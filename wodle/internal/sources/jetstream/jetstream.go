// Package jetstream pulls event payloads from a durable JetStream consumer.
// A message is acknowledged only after it has been delivered to analysisd.
package jetstream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
)

// Name is the integration name reported in logs and metrics.
const Name = "jetstream"

// Defaults for Config.
const (
	DefaultMaxMessages = 100
	DefaultBatchSize   = 50
	DefaultFetchWait   = 2 * time.Second
)

// Consumer is the part of jetstream.Consumer the source pulls with.
type Consumer interface {
	Info(ctx context.Context) (*jetstream.ConsumerInfo, error)
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Config bounds a single run.
type Config struct {
	// MaxMessages caps the payloads pulled per run.
	MaxMessages int
	// BatchSize is the number of messages requested per fetch.
	BatchSize int
	// FetchWait is how long a fetch waits for messages.
	FetchWait time.Duration
}

// Source yields payloads from a JetStream pull consumer.
type Source struct {
	consumer Consumer
	cfg      Config
	logger   *logging.Logger
}

// New returns a Source pulling from consumer. Zero Config fields take defaults.
func New(consumer Consumer, cfg Config, logger *logging.Logger) *Source {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FetchWait <= 0 {
		cfg.FetchWait = DefaultFetchWait
	}
	return &Source{consumer: consumer, cfg: cfg, logger: logger}
}

func (s *Source) Name() string { return Name }

// CheckPermissions confirms the consumer exists and uses explicit acks.
func (s *Source) CheckPermissions(ctx context.Context) error {
	info, err := s.consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("consumer info: %w", err)
	}
	if info.Config.AckPolicy != jetstream.AckExplicitPolicy {
		return fmt.Errorf("consumer %s must use explicit acks, has %s", info.Name, info.Config.AckPolicy)
	}
	return nil
}

// ProcessData pulls batches until the consumer runs dry or MaxMessages have
// been yielded. Each message is acked after yield returns true. When yield
// returns false the current message and the rest of its batch are nacked.
func (s *Source) ProcessData(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		remaining := s.cfg.MaxMessages
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			want := min(s.cfg.BatchSize, remaining)
			batch, err := s.consumer.Fetch(want, jetstream.FetchMaxWait(s.cfg.FetchWait))
			if err != nil {
				yield("", fmt.Errorf("fetch: %w", err))
				return
			}

			got := 0
			for msg := range batch.Messages() {
				got++
				if !yield(string(msg.Data()), nil) {
					s.release(ctx, msg, batch.Messages())
					return
				}
				if err := msg.Ack(); err != nil {
					s.logger.WarnContext(ctx, "Failed to ack delivered message", logging.Error(err))
				}
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				yield("", fmt.Errorf("fetch: %w", err))
				return
			}

			remaining -= got
			s.logger.DebugContext(ctx, "Fetched batch", logging.Count(got))
			if got < want {
				return
			}
		}
	}
}

// release nacks msg and everything left in rest so they are redelivered.
func (s *Source) release(ctx context.Context, msg jetstream.Msg, rest <-chan jetstream.Msg) {
	s.nak(ctx, msg)
	released := 1
	for m := range rest {
		s.nak(ctx, m)
		released++
	}
	s.logger.DebugContext(ctx, "Released undelivered messages", logging.Count(released))
}

func (s *Source) nak(ctx context.Context, msg jetstream.Msg) {
	if err := msg.Nak(); err != nil {
		s.logger.WarnContext(ctx, "Failed to nak undelivered message", logging.Error(err))
	}
}
