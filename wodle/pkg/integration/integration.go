// Package integration defines the contract a data source fulfils to feed
// analysisd, and the driver that runs one.
package integration

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/metrics"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/analysisd"
)

// Integration is a source of raw event payloads.
type Integration interface {
	// Name identifies the integration in logs and metrics.
	Name() string

	// CheckPermissions verifies the integration can read from its upstream
	// source before anything is consumed.
	CheckPermissions(ctx context.Context) error

	// ProcessData yields payloads in upstream order. Sources that acknowledge
	// upstream must ack a payload only once yield returns true, and release it
	// for redelivery when yield returns false. A non-nil error ends the
	// sequence.
	ProcessData(ctx context.Context) iter.Seq2[string, error]
}

// ErrPermission wraps failures returned by CheckPermissions.
var ErrPermission = errors.New("permission check failed")

// Result summarizes one Run.
type Result struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Integration string        `json:"integration" yaml:"integration"`
	Forwarded   int           `json:"forwarded" yaml:"forwarded"`
	Bytes       int           `json:"bytes" yaml:"bytes"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Run checks permissions, opens the analysisd connection, forwards every
// payload in source order and closes the connection. It stops at the first
// error; Result reports what was delivered up to that point.
func Run(ctx context.Context, fwd *analysisd.Forwarder, in Integration, logger *logging.Logger) (Result, error) {
	name := in.Name()
	res := Result{RunID: uuid.NewString(), Integration: name}
	ctx = logging.ContextWithRunID(ctx, res.RunID)
	logger = logger.With(logging.Integration(name))

	start := time.Now()
	err := run(ctx, fwd, in, logger, &res)
	res.Duration = time.Since(start)

	metrics.RunDuration.WithLabelValues(name).Observe(res.Duration.Seconds())
	metrics.LastRunTimestamp.WithLabelValues(name).SetToCurrentTime()
	if err != nil {
		metrics.LastRunSuccess.WithLabelValues(name).Set(0)
		return res, err
	}
	metrics.LastRunSuccess.WithLabelValues(name).Set(1)

	logger.InfoContext(ctx, "Integration run finished",
		logging.Count(res.Forwarded),
		logging.Bytes(res.Bytes),
		"duration", res.Duration,
	)
	return res, nil
}

func run(ctx context.Context, fwd *analysisd.Forwarder, in Integration, logger *logging.Logger, res *Result) error {
	name := in.Name()
	logger.DebugContext(ctx, "Checking integration permissions")
	if err := in.CheckPermissions(ctx); err != nil {
		metrics.SourceErrors.WithLabelValues(name).Inc()
		logger.ErrorContext(ctx, "Integration cannot access its source", logging.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrPermission, name, err)
	}

	conn, err := fwd.EstablishConnection(ctx)
	if err != nil {
		recordFailure(ctx, logger, name, res, err)
		return err
	}
	defer conn.Close()

	for payload, err := range in.ProcessData(ctx) {
		if err != nil {
			metrics.SourceErrors.WithLabelValues(name).Inc()
			logger.ErrorContext(ctx, "Error reading from integration source", logging.Error(err))
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := fwd.FormatMessage(payload)
		if err := fwd.SendMessage(ctx, msg); err != nil {
			recordFailure(ctx, logger, name, res, err)
			return err
		}
		res.Forwarded++
		res.Bytes += len(msg)
		metrics.EventsForwarded.WithLabelValues(name).Inc()
		metrics.EventBytesTotal.WithLabelValues(name).Add(float64(len(msg)))
	}
	return nil
}

func recordFailure(ctx context.Context, logger *logging.Logger, name string, res *Result, err error) {
	reason, ok := analysisd.ReasonOf(err)
	if !ok {
		reason = "unknown"
	}
	metrics.DeliveryFailures.WithLabelValues(name, string(reason)).Inc()
	logger.WarnContext(ctx, "Integration run aborted",
		logging.Reason(string(reason)),
		logging.Count(res.Forwarded),
	)
}
