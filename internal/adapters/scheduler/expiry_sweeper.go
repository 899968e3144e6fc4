package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (application.SweepResult, error)
}

// ExpirySweeper periodically persists the expired status of leases whose
// term has ended but which nobody has read since.
type ExpirySweeper struct {
	sweeper Sweeper
	spec    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewExpirySweeper(sweeper Sweeper, spec string, timeout time.Duration, logger *slog.Logger) (*ExpirySweeper, error) {
	if spec == "" {
		spec = "@every 15m"
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse expiry sweep schedule %q: %w", spec, err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpirySweeper{
		sweeper: sweeper,
		spec:    spec,
		timeout: timeout,
		logger:  logger.With("module", "scheduler.expiry_sweeper", "layer", "adapter"),
	}, nil
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.spec, func() { _, _ = s.SweepOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.logger.InfoContext(ctx, "expiry sweeper started", "operation", "start", "outcome", "success", "schedule", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *ExpirySweeper) SweepOnce(ctx context.Context) (application.SweepResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	res, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed",
			"operation", "sweep_expired",
			"outcome", "failure",
			"error", err.Error(),
		)
		return res, err
	}
	s.logger.InfoContext(ctx, "expiry sweep completed",
		"operation", "sweep_expired",
		"outcome", "success",
		"scanned", res.Scanned,
		"expired", res.Expired,
		"skipped", res.Skipped,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res, nil
}
