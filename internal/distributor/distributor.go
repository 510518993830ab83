package distributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/spalen0/velov2/internal/gauge"
	"github.com/spalen0/velov2/internal/logger"
)

// Distributor is the distribution authority running as a process: each time
// the active funding period has run out, it feeds the configured per-epoch
// budget into the gauge's reward stream.
type Distributor struct {
	logger      zerolog.Logger
	gauge       *gauge.Gauge
	authority   string
	epochBudget sdkmath.Int
	now         func() time.Time
	cycleCount  int
}

// Config holds the configuration for creating a new Distributor instance.
type Config struct {
	Gauge       *gauge.Gauge
	Authority   string
	EpochBudget sdkmath.Int
	Now         func() time.Time
}

// New creates a Distributor with dependency injection.
func New(cfg Config) (*Distributor, error) {
	if cfg.Gauge == nil {
		return nil, errors.New("gauge cannot be nil")
	}
	if cfg.Authority == "" {
		return nil, errors.New("authority cannot be empty")
	}
	if cfg.EpochBudget.IsNil() || !cfg.EpochBudget.IsPositive() {
		return nil, fmt.Errorf("epoch budget must be positive, got %s", cfg.EpochBudget)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Distributor{
		logger:      logger.GetForComponent("distributor"),
		gauge:       cfg.Gauge,
		authority:   cfg.Authority,
		epochBudget: cfg.EpochBudget,
		now:         cfg.Now,
	}, nil
}

// RunLoop starts the distribution loop with the specified check interval.
func (d *Distributor) RunLoop(ctx context.Context, interval time.Duration) {
	d.logger.Info().
		Dur("interval", interval).
		Str("epochBudget", d.epochBudget.String()).
		Msg("Starting distribution loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	d.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Distribution loop stopped due to context cancellation")
			return
		case <-ticker.C:
			d.runCycle(ctx)
		}
	}
}

// runCycle funds the reward stream if the previous period has finished.
func (d *Distributor) runCycle(ctx context.Context) {
	d.cycleCount++
	cycleLogger := d.logger.With().Int("cycle", d.cycleCount).Logger()

	now := d.now().Unix()
	periodFinish := d.gauge.PeriodFinish()
	if now < periodFinish {
		cycleLogger.Debug().
			Int64("periodFinish", periodFinish).
			Msg("Stream still active, nothing to fund")
		return
	}

	cycleLogger.Info().
		Str("amount", d.epochBudget.String()).
		Msg("Funding reward stream for the new epoch")

	if err := d.gauge.NotifyRewardAmount(ctx, d.authority, d.epochBudget); err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: failed to fund reward stream")
		return
	}

	cycleLogger.Info().
		Str("rewardRate", d.gauge.RewardRate().String()).
		Int64("periodFinish", d.gauge.PeriodFinish()).
		Msg("Reward stream funded")
}
