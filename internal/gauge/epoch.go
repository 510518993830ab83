package gauge

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/spalen0/velov2/internal/config"
	"github.com/spalen0/velov2/internal/types"
)

// EpochStart returns the calendar-aligned start of the epoch containing ts.
// Boundaries are multiples of the epoch duration since the Unix epoch.
func EpochStart(ts int64) int64 {
	return ts - ts%config.EpochSeconds
}

// NextEpochBoundary returns the first epoch boundary strictly after ts.
func NextEpochBoundary(ts int64) int64 {
	return EpochStart(ts) + config.EpochSeconds
}

// NotifyRewardAmount funds the reward stream through the end of the current
// epoch. Restricted to the distribution authority. A still-active stream's
// undistributed remainder rolls into the new rate; the remainder of the
// floor division is deliberately dropped.
//
// Captured trading fees are claimed and forwarded before the rate is
// recomputed, so they land in the accounting period being closed out.
func (g *Gauge) NotifyRewardAmount(ctx context.Context, sender string, amount sdkmath.Int) error {
	if sender != g.cfg.Authority {
		return fmt.Errorf("%w: %s is not the distribution authority", types.ErrUnauthorized, sender)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.settle("")

	claimed0, claimed1, err := g.claimFees(ctx)
	if err != nil {
		return fmt.Errorf("fee capture failed: %w", err)
	}

	now := g.now().Unix()
	timeUntilNext := NextEpochBoundary(now) - now

	funding := amount
	if now < g.periodFinish {
		leftover := sdkmath.NewInt(g.periodFinish - now).Mul(g.rewardRate)
		funding = funding.Add(leftover)
	}
	newRate := funding.Quo(sdkmath.NewInt(timeUntilNext))
	if newRate.IsZero() {
		return fmt.Errorf("%w: funding %s over %ds", types.ErrDegenerateRewardRate, amount, timeUntilNext)
	}

	// Bound the rate by what the gauge will actually hold once the funding
	// lands, so the stream can never promise more than it can pay.
	held, err := g.bank.Balance(ctx, g.cfg.Address, g.cfg.RewardDenom)
	if err != nil {
		return fmt.Errorf("reward balance query failed: %w", err)
	}
	if newRate.GT(held.Add(amount).Quo(sdkmath.NewInt(timeUntilNext))) {
		return fmt.Errorf("%w: rate %s/s against balance %s over %ds", types.ErrRewardRateTooHigh, newRate, held.Add(amount), timeUntilNext)
	}

	// Pull the funding last, after every precondition has passed.
	if err := g.bank.Transfer(ctx, sender, g.cfg.Address, g.cfg.RewardDenom, amount); err != nil {
		return fmt.Errorf("reward transfer failed: %w", err)
	}

	g.rewardRate = newRate
	g.lastUpdateTime = now
	g.periodFinish = now + timeUntilNext
	g.epochRates[EpochStart(now)] = newRate

	g.logger.Info().
		Str("funder", sender).
		Str("amount", amount.String()).
		Str("rewardRate", newRate.String()).
		Int64("periodFinish", g.periodFinish).
		Msg("Reward stream funded")

	if claimed0.IsPositive() || claimed1.IsPositive() {
		g.sink.Record(types.GaugeEvent{
			Kind:      types.EventClaimFees,
			Actor:     sender,
			Amount:    claimed0,
			Amount1:   claimed1,
			Timestamp: g.now(),
		})
	}
	g.sink.Record(types.GaugeEvent{
		Kind:       types.EventNotifyReward,
		Actor:      sender,
		Amount:     amount,
		Timestamp:  g.now(),
		EpochStart: EpochStart(now),
		RewardRate: newRate,
	})
	return nil
}

// Left returns the undistributed remainder of the active stream, zero once
// the period has finished. Read-only.
func (g *Gauge) Left() sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.left()
}

// left computes the remaining stream. Callers hold g.mu.
func (g *Gauge) left() sdkmath.Int {
	now := g.now().Unix()
	if now >= g.periodFinish {
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewInt(g.periodFinish - now).Mul(g.rewardRate)
}
