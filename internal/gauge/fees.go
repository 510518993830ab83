package gauge

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/spalen0/velov2/internal/config"
)

// claimFees pulls newly realized trading fees from the pair and folds them
// into the accumulators. A leg's full accumulated amount is forwarded to the
// fee recipient once it exceeds the batching threshold; below that it keeps
// accumulating for a future funding cycle. No-op for non-pair gauges.
// Callers hold g.mu.
func (g *Gauge) claimFees(ctx context.Context) (sdkmath.Int, sdkmath.Int, error) {
	if !g.cfg.IsPair {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), nil
	}

	claimed0, claimed1, err := g.pair.ClaimFees(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("pair fee claim failed: %w", err)
	}
	if !claimed0.IsPositive() && !claimed1.IsPositive() {
		// Nothing realized this cycle; deliberately quiet.
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), nil
	}

	g.fees0 = g.fees0.Add(claimed0)
	g.fees1 = g.fees1.Add(claimed1)

	if g.fees0.GT(config.FeeForwardThreshold) {
		forward := g.fees0
		g.fees0 = sdkmath.ZeroInt()
		if err := g.bank.Transfer(ctx, g.cfg.Address, g.cfg.FeeRecipient, g.cfg.PairToken0, forward); err != nil {
			g.fees0 = forward
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("fee forward (leg0) failed: %w", err)
		}
		g.logger.Info().
			Str("denom", g.cfg.PairToken0).
			Str("amount", forward.String()).
			Str("recipient", g.cfg.FeeRecipient).
			Msg("Accumulated fees forwarded")
	}

	if g.fees1.GT(config.FeeForwardThreshold) {
		forward := g.fees1
		g.fees1 = sdkmath.ZeroInt()
		if err := g.bank.Transfer(ctx, g.cfg.Address, g.cfg.FeeRecipient, g.cfg.PairToken1, forward); err != nil {
			g.fees1 = forward
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("fee forward (leg1) failed: %w", err)
		}
		g.logger.Info().
			Str("denom", g.cfg.PairToken1).
			Str("amount", forward.String()).
			Str("recipient", g.cfg.FeeRecipient).
			Msg("Accumulated fees forwarded")
	}

	return claimed0, claimed1, nil
}
