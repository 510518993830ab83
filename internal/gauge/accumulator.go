package gauge

import (
	sdkmath "cosmossdk.io/math"

	"github.com/spalen0/velov2/internal/config"
	"github.com/spalen0/velov2/internal/types"
)

// The reward-per-token index is the cumulative reward earned per unit of
// stake over the gauge's whole history, scaled by config.Precision. All
// divisions truncate toward zero; the dust lost to truncation stays in the
// index's unresolved remainder and is never retroactively corrected.

// lastTimeRewardApplicable returns min(now, periodFinish): the stream stops
// paying the moment the funding period ends. Callers hold g.mu.
func (g *Gauge) lastTimeRewardApplicable() int64 {
	now := g.now().Unix()
	if now < g.periodFinish {
		return now
	}
	return g.periodFinish
}

// rewardPerToken computes the current index without persisting it. With
// nothing staked the index holds still: idle time is neither distributed
// retroactively nor allowed to dilute future stakers. Callers hold g.mu.
func (g *Gauge) rewardPerToken() sdkmath.Int {
	if g.totalStaked.IsZero() {
		return g.rewardPerTokenStored
	}
	elapsed := g.lastTimeRewardApplicable() - g.lastUpdateTime
	if elapsed <= 0 {
		return g.rewardPerTokenStored
	}
	delta := sdkmath.NewInt(elapsed).
		Mul(g.rewardRate).
		Mul(config.Precision).
		Quo(g.totalStaked)
	return g.rewardPerTokenStored.Add(delta)
}

// earned computes an account's full entitlement: the settled accrual plus the
// unsettled delta against the current index. Callers hold g.mu.
func (g *Gauge) earned(account string) sdkmath.Int {
	pos, ok := g.positions[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	delta := pos.Balance.
		Mul(g.rewardPerToken().Sub(pos.RewardPerTokenPaid)).
		Quo(config.Precision)
	return pos.Accrued.Add(delta)
}

// settle folds elapsed time into the stored index and, when an account is
// named, crystallizes that account's pending reward and stamps its paid
// index. It must run before any change to the account's balance, to the
// total stake, or to the reward rate, and before any payout. Settling twice
// with no elapsed time and no stake change is idempotent. Callers hold g.mu.
func (g *Gauge) settle(account string) {
	g.rewardPerTokenStored = g.rewardPerToken()
	g.lastUpdateTime = g.lastTimeRewardApplicable()
	if account == "" {
		return
	}
	pos := g.position(account)
	pos.Accrued = g.earned(account)
	pos.RewardPerTokenPaid = g.rewardPerTokenStored
}

// position returns the account's position, creating the zero-value record
// lazily on first touch. Callers hold g.mu.
func (g *Gauge) position(account string) *types.Position {
	pos, ok := g.positions[account]
	if !ok {
		zero := types.ZeroPosition()
		pos = &zero
		g.positions[account] = pos
	}
	return pos
}
