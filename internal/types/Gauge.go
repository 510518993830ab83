/*

Core types for the staking gauge: the immutable pool configuration set at
construction, per-account positions, and the snapshot used by the web layer.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// GaugeConfig is the immutable configuration of one gauge instance.
type GaugeConfig struct {
	// Address is the gauge's own account identifier; staked principal,
	// undistributed rewards and captured fees are all held under it.
	Address string `json:"address"`

	// StakeDenom is the staking asset pulled in on deposit and returned
	// on withdrawal.
	StakeDenom string `json:"stake_denom"`

	// RewardDenom is the asset streamed out to stakers.
	RewardDenom string `json:"reward_denom"`

	// Authority is the distribution authority: the only caller allowed to
	// fund the reward stream, and allowed to claim on behalf of any account.
	Authority string `json:"authority"`

	// FeeRecipient receives batched trading fees captured from the pair.
	FeeRecipient string `json:"fee_recipient"`

	// IsPair marks the gauge as fee-generating. When false the fee capture
	// path is a no-op.
	IsPair bool `json:"is_pair"`

	// PairToken0 and PairToken1 are the two fee legs of the underlying pair.
	// Only meaningful when IsPair is set.
	PairToken0 string `json:"pair_token0,omitempty"`
	PairToken1 string `json:"pair_token1,omitempty"`
}

// Position is one account's stake in the gauge. Positions are created lazily
// on first deposit and persist at zero after a full withdrawal.
type Position struct {
	// Balance is the staked principal.
	Balance sdkmath.Int `json:"balance"`

	// RewardPerTokenPaid is the value of the global reward-per-token index
	// at this account's last settlement.
	RewardPerTokenPaid sdkmath.Int `json:"reward_per_token_paid"`

	// Accrued is settled, claimable reward that has not been paid out yet.
	Accrued sdkmath.Int `json:"accrued"`
}

// ZeroPosition returns the lazily-created default for an unseen account.
func ZeroPosition() Position {
	return Position{
		Balance:            sdkmath.ZeroInt(),
		RewardPerTokenPaid: sdkmath.ZeroInt(),
		Accrued:            sdkmath.ZeroInt(),
	}
}

// GaugeSnapshot is a read-only view of the global accrual state, served by
// the web API and persisted for auditing.
type GaugeSnapshot struct {
	TotalStaked          sdkmath.Int `json:"total_staked"`
	RewardRate           sdkmath.Int `json:"reward_rate"`
	RewardPerTokenStored sdkmath.Int `json:"reward_per_token_stored"`
	LastUpdateTime       int64       `json:"last_update_time"`
	PeriodFinish         int64       `json:"period_finish"`
	Left                 sdkmath.Int `json:"left"`
	Fees0                sdkmath.Int `json:"fees0"`
	Fees1                sdkmath.Int `json:"fees1"`
}
