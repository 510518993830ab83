package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventKind identifies which ledger operation produced an event.
type EventKind string

const (
	EventDeposit      EventKind = "deposit"
	EventWithdraw     EventKind = "withdraw"
	EventClaimRewards EventKind = "claim_rewards"
	EventNotifyReward EventKind = "notify_reward"
	EventClaimFees    EventKind = "claim_fees"
)

// GaugeEvent is the notification emitted by every mutating gauge operation.
// Amount1 is only used by the fee-claim event, which carries both fee legs.
type GaugeEvent struct {
	Kind      EventKind   `json:"kind"`
	Actor     string      `json:"actor"`             // resolved sender of the call
	Account   string      `json:"account,omitempty"` // affected account, when distinct from the actor
	Amount    sdkmath.Int `json:"amount"`
	Amount1   sdkmath.Int `json:"amount1,omitempty"`
	Timestamp time.Time   `json:"timestamp"`

	// Funding events additionally carry the epoch they landed in and the
	// reward rate that became active.
	EpochStart int64       `json:"epoch_start,omitempty"`
	RewardRate sdkmath.Int `json:"reward_rate,omitempty"`
}
