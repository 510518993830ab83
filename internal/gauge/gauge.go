/*

Gauge is a per-pool staking and reward-distribution ledger. Accounts lock the
staking asset, accrue a time-weighted share of a periodically funded reward
stream in proportion to their stake, and withdraw principal plus accrued
reward on demand.

Every mutating entry point runs under a single per-gauge mutex and follows
the same ordering: validate, settle the affected account against the current
index, mutate the ledger, then move assets. If any precondition fails the
call returns before touching state.

*/

package gauge

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/spalen0/velov2/internal/logger"
	"github.com/spalen0/velov2/internal/oracle"
	"github.com/spalen0/velov2/internal/token"
	"github.com/spalen0/velov2/internal/types"
)

// FeeSource is the originating pool's fee-claim mechanism. A claim transfers
// any newly realized trading fees (both legs) to the gauge's account and
// returns the claimed amounts.
type FeeSource interface {
	ClaimFees(ctx context.Context) (sdkmath.Int, sdkmath.Int, error)
}

// EventSink receives the notification emitted by each mutating operation.
// Sinks must not block and must not call back into the gauge (they run with
// the gauge mutex held); journaling is best-effort and never aborts the ledger.
type EventSink interface {
	Record(ev types.GaugeEvent)
}

// Gauge is one pool's staking ledger. All amounts are integers in the
// asset's base units.
type Gauge struct {
	mu sync.Mutex

	cfg    types.GaugeConfig
	bank   token.Bank
	oracle oracle.AuthorizationOracle
	pair   FeeSource
	sink   EventSink
	now    func() time.Time
	logger zerolog.Logger

	// Global accrual state.
	totalStaked          sdkmath.Int
	rewardRate           sdkmath.Int // reward base units per second
	rewardPerTokenStored sdkmath.Int // scaled by config.Precision
	lastUpdateTime       int64
	periodFinish         int64

	// Per-account positions, created lazily on first deposit.
	positions map[string]*types.Position

	// Audit trail: reward rate active at each epoch start.
	epochRates map[int64]sdkmath.Int

	// Captured trading fees awaiting forwarding.
	fees0 sdkmath.Int
	fees1 sdkmath.Int
}

// Config holds the dependencies for creating a new Gauge instance.
type Config struct {
	Gauge  types.GaugeConfig
	Bank   token.Bank
	Oracle oracle.AuthorizationOracle
	Pair   FeeSource // required when Gauge.IsPair is set
	Sink   EventSink // optional; defaults to a no-op sink
	Now    func() time.Time
}

// New creates a Gauge with dependency injection.
func New(cfg Config) (*Gauge, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("gauge configuration validation failed: %w", err)
	}

	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	g := &Gauge{
		cfg:                  cfg.Gauge,
		bank:                 cfg.Bank,
		oracle:               cfg.Oracle,
		pair:                 cfg.Pair,
		sink:                 cfg.Sink,
		now:                  cfg.Now,
		logger:               logger.GetForComponent("gauge"),
		totalStaked:          sdkmath.ZeroInt(),
		rewardRate:           sdkmath.ZeroInt(),
		rewardPerTokenStored: sdkmath.ZeroInt(),
		positions:            make(map[string]*types.Position),
		epochRates:           make(map[int64]sdkmath.Int),
		fees0:                sdkmath.ZeroInt(),
		fees1:                sdkmath.ZeroInt(),
	}

	g.logger.Info().
		Str("gauge", g.cfg.Address).
		Str("stakeDenom", g.cfg.StakeDenom).
		Str("rewardDenom", g.cfg.RewardDenom).
		Bool("isPair", g.cfg.IsPair).
		Msg("Gauge instance created")

	return g, nil
}

func validateConfig(cfg Config) error {
	if cfg.Gauge.Address == "" {
		return fmt.Errorf("gauge address cannot be empty")
	}
	if cfg.Gauge.StakeDenom == "" || cfg.Gauge.RewardDenom == "" {
		return fmt.Errorf("stake and reward denoms cannot be empty")
	}
	if cfg.Gauge.Authority == "" {
		return fmt.Errorf("distribution authority cannot be empty")
	}
	if cfg.Bank == nil {
		return fmt.Errorf("bank cannot be nil")
	}
	if cfg.Oracle == nil {
		return fmt.Errorf("authorization oracle cannot be nil")
	}
	if cfg.Gauge.IsPair {
		if cfg.Pair == nil {
			return fmt.Errorf("fee-generating gauge requires a pair")
		}
		if cfg.Gauge.FeeRecipient == "" {
			return fmt.Errorf("fee-generating gauge requires a fee recipient")
		}
		if cfg.Gauge.PairToken0 == "" || cfg.Gauge.PairToken1 == "" {
			return fmt.Errorf("fee-generating gauge requires both pair tokens")
		}
	}
	return nil
}

// Deposit locks amount of the staking asset for recipient. The sender funds
// the transfer; the position belongs to the recipient. Settlement for the
// recipient runs against the pre-deposit stake weighting.
func (g *Gauge) Deposit(ctx context.Context, sender, recipient string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	alive, err := g.oracle.IsAlive(ctx, g.cfg.Address)
	if err != nil {
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if !alive {
		return types.ErrPoolNotAuthorized
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.settle(recipient)

	pos := g.position(recipient)
	g.totalStaked = g.totalStaked.Add(amount)
	pos.Balance = pos.Balance.Add(amount)

	if err := g.bank.Transfer(ctx, sender, g.cfg.Address, g.cfg.StakeDenom, amount); err != nil {
		// Unwind the bookkeeping so a failed pull leaves no trace.
		g.totalStaked = g.totalStaked.Sub(amount)
		pos.Balance = pos.Balance.Sub(amount)
		return fmt.Errorf("stake transfer failed: %w", err)
	}

	g.logger.Debug().
		Str("sender", sender).
		Str("recipient", recipient).
		Str("amount", amount.String()).
		Msg("Deposit applied")

	g.sink.Record(types.GaugeEvent{
		Kind:      types.EventDeposit,
		Actor:     sender,
		Account:   recipient,
		Amount:    amount,
		Timestamp: g.now(),
	})
	return nil
}

// Withdraw unlocks amount of the caller's staked principal.
func (g *Gauge) Withdraw(ctx context.Context, sender string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Reject before settling so a failed withdrawal writes nothing at all.
	if existing, ok := g.positions[sender]; !ok || existing.Balance.LT(amount) {
		staked := sdkmath.ZeroInt()
		if ok {
			staked = existing.Balance
		}
		return fmt.Errorf("%w: staked %s, requested %s", types.ErrInsufficientBalance, staked, amount)
	}

	g.settle(sender)

	pos := g.position(sender)
	g.totalStaked = g.totalStaked.Sub(amount)
	pos.Balance = pos.Balance.Sub(amount)

	if err := g.bank.Transfer(ctx, g.cfg.Address, sender, g.cfg.StakeDenom, amount); err != nil {
		g.totalStaked = g.totalStaked.Add(amount)
		pos.Balance = pos.Balance.Add(amount)
		return fmt.Errorf("stake transfer failed: %w", err)
	}

	g.logger.Debug().
		Str("sender", sender).
		Str("amount", amount.String()).
		Msg("Withdrawal applied")

	g.sink.Record(types.GaugeEvent{
		Kind:      types.EventWithdraw,
		Actor:     sender,
		Amount:    amount,
		Timestamp: g.now(),
	})
	return nil
}

// GetReward pays out account's settled reward. Only the account itself or
// the distribution authority (batch-distributing on behalf of stakers) may
// trigger the payout. Accrued reward is zeroed before the transfer.
func (g *Gauge) GetReward(ctx context.Context, sender, account string) error {
	if sender != account && sender != g.cfg.Authority {
		return fmt.Errorf("%w: %s cannot claim for %s", types.ErrUnauthorized, sender, account)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.settle(account)

	pos := g.position(account)
	reward := pos.Accrued
	pos.Accrued = sdkmath.ZeroInt()

	if reward.IsPositive() {
		if err := g.bank.Transfer(ctx, g.cfg.Address, account, g.cfg.RewardDenom, reward); err != nil {
			pos.Accrued = reward
			return fmt.Errorf("reward transfer failed: %w", err)
		}
	}

	g.logger.Debug().
		Str("account", account).
		Str("reward", reward.String()).
		Msg("Reward claimed")

	g.sink.Record(types.GaugeEvent{
		Kind:      types.EventClaimRewards,
		Actor:     sender,
		Account:   account,
		Amount:    reward,
		Timestamp: g.now(),
	})
	return nil
}

// Earned returns account's full entitlement at this instant: settled accrual
// plus the unsettled delta. Read-only.
func (g *Gauge) Earned(account string) sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.earned(account)
}

// RewardPerToken returns the current value of the reward-per-token index.
// Read-only.
func (g *Gauge) RewardPerToken() sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rewardPerToken()
}

// TotalStaked returns the sum of all staked balances.
func (g *Gauge) TotalStaked() sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalStaked
}

// BalanceOf returns account's staked principal.
func (g *Gauge) BalanceOf(account string) sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos, ok := g.positions[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return pos.Balance
}

// RewardRate returns the active per-second reward rate.
func (g *Gauge) RewardRate() sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rewardRate
}

// PeriodFinish returns the timestamp after which the active stream stops.
func (g *Gauge) PeriodFinish() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.periodFinish
}

// EpochRate returns the rate recorded at the given epoch start, or zero.
func (g *Gauge) EpochRate(epochStart int64) sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	rate, ok := g.epochRates[epochStart]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return rate
}

// EpochRates returns a copy of the recorded epoch-rate history.
func (g *Gauge) EpochRates() map[int64]sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int64]sdkmath.Int, len(g.epochRates))
	for start, rate := range g.epochRates {
		out[start] = rate
	}
	return out
}

// Snapshot returns a read-only view of the global accrual state.
func (g *Gauge) Snapshot() types.GaugeSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return types.GaugeSnapshot{
		TotalStaked:          g.totalStaked,
		RewardRate:           g.rewardRate,
		RewardPerTokenStored: g.rewardPerTokenStored,
		LastUpdateTime:       g.lastUpdateTime,
		PeriodFinish:         g.periodFinish,
		Left:                 g.left(),
		Fees0:                g.fees0,
		Fees1:                g.fees1,
	}
}

// Authority returns the distribution authority account.
func (g *Gauge) Authority() string {
	return g.cfg.Authority
}

// Address returns the gauge's own account identifier.
func (g *Gauge) Address() string {
	return g.cfg.Address
}
