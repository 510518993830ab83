package gauge

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/spalen0/velov2/internal/oracle"
	"github.com/spalen0/velov2/internal/pair"
	"github.com/spalen0/velov2/internal/token"
	"github.com/spalen0/velov2/internal/types"
)

const (
	gaugeAddr    = "gauge1"
	pairAddr     = "pair1"
	authority    = "voter"
	feeRecipient = "fees-dist"
	alice        = "alice"
	bob          = "bob"
	stakeDenom   = "lp/pool1"
	rewardDenom  = "uvelo"
	token0Denom  = "utoken0"
	token1Denom  = "utoken1"
)

// epochAligned is an exact calendar epoch boundary (multiple of 604800).
const epochAligned int64 = 2810 * 604800 // 1,699,488,000

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordSink struct {
	mu     sync.Mutex
	events []types.GaugeEvent
}

func (s *recordSink) Record(ev types.GaugeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) kinds() []types.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.EventKind, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	gauge  *Gauge
	bank   *token.Ledger
	oracle *oracle.Static
	pair   *pair.Pair
	clock  *fakeClock
	sink   *recordSink
}

func newFixture(t *testing.T, isPair bool) *fixture {
	t.Helper()

	bank := token.NewLedger()
	require.NoError(t, bank.Mint(alice, stakeDenom, sdkmath.NewInt(1_000_000)))
	require.NoError(t, bank.Mint(bob, stakeDenom, sdkmath.NewInt(1_000_000)))
	require.NoError(t, bank.Mint(authority, rewardDenom, sdkmath.NewInt(100_000_000)))

	clock := &fakeClock{now: time.Unix(epochAligned, 0).UTC()}
	orc := oracle.NewStatic(true)
	sink := &recordSink{}

	cfg := Config{
		Gauge: types.GaugeConfig{
			Address:      gaugeAddr,
			StakeDenom:   stakeDenom,
			RewardDenom:  rewardDenom,
			Authority:    authority,
			FeeRecipient: feeRecipient,
		},
		Bank:   bank,
		Oracle: orc,
		Sink:   sink,
		Now:    clock.Now,
	}

	var pr *pair.Pair
	if isPair {
		var err error
		pr, err = pair.New(bank, pairAddr, gaugeAddr, token0Denom, token1Denom)
		require.NoError(t, err)
		cfg.Gauge.IsPair = true
		cfg.Gauge.PairToken0 = token0Denom
		cfg.Gauge.PairToken1 = token1Denom
		cfg.Pair = pr
	}

	g, err := New(cfg)
	require.NoError(t, err)

	return &fixture{gauge: g, bank: bank, oracle: orc, pair: pr, clock: clock, sink: sink}
}

// accrueFees mints fee tokens onto the pair and marks them pending.
func (f *fixture) accrueFees(t *testing.T, amount0, amount1 int64) {
	t.Helper()
	require.NoError(t, f.bank.Mint(pairAddr, token0Denom, sdkmath.NewInt(amount0)))
	require.NoError(t, f.bank.Mint(pairAddr, token1Denom, sdkmath.NewInt(amount1)))
	f.pair.Accrue(sdkmath.NewInt(amount0), sdkmath.NewInt(amount1))
}

func (f *fixture) requireStakeSum(t *testing.T, accounts ...string) {
	t.Helper()
	sum := sdkmath.ZeroInt()
	for _, acct := range accounts {
		sum = sum.Add(f.gauge.BalanceOf(acct))
	}
	require.Equal(t, sum, f.gauge.TotalStaked(), "total stake must equal the sum of account balances")
}

func TestDepositWithdrawKeepsTotalConsistent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	f.requireStakeSum(t, alice, bob)

	require.NoError(t, f.gauge.Deposit(ctx, bob, bob, sdkmath.NewInt(250)))
	f.requireStakeSum(t, alice, bob)

	require.NoError(t, f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(40)))
	f.requireStakeSum(t, alice, bob)
	require.Equal(t, sdkmath.NewInt(60), f.gauge.BalanceOf(alice))

	require.NoError(t, f.gauge.Withdraw(ctx, bob, sdkmath.NewInt(250)))
	f.requireStakeSum(t, alice, bob)
	require.True(t, f.gauge.BalanceOf(bob).IsZero())

	// Principal moved through the gauge account both ways.
	gaugeBal, err := f.bank.Balance(ctx, gaugeAddr, stakeDenom)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(60), gaugeBal)
}

func TestDepositToRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	// Alice funds a stake owned by bob.
	require.NoError(t, f.gauge.Deposit(ctx, alice, bob, sdkmath.NewInt(500)))
	require.True(t, f.gauge.BalanceOf(alice).IsZero())
	require.Equal(t, sdkmath.NewInt(500), f.gauge.BalanceOf(bob))

	aliceBal, err := f.bank.Balance(ctx, alice, stakeDenom)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(999_500), aliceBal)
}

func TestDepositRejectsZeroAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.ErrorIs(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.ZeroInt()), types.ErrZeroAmount)
	require.ErrorIs(t, f.gauge.Withdraw(ctx, alice, sdkmath.ZeroInt()), types.ErrZeroAmount)
	require.ErrorIs(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.ZeroInt()), types.ErrZeroAmount)
}

func TestDepositRejectedWhenDeauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	f.oracle.SetAlive(false)
	err := f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrPoolNotAuthorized)
	require.True(t, f.gauge.TotalStaked().IsZero())

	// Withdrawals are never blocked by the oracle.
	f.oracle.SetAlive(true)
	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	f.oracle.SetAlive(false)
	require.NoError(t, f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(100)))
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))

	err := f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(101))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)

	// Nothing changed.
	require.Equal(t, sdkmath.NewInt(100), f.gauge.BalanceOf(alice))
	require.Equal(t, sdkmath.NewInt(100), f.gauge.TotalStaked())

	// An account with no position at all gets the same rejection.
	require.ErrorIs(t, f.gauge.Withdraw(ctx, bob, sdkmath.NewInt(1)), types.ErrInsufficientBalance)
}

func TestSingleStakerEarnsFullEpoch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))

	// 604800 reward units over exactly one epoch: 1 unit per second.
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	require.Equal(t, sdkmath.NewInt(1), f.gauge.RewardRate())

	f.clock.Advance(604800 * time.Second)
	require.Equal(t, sdkmath.NewInt(604800), f.gauge.Earned(alice))

	// Past the period end, nothing more accrues.
	f.clock.Advance(3600 * time.Second)
	require.Equal(t, sdkmath.NewInt(604800), f.gauge.Earned(alice))

	require.NoError(t, f.gauge.GetReward(ctx, alice, alice))
	bal, err := f.bank.Balance(ctx, alice, rewardDenom)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(604800), bal)
	require.True(t, f.gauge.Earned(alice).IsZero())
}

func TestTwoStakersSplitProportionally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	require.NoError(t, f.gauge.Deposit(ctx, bob, bob, sdkmath.NewInt(300)))
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))

	f.clock.Advance(400 * time.Second)
	require.Equal(t, sdkmath.NewInt(100), f.gauge.Earned(alice))
	require.Equal(t, sdkmath.NewInt(300), f.gauge.Earned(bob))
}

func TestRewardPerTokenMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	last := f.gauge.RewardPerToken()
	step := func() {
		t.Helper()
		current := f.gauge.RewardPerToken()
		require.True(t, current.GTE(last), "index went backwards: %s -> %s", last, current)
		last = current
	}

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(123)))
	step()
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	step()
	f.clock.Advance(1000 * time.Second)
	step()
	require.NoError(t, f.gauge.Deposit(ctx, bob, bob, sdkmath.NewInt(777)))
	step()
	f.clock.Advance(5000 * time.Second)
	step()
	require.NoError(t, f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(123)))
	step()
	require.NoError(t, f.gauge.GetReward(ctx, bob, bob))
	step()
	f.clock.Advance(7 * 24 * time.Hour)
	step()
}

func TestSettlementIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	f.clock.Advance(1000 * time.Second)

	require.NoError(t, f.gauge.GetReward(ctx, alice, alice))
	snapAfterFirst := f.gauge.Snapshot()
	balAfterFirst, err := f.bank.Balance(ctx, alice, rewardDenom)
	require.NoError(t, err)

	// No time elapsed, no stake change: the second settlement changes nothing
	// and pays nothing.
	require.NoError(t, f.gauge.GetReward(ctx, alice, alice))
	snapAfterSecond := f.gauge.Snapshot()
	balAfterSecond, err := f.bank.Balance(ctx, alice, rewardDenom)
	require.NoError(t, err)

	require.Equal(t, snapAfterFirst.RewardPerTokenStored, snapAfterSecond.RewardPerTokenStored)
	require.Equal(t, balAfterFirst, balAfterSecond)
}

func TestIdleTimeIsNotDistributed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))

	f.clock.Advance(100 * time.Second)
	require.NoError(t, f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(100)))
	require.Equal(t, sdkmath.NewInt(100), f.gauge.Earned(alice))

	// Nothing staked for 1000 seconds: that stretch of the stream is simply
	// never handed out.
	indexBefore := f.gauge.RewardPerToken()
	f.clock.Advance(1000 * time.Second)
	require.Equal(t, indexBefore, f.gauge.RewardPerToken())

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	f.clock.Advance(10 * time.Second)
	require.Equal(t, sdkmath.NewInt(110), f.gauge.Earned(alice))
}

func TestNotifyRateMath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))

	// Fresh stream at an exact boundary: rate = floor(X / T).
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(1_209_601)))
	require.Equal(t, sdkmath.NewInt(2), f.gauge.RewardRate()) // floor(1209601/604800)

	// Mid-stream top-up: leftover rolls into the new rate.
	f.clock.Advance(302400 * time.Second)
	// leftover = 302400 * 2 = 604800; T = 302400; rate = floor((302400+604800)/302400) = 3
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(302400)))
	require.Equal(t, sdkmath.NewInt(3), f.gauge.RewardRate())
}

func TestNotifyRestrictedToAuthority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	err := f.gauge.NotifyRewardAmount(ctx, alice, sdkmath.NewInt(604800))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.True(t, f.gauge.RewardRate().IsZero())
}

func TestNotifyDegenerateRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	// 1 unit over a whole epoch floors to a zero rate.
	err := f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(1))
	require.ErrorIs(t, err, types.ErrDegenerateRewardRate)
	require.True(t, f.gauge.RewardRate().IsZero())
	require.Zero(t, f.gauge.PeriodFinish())
}

func TestNotifyRateExceedsBalanceBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))

	// Simulate a reward deficit on the gauge account. The next funding's rate
	// must be rejected because the rolled-over leftover is no longer backed.
	require.NoError(t, f.bank.Transfer(ctx, gaugeAddr, "sink", rewardDenom, sdkmath.NewInt(500_000)))

	f.clock.Advance(100 * time.Second)
	err := f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800))
	require.ErrorIs(t, err, types.ErrRewardRateTooHigh)
}

func TestClaimOnBehalf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	f.clock.Advance(1000 * time.Second)

	// A third party may not claim for someone else.
	require.ErrorIs(t, f.gauge.GetReward(ctx, bob, alice), types.ErrUnauthorized)

	// The distribution authority may claim for anyone; the reward still goes
	// to the account, not the caller. This is a deliberate trust boundary:
	// the authority batch-distributes on behalf of stakers.
	require.NoError(t, f.gauge.GetReward(ctx, authority, alice))
	bal, err := f.bank.Balance(ctx, alice, rewardDenom)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), bal)

	authBal, err := f.bank.Balance(ctx, authority, rewardDenom)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100_000_000-604800), authBal)
}

func TestLeft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.True(t, f.gauge.Left().IsZero())

	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	require.Equal(t, sdkmath.NewInt(604800), f.gauge.Left())

	f.clock.Advance(1000 * time.Second)
	require.Equal(t, sdkmath.NewInt(603800), f.gauge.Left())

	f.clock.Advance(604800 * time.Second)
	require.True(t, f.gauge.Left().IsZero())
}

func TestEpochRateRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	require.Equal(t, sdkmath.NewInt(1), f.gauge.EpochRate(epochAligned))

	// Next epoch's funding lands under the next boundary.
	f.clock.Advance(604800 * time.Second)
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(1_209_600)))
	require.Equal(t, sdkmath.NewInt(2), f.gauge.EpochRate(epochAligned+604800))

	require.Len(t, f.gauge.EpochRates(), 2)
}

func TestEventsEmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(100)))
	require.NoError(t, f.gauge.NotifyRewardAmount(ctx, authority, sdkmath.NewInt(604800)))
	f.clock.Advance(100 * time.Second)
	require.NoError(t, f.gauge.GetReward(ctx, alice, alice))
	require.NoError(t, f.gauge.Withdraw(ctx, alice, sdkmath.NewInt(100)))

	require.Equal(t, []types.EventKind{
		types.EventDeposit,
		types.EventNotifyReward,
		types.EventClaimRewards,
		types.EventWithdraw,
	}, f.sink.kinds())
}

func TestDepositRolledBackOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	// More than alice holds: the pull fails and the books stay untouched.
	err := f.gauge.Deposit(ctx, alice, alice, sdkmath.NewInt(2_000_000))
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	require.True(t, f.gauge.TotalStaked().IsZero())
	require.True(t, f.gauge.BalanceOf(alice).IsZero())
	require.Empty(t, f.sink.kinds())
}
