package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/spalen0/velov2/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAmount     = errors.New("transfer amount is invalid")
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")
	ErrEmptyAccount      = errors.New("account identifier is empty")
	ErrEmptyDenom        = errors.New("denom is empty")
)

var ledgerLogger = logger.GetForComponent("token_ledger")

// Ledger is an in-memory Bank. Transfers are atomic under a single mutex:
// either both sides of the move apply or neither does.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]map[string]sdkmath.Int // account -> denom -> amount
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]map[string]sdkmath.Int),
	}
}

// Mint credits amount of denom to account out of thin air. Used for seeding
// balances at startup and in tests; not part of the Bank interface.
func (l *Ledger) Mint(account, denom string, amount sdkmath.Int) error {
	if account == "" {
		return ErrEmptyAccount
	}
	if denom == "" {
		return ErrEmptyDenom
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(account, denom, amount)
	ledgerLogger.Debug().Str("account", account).Str("denom", denom).Str("amount", amount.String()).Msg("Minted tokens")
	return nil
}

// Transfer moves amount of denom from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to, denom string, amount sdkmath.Int) error {
	if from == "" || to == "" {
		return ErrEmptyAccount
	}
	if denom == "" {
		return ErrEmptyDenom
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	available := l.balanceLocked(from, denom)
	if available.LT(amount) {
		return fmt.Errorf("%w: account %s holds %s %s, needs %s", ErrInsufficientFunds, from, available, denom, amount)
	}

	l.balances[from][denom] = available.Sub(amount)
	l.credit(to, denom, amount)
	return nil
}

// Balance returns the amount of denom held by account.
func (l *Ledger) Balance(ctx context.Context, account, denom string) (sdkmath.Int, error) {
	if account == "" {
		return sdkmath.ZeroInt(), ErrEmptyAccount
	}
	if denom == "" {
		return sdkmath.ZeroInt(), ErrEmptyDenom
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balanceLocked(account, denom), nil
}

// balanceLocked reads a balance. Callers hold l.mu.
func (l *Ledger) balanceLocked(account, denom string) sdkmath.Int {
	denoms, ok := l.balances[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	amount, ok := denoms[denom]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amount
}

// credit adds to a balance, creating the account/denom entries lazily.
// Callers hold l.mu.
func (l *Ledger) credit(account, denom string, amount sdkmath.Int) {
	denoms, ok := l.balances[account]
	if !ok {
		denoms = make(map[string]sdkmath.Int)
		l.balances[account] = denoms
	}
	current, ok := denoms[denom]
	if !ok {
		current = sdkmath.ZeroInt()
	}
	denoms[denom] = current.Add(amount)
}
