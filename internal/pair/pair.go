package pair

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/spalen0/velov2/internal/logger"
	"github.com/spalen0/velov2/internal/token"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidBank  = errors.New("bank is invalid")
	ErrInvalidClaim = errors.New("fee claim transfer failed")
)

var pairLogger = logger.GetForComponent("pair")

// Pair simulates the originating pool/market that realizes trading fees.
// Fees accumulate on the pair's own account; a claim pushes everything
// pending to the claimant in one atomic step per leg.
type Pair struct {
	mu sync.Mutex

	bank    token.Bank
	address string // the pair's own account
	gauge   string // the claimant the pair pays fees to
	token0  string
	token1  string

	pending0 sdkmath.Int
	pending1 sdkmath.Int
}

// New creates a pair paying fees in token0/token1 from its own account to the
// gauge's account.
func New(bank token.Bank, address, gauge, token0, token1 string) (*Pair, error) {
	if bank == nil {
		return nil, ErrInvalidBank
	}
	return &Pair{
		bank:     bank,
		address:  address,
		gauge:    gauge,
		token0:   token0,
		token1:   token1,
		pending0: sdkmath.ZeroInt(),
		pending1: sdkmath.ZeroInt(),
	}, nil
}

// Accrue records freshly realized trading fees on the pair. The amounts must
// already be backed by the pair's account balance (minted or swapped in).
func (p *Pair) Accrue(amount0, amount1 sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !amount0.IsNil() && amount0.IsPositive() {
		p.pending0 = p.pending0.Add(amount0)
	}
	if !amount1.IsNil() && amount1.IsPositive() {
		p.pending1 = p.pending1.Add(amount1)
	}
}

// ClaimFees transfers all pending fees to the gauge and returns the claimed
// amounts per leg. Nothing pending is a quiet zero, not an error.
func (p *Pair) ClaimFees(ctx context.Context) (sdkmath.Int, sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	claimed0 := p.pending0
	claimed1 := p.pending1

	if claimed0.IsPositive() {
		if err := p.bank.Transfer(ctx, p.address, p.gauge, p.token0, claimed0); err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("%w: leg0: %w", ErrInvalidClaim, err)
		}
		p.pending0 = sdkmath.ZeroInt()
	}
	if claimed1.IsPositive() {
		if err := p.bank.Transfer(ctx, p.address, p.gauge, p.token1, claimed1); err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("%w: leg1: %w", ErrInvalidClaim, err)
		}
		p.pending1 = sdkmath.ZeroInt()
	}

	if claimed0.IsPositive() || claimed1.IsPositive() {
		pairLogger.Debug().
			Str("claimed0", claimed0.String()).
			Str("claimed1", claimed1.String()).
			Msg("Pair fees claimed")
	}
	return claimed0, claimed1, nil
}
