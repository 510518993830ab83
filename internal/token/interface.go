package token

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// Bank defines the interface for moving assets between accounts.
// This interface abstracts away the actual transfer mechanics, allowing for
// different implementations (in-memory ledger, chain-backed client, etc.).
// Implementations must be all-or-nothing: a failed transfer moves nothing.
type Bank interface {
	// Transfer moves amount of denom from one account to another.
	// It fails loudly rather than partially applying.
	Transfer(ctx context.Context, from, to, denom string, amount sdkmath.Int) error

	// Balance returns the amount of denom held by account. Unknown accounts
	// and denoms report zero.
	Balance(ctx context.Context, account, denom string) (sdkmath.Int, error)
}
