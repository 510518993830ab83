/*

This file contains the fixed accounting parameters of the gauge.

These values mirror the reference distribution schedule: emissions are funded
against calendar-aligned weekly epochs, and all reward math runs on an
18-decimal fixed-point index.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

const (
	// EpochDuration is the fixed funding-cycle length. Epoch boundaries are
	// calendar-aligned: every boundary is a multiple of this duration since
	// the Unix epoch, never relative to the funding call.
	EpochDuration = 7 * 24 * time.Hour

	// EpochSeconds is EpochDuration in whole seconds (604800).
	EpochSeconds = int64(EpochDuration / time.Second)
)

// Precision is the fixed-point scale of the reward-per-token index.
// Matches the 18-decimal granularity of the reward asset's smallest unit.
var Precision = sdkmath.NewIntFromUint64(1e18)

// FeeForwardThreshold is the minimum accumulated fee amount, per leg, before
// captured fees are forwarded to the fee recipient. One epoch-duration's worth
// of base units; purely a batching heuristic.
var FeeForwardThreshold = sdkmath.NewInt(EpochSeconds)
