package types

import "errors"

// Error definitions for the gauge ledger. Every failed precondition aborts
// the whole operation; callers never see partial state.
var (
	// ErrUnauthorized is returned when the caller is not allowed to perform
	// a restricted operation (funding, or claiming on behalf of another account).
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrZeroAmount is returned for operations that must move a positive amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrPoolNotAuthorized is returned on deposit when the authorization
	// oracle reports this gauge is no longer eligible for emissions.
	ErrPoolNotAuthorized = errors.New("gauge is not authorized by the oracle")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// caller's staked balance.
	ErrInsufficientBalance = errors.New("withdrawal exceeds staked balance")

	// ErrDegenerateRewardRate is returned when a funding amount is too small
	// relative to the time remaining in the epoch, producing a zero rate.
	ErrDegenerateRewardRate = errors.New("computed reward rate is zero")

	// ErrRewardRateTooHigh is returned when the computed rate exceeds what the
	// gauge's reward-token balance can actually pay out over the epoch.
	ErrRewardRateTooHigh = errors.New("reward rate exceeds claimable balance")
)
