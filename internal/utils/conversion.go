/*
This file contains common utility functions for converting SDK math amounts
for display and metrics, with precision handling.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// IntToFloat64 converts a base-unit amount to float64 for metrics and
// display. Lossy for very large amounts; never errors.
func IntToFloat64(amount sdkmath.Int) float64 {
	if amount.IsNil() {
		return 0
	}
	result, err := sdkmath.LegacyNewDecFromInt(amount).Float64()
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}

// IntToDisplay converts a base-unit amount to a whole-token float64 using the
// asset's decimal precision, with strict validation.
func IntToDisplay(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDec(10).Power(uint64(precision))

	result, err := decAmount.Quo(factor).Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}
