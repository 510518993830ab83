// ./internal/state/epoch_store.go
package state

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
)

// SaveEpochRate records the reward rate that became active at an epoch start.
// Upserts so a re-funded epoch keeps the latest rate.
func SaveEpochRate(gaugeAddress string, epochStart int64, rate sdkmath.Int) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO epoch_rates (gauge_address, epoch_start, reward_rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (gauge_address, epoch_start)
		DO UPDATE SET reward_rate = EXCLUDED.reward_rate, recorded_at = CURRENT_TIMESTAMP;
	`
	if _, err := DB.Exec(query, gaugeAddress, epochStart, rate.String()); err != nil {
		return fmt.Errorf("failed to save epoch rate: %w", err)
	}

	log.Debug().
		Str("gauge", gaugeAddress).
		Int64("epochStart", epochStart).
		Str("rate", rate.String()).
		Msg("Epoch rate recorded")
	return nil
}

// LoadEpochRates returns the recorded rate history for a gauge, keyed by
// epoch start timestamp.
func LoadEpochRates(gaugeAddress string) (map[int64]sdkmath.Int, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(
		`SELECT epoch_start, reward_rate FROM epoch_rates WHERE gauge_address = $1 ORDER BY epoch_start`,
		gaugeAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query epoch rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[int64]sdkmath.Int)
	for rows.Next() {
		var epochStart int64
		var rateStr string
		if err := rows.Scan(&epochStart, &rateStr); err != nil {
			return nil, fmt.Errorf("failed to scan epoch rate row: %w", err)
		}
		rate, ok := sdkmath.NewIntFromString(rateStr)
		if !ok {
			return nil, fmt.Errorf("invalid reward rate in database: %s", rateStr)
		}
		rates[epochStart] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating epoch rate rows: %w", err)
	}
	return rates, nil
}
