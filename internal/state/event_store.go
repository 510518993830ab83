// ./internal/state/event_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spalen0/velov2/internal/types"
)

// SaveEvent appends one ledger event to the journal.
func SaveEvent(gaugeAddress string, ev types.GaugeEvent) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	var account sql.NullString
	if ev.Account != "" {
		account = sql.NullString{String: ev.Account, Valid: true}
	}
	var amount1 sql.NullString
	if !ev.Amount1.IsNil() {
		amount1 = sql.NullString{String: ev.Amount1.String(), Valid: true}
	}

	query := `
		INSERT INTO gauge_events (event_id, gauge_address, kind, actor, account, amount, amount1, event_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := DB.Exec(query,
		uuid.New().String(), gaugeAddress, string(ev.Kind), ev.Actor,
		account, ev.Amount.String(), amount1, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save gauge event: %w", err)
	}
	return nil
}

// LoadRecentEvents returns the latest events for a gauge, newest first.
func LoadRecentEvents(gaugeAddress string, limit int) ([]types.GaugeEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT kind, actor, COALESCE(account, ''), amount, amount1, event_timestamp
		FROM gauge_events
		WHERE gauge_address = $1
		ORDER BY event_timestamp DESC
		LIMIT $2`,
		gaugeAddress, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauge events: %w", err)
	}
	defer rows.Close()

	var events []types.GaugeEvent
	for rows.Next() {
		var ev types.GaugeEvent
		var kind, amountStr string
		var amount1Str sql.NullString
		if err := rows.Scan(&kind, &ev.Actor, &ev.Account, &amountStr, &amount1Str, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan gauge event row: %w", err)
		}
		ev.Kind = types.EventKind(kind)
		amount, ok := sdkmath.NewIntFromString(amountStr)
		if !ok {
			return nil, fmt.Errorf("invalid amount in database: %s", amountStr)
		}
		ev.Amount = amount
		if amount1Str.Valid {
			amount1, ok := sdkmath.NewIntFromString(amount1Str.String)
			if !ok {
				return nil, fmt.Errorf("invalid amount1 in database: %s", amount1Str.String)
			}
			ev.Amount1 = amount1
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gauge event rows: %w", err)
	}
	return events, nil
}

// JournalSink persists every ledger event to the database. Journaling is
// best-effort: a failed write is logged, never surfaced to the ledger.
type JournalSink struct {
	GaugeAddress string
}

// Record implements the gauge event sink.
func (s JournalSink) Record(ev types.GaugeEvent) {
	if err := SaveEvent(s.GaugeAddress, ev); err != nil {
		log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to journal gauge event")
	}
	if ev.Kind == types.EventNotifyReward && !ev.RewardRate.IsNil() {
		if err := SaveEpochRate(s.GaugeAddress, ev.EpochStart, ev.RewardRate); err != nil {
			log.Error().Err(err).Int64("epochStart", ev.EpochStart).Msg("Failed to record epoch rate")
		}
	}
}
