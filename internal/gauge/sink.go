package gauge

import (
	"github.com/rs/zerolog"

	"github.com/spalen0/velov2/internal/types"
)

// NopSink discards all events.
type NopSink struct{}

// Record implements EventSink.
func (NopSink) Record(ev types.GaugeEvent) {}

// LogSink writes each event to a structured logger.
type LogSink struct {
	Logger zerolog.Logger
}

// Record implements EventSink.
func (s LogSink) Record(ev types.GaugeEvent) {
	entry := s.Logger.Info().
		Str("kind", string(ev.Kind)).
		Str("actor", ev.Actor).
		Str("amount", ev.Amount.String())
	if ev.Account != "" {
		entry = entry.Str("account", ev.Account)
	}
	if !ev.Amount1.IsNil() && !ev.Amount1.IsZero() {
		entry = entry.Str("amount1", ev.Amount1.String())
	}
	entry.Msg("Gauge event")
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// Record implements EventSink.
func (m MultiSink) Record(ev types.GaugeEvent) {
	for _, sink := range m {
		sink.Record(ev)
	}
}
