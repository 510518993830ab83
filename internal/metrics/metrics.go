package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spalen0/velov2/internal/types"
	"github.com/spalen0/velov2/internal/utils"
)

// Collectors for the gauge ledger, registered on the default registry and
// served by the web server's /metrics endpoint.
var (
	depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gauge_deposits_total",
		Help: "Number of successful deposits.",
	})
	withdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gauge_withdrawals_total",
		Help: "Number of successful withdrawals.",
	})
	claimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gauge_reward_claims_total",
		Help: "Number of successful reward claims.",
	})
	notifiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gauge_reward_notifies_total",
		Help: "Number of reward stream funding events.",
	})
	feeClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gauge_fee_claims_total",
		Help: "Number of fee capture events.",
	})
	totalStaked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gauge_total_staked",
		Help: "Sum of all staked balances, in base units.",
	})
)

// Sink feeds ledger events into the Prometheus collectors.
type Sink struct{}

// Record implements the gauge event sink.
func (Sink) Record(ev types.GaugeEvent) {
	switch ev.Kind {
	case types.EventDeposit:
		depositsTotal.Inc()
		totalStaked.Add(utils.IntToFloat64(ev.Amount))
	case types.EventWithdraw:
		withdrawalsTotal.Inc()
		totalStaked.Sub(utils.IntToFloat64(ev.Amount))
	case types.EventClaimRewards:
		claimsTotal.Inc()
	case types.EventNotifyReward:
		notifiesTotal.Inc()
	case types.EventClaimFees:
		feeClaimsTotal.Inc()
	}
}
