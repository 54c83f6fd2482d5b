package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the scoreboard
type Metrics struct {
	ContextHits      prometheus.Counter
	ContextMisses    prometheus.Counter
	ContextEvictions prometheus.Counter
	ContextEntries   prometheus.Gauge

	GamesCreated    prometheus.Counter
	ResultsRecorded prometheus.Counter
	ResultsReverted prometheus.Counter
	GameTransitions *prometheus.CounterVec
	CommandsHandled *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Pass
// prometheus.NewRegistry() in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContextHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_context_hits_total",
			Help: "Reply lookups that resolved to a live message context",
		}),
		ContextMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_context_misses_total",
			Help: "Reply lookups with no live message context",
		}),
		ContextEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_context_evictions_total",
			Help: "Message contexts dropped after their lifetime passed",
		}),
		ContextEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scoreboard_context_entries",
			Help: "Message contexts currently held in memory",
		}),
		GamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_games_created_total",
			Help: "Games created",
		}),
		ResultsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_results_recorded_total",
			Help: "Results recorded or replaced",
		}),
		ResultsReverted: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_results_reverted_total",
			Help: "Result reversals, including no-op reversals",
		}),
		GameTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_game_state_transitions_total",
			Help: "Game state changes by source and target state",
		}, []string{"from", "to"}),
		CommandsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_commands_total",
			Help: "Chat commands handled by command and outcome code",
		}, []string{"command", "outcome"}),
	}
}

// ObserveTransition records a state change; unchanged states are ignored.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.GameTransitions.WithLabelValues(from, to).Inc()
}

// ObserveCommand records the outcome of one chat command.
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.CommandsHandled.WithLabelValues(command, outcome).Inc()
}

// GameCreated counts one created game.
func (m *Metrics) GameCreated() {
	if m == nil {
		return
	}
	m.GamesCreated.Inc()
}

// ResultRecorded counts one recorded or replaced result.
func (m *Metrics) ResultRecorded() {
	if m == nil {
		return
	}
	m.ResultsRecorded.Inc()
}

// ResultReverted counts one reversal request.
func (m *Metrics) ResultReverted() {
	if m == nil {
		return
	}
	m.ResultsReverted.Inc()
}
