// internal/metrics/metrics.go
//
// Prometheus counters for games.
// Responsibilities:
//   - Count games started, guesses checked (by try) and games finished (by outcome, reason).
//   - Serve its own registry at /metrics.
//
// Notes:
//   - Metrics implements orchestrator.Hooks.

package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/orchestrator"
)

// Game counters. Each Metrics owns its registry so tests and servers don't collide.
type Metrics struct {
	reg *prometheus.Registry

	GamesStarted  prometheus.Counter
	GuessesTotal  *prometheus.CounterVec
	GamesFinished *prometheus.CounterVec
}

var _ orchestrator.Hooks = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		GamesStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wordle",
				Subsystem: "session",
				Name:      "games_started_total",
				Help:      "Total games started",
			},
		),
		GuessesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wordle",
				Subsystem: "session",
				Name:      "guesses_checked_total",
				Help:      "Total evaluated guesses by try number",
			},
			[]string{"try"},
		),
		GamesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wordle",
				Subsystem: "session",
				Name:      "games_finished_total",
				Help:      "Total finished games by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
	}
}

func (m *Metrics) GameStarted(context.Context, actor.ID, actor.MessageID) {
	m.GamesStarted.Inc()
}

func (m *Metrics) GuessChecked(_ context.Context, _ actor.ID, tries uint8) {
	m.GuessesTotal.WithLabelValues(strconv.Itoa(int(tries))).Inc()
}

func (m *Metrics) GameFinished(_ context.Context, _ actor.ID, r orchestrator.Result) {
	m.GamesFinished.WithLabelValues(string(r.Outcome), string(r.Reason)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
