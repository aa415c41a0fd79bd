package run

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	guessesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordrun_guesses_evaluated_total",
		Help: "Guesses scored against a target word, by mode and correctness.",
	}, []string{"mode", "correct"})

	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordrun_runs_finished_total",
		Help: "Runs reaching a terminal state, by mode and status.",
	}, []string{"mode", "status"})
)

func runMode(run *Run) string {
	if run.IsMultiplayer {
		return "coop"
	}
	return "solo"
}
