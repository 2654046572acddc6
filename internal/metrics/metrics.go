package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quiz"

// Recorder exposes session lifecycle counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	answers           *prometheus.CounterVec
	timeouts          prometheus.Counter
	finalScore        prometheus.Histogram
	newBest           prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Quiz sessions started.",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Quiz sessions that reached completion.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Recorded answers by result.",
		}, []string{"result"}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_timeouts_total",
			Help:      "Questions whose countdown expired without an answer.",
		}),
		finalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_score",
			Help:      "Final score of completed sessions.",
			Buckets:   prometheus.LinearBuckets(0, 10, 10),
		}),
		newBest: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "top_score_updates_total",
			Help:      "Completed sessions that set a new best score.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.sessionsStarted, r.sessionsCompleted, r.answers, r.timeouts, r.finalScore, r.newBest)
	}
	return r
}

func (r *Recorder) SessionStarted() {
	if r == nil {
		return
	}
	r.sessionsStarted.Inc()
}

func (r *Recorder) Answer(correct bool) {
	if r == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	r.answers.WithLabelValues(result).Inc()
}

func (r *Recorder) Timeout() {
	if r == nil {
		return
	}
	r.timeouts.Inc()
}

func (r *Recorder) SessionCompleted(score int, newBest bool) {
	if r == nil {
		return
	}
	r.sessionsCompleted.Inc()
	r.finalScore.Observe(float64(score))
	if newBest {
		r.newBest.Inc()
	}
}
