package actor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics instruments every actor of one engine. A nil receiver
// is valid and makes each observation a no-op.
type engineMetrics struct {
	tasksExecuted  prometheus.Counter
	taskFailures   prometheus.Counter
	tasksRejected  prometheus.Counter
	taskDuration   prometheus.Histogram
	poisonedActors prometheus.Gauge
	inboxDepth     *prometheus.GaugeVec
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	factory := promauto.With(reg)
	return &engineMetrics{
		tasksExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "actor_tasks_executed_total",
			Help: "Tasks invoked by execution loops.",
		}),
		taskFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "actor_task_failures_total",
			Help: "Tasks that returned an error or panicked.",
		}),
		tasksRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "actor_tasks_rejected_total",
			Help: "Tasks short-circuited on poisoned actors.",
		}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "actor_task_duration_seconds",
			Help:    "Task execution latency.",
			Buckets: []float64{.0001, .001, .01, .1, .5, 1},
		}),
		poisonedActors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "actor_poisoned_actors",
			Help: "Actors currently in poisoned state.",
		}),
		inboxDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actor_inbox_depth",
			Help: "Envelopes waiting in the inbox.",
		}, []string{"actor"}),
	}
}

func (m *engineMetrics) observeTask(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.tasksExecuted.Inc()
	m.taskDuration.Observe(d.Seconds())
	if err != nil {
		m.taskFailures.Inc()
	}
}

func (m *engineMetrics) observeRejected() {
	if m == nil {
		return
	}
	m.tasksRejected.Inc()
}

func (m *engineMetrics) observePoisoned() {
	if m == nil {
		return
	}
	m.poisonedActors.Inc()
}

func (m *engineMetrics) observeInboxDepth(pid *PID, depth int64) {
	if m == nil {
		return
	}
	m.inboxDepth.WithLabelValues(pid.ID).Set(float64(depth))
}

func (m *engineMetrics) forgetActor(pid *PID, poisoned bool) {
	if m == nil {
		return
	}
	m.inboxDepth.DeleteLabelValues(pid.ID)
	if poisoned {
		m.poisonedActors.Dec()
	}
}
