package provision

import "github.com/prometheus/client_golang/prometheus"

var (
	createdTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dbset",
		Subsystem: "provision",
		Name:      "created_total",
		Help:      "Databases created, by driver.",
	}, []string{"driver"})

	droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dbset",
		Subsystem: "provision",
		Name:      "dropped_total",
		Help:      "Databases dropped, by driver.",
	}, []string{"driver"})

	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dbset",
		Subsystem: "provision",
		Name:      "failures_total",
		Help:      "Failed provisioning steps, by driver and operation.",
	}, []string{"driver", "op"})

	stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dbset",
		Subsystem: "provision",
		Name:      "step_duration_seconds",
		Help:      "Duration of provisioning steps, by driver and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"driver", "op"})
)

func init() {
	prometheus.MustRegister(createdTotal, droppedTotal, failuresTotal, stepDuration)
}
