package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsFinishedTotal, jobsSweptTotal, jobsPending) }

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reflection_jobs_finished_total",
		Help: "Total reflection jobs reaching a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'error'
)

var jobsSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "reflection_jobs_swept_total",
		Help: "Total job records removed by the age-based sweep.",
	},
)

var jobsPending = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "reflection_jobs_pending",
		Help: "Jobs currently awaiting a terminal transition.",
	},
)

func IncJobFinished(status string) {
	jobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func AddJobsSwept(n int) {
	jobsSweptTotal.Add(float64(n))
}

func SetJobsPending(n int) {
	jobsPending.Set(float64(n))
}
