package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssignmentsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classwork", Name: "assignments_published_total", Help: "Published assignments",
	})
	PlaceholdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classwork", Name: "submission_placeholders_total", Help: "Submission placeholders materialized",
	})
	SubmissionsTurnedIn = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classwork", Name: "submissions_total", Help: "Student submissions",
	})
	SubmissionsGraded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classwork", Name: "grades_total", Help: "Graded submissions",
	})
	NotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classwork", Name: "notify_failures_total", Help: "Failed notification deliveries",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "classwork", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(AssignmentsPublished, PlaceholdersCreated, SubmissionsTurnedIn,
		SubmissionsGraded, NotifyFailures, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
