package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendnet_graph_queries_total",
		Help: "Graph store queries by statement and outcome",
	}, []string{"statement", "outcome"})

	graphQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lendnet_graph_query_duration_seconds",
		Help:    "Graph store query latency by statement",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"statement"})

	asymmetricFriendshipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendnet_graph_asymmetric_friendships_total",
		Help: "Friendship writes that left a single directed edge behind",
	})
)

func observeQuery(name string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	graphQueriesTotal.WithLabelValues(name, outcome).Inc()
	graphQueryDuration.WithLabelValues(name).Observe(d.Seconds())
}
