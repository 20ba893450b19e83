package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookdiscovery_searches_total",
		Help: "Total number of search sessions started",
	})

	SearchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookdiscovery_search_failures_total",
		Help: "Total number of searches ending in a fatal failure",
	})

	NoResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookdiscovery_no_results_total",
		Help: "Total number of searches that produced no links",
	})

	SourceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookdiscovery_source_requests_total",
		Help: "Total number of HTTP requests issued per source",
	}, []string{"source"})

	SourceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookdiscovery_source_failures_total",
		Help: "Total number of failed requests per source",
	}, []string{"source"})

	CandidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookdiscovery_candidates_total",
		Help: "Total number of link candidates emitted per source",
	}, []string{"source"})
)
