package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	OpenalexCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openalex_calls",
		Help: "Total calls made to OpenAlex",
	}, []string{"status"})

	OrcidCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcid_calls",
		Help: "Total calls made to the ORCID public API",
	}, []string{"status"})

	DiscoveriesRun = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discoveries_run",
		Help: "Total number of discovery runs executed",
	})

	AuthorsDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authors_discovered",
		Help: "Total number of unique authors returned across discovery runs",
	})
)
