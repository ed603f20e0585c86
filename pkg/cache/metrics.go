package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the response cache.
var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdings_cache_hits_total",
		Help: "Responses served from the cache",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdings_cache_misses_total",
		Help: "Lookups that found no fresh entry",
	})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdings_cache_bytes_total",
		Help: "Bytes read from and written to Redis",
	}, []string{"direction"}) // "read", "write"

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdings_cache_errors_total",
		Help: "Cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete", "purge"
)
