package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirp_cache_hits_total",
		Help: "Number of cache-aside reads served from Redis",
	})
	misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirp_cache_misses_total",
		Help: "Number of cache-aside reads that fell through to the database",
	})
)
