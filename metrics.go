package cachefront

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachefront_hits",
	Help: "Number of reads served from the store",
})

var cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachefront_misses",
	Help: "Number of reads not present in the store",
})

var originCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cachefront_origin_calls",
	Help: "Number of origin callback invocations",
}, []string{"kind", "status"})

var writebackRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachefront_writeback_retries",
	Help: "Number of write-back retry attempts",
})

var writebackExhausted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachefront_writeback_exhausted",
	Help: "Number of write-backs that gave up after all retries",
})
