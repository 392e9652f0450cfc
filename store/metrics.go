package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sweepEvictions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachefront_store_sweep_evictions",
	Help: "Number of expired entries removed by the active sweep",
})
