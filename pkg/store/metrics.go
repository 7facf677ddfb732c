package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairchat_store_ops_total",
		Help: "Store operations by table and op.",
	}, []string{"table", "op"})

	feedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairchat_feed_events_total",
		Help: "Change-feed events dispatched, by table and kind.",
	}, []string{"table", "kind"})

	feedSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairchat_feed_subscriptions",
		Help: "Currently open change-feed subscriptions.",
	})
)
