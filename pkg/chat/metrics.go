package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_sync_pages_loaded_total",
		Help: "Historical pages fetched by the pager.",
	})

	duplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_sync_duplicates_dropped_total",
		Help: "Messages dropped because their id was already in the canonical list.",
	})

	outOfOrderInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_sync_out_of_order_inserts_total",
		Help: "Live inserts whose timestamp preceded the list tail.",
	})

	staleDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_sync_stale_drops_total",
		Help: "Operations dropped because they targeted a conversation no longer shown.",
	})
)
