package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hry_rooms_active",
		Help: "Number of live rooms.",
	})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hry_connections_active",
		Help: "Number of open websocket connections.",
	})

	MatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hry_matches_completed_total",
		Help: "Total finished matches.",
	})

	MatchmakingQueueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hry_matchmaking_queue_size",
		Help: "Players waiting per matchmaking queue.",
	}, []string{"queue"})

	RatingSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hry_rating_save_failures_total",
		Help: "Failed match result persistence attempts.",
	})
)
