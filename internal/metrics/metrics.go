package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// KifuTreesLoaded counts game trees extracted from uploaded records
	KifuTreesLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kifu_trees_loaded_total",
			Help: "Total number of game trees loaded from SGF records",
		},
	)

	// KifuLoadFailures counts records that produced no game at all
	KifuLoadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kifu_load_failures_total",
			Help: "Total number of SGF records that could not be loaded",
		},
	)

	// KifuCharsetRedecodes counts records re-read from a declared legacy charset
	KifuCharsetRedecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kifu_charset_redecodes_total",
			Help: "Total number of records converted from a declared charset",
		},
		[]string{"charset"},
	)

	// KifuDiscardedBytes counts bytes dropped after the last good tree
	KifuDiscardedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kifu_discarded_bytes_total",
			Help: "Total number of trailing bytes discarded after a broken game tree",
		},
	)

	// KifuNavigation counts navigation operations by name and outcome
	KifuNavigation = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kifu_navigation_total",
			Help: "Total number of navigation operations",
		},
		[]string{"op", "changed"},
	)

	// KifuLayoutNodes tracks the size of trees laid out for a view
	KifuLayoutNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kifu_layout_nodes",
			Help:    "Number of nodes placed per layout pass",
			Buckets: prometheus.ExponentialBuckets(8, 4, 8),
		},
	)

	// KifuSessions tracks open sessions
	KifuSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kifu_sessions",
			Help: "Number of open sessions",
		},
	)

	// KifuAnalysisResponses counts engine responses by whether they reached a node
	KifuAnalysisResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kifu_analysis_responses_total",
			Help: "Total number of engine responses received",
		},
		[]string{"applied"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(KifuTreesLoaded)
	prometheus.MustRegister(KifuLoadFailures)
	prometheus.MustRegister(KifuCharsetRedecodes)
	prometheus.MustRegister(KifuDiscardedBytes)
	prometheus.MustRegister(KifuNavigation)
	prometheus.MustRegister(KifuLayoutNodes)
	prometheus.MustRegister(KifuSessions)
	prometheus.MustRegister(KifuAnalysisResponses)
}
