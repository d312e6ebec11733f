package evo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// variationTotal counts operator applications by operator and result
	variationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evodex_variation_total",
		Help: "Variation operator applications by operator and result",
	}, []string{"operator", "result"})

	// listResizeTotal counts list gene insertions and removals
	listResizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evodex_list_resize_total",
		Help: "List gene resize events by kind (add, add_noop, remove)",
	}, []string{"op"})

	// subtreeFallbackTotal counts subtree crossovers that returned parent A unchanged
	subtreeFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evodex_subtree_fallback_total",
		Help: "Subtree crossovers that fell back to parent A, by reason",
	}, []string{"reason"})
)

func observe(operator string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	variationTotal.WithLabelValues(operator, result).Inc()
}
