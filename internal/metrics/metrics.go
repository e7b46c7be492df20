// Package metrics provides Prometheus metrics for the geneset service core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VersionCommitsTotal tracks versions appended to lineages
	VersionCommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geneset",
			Subsystem: "versions",
			Name:      "commits_total",
			Help:      "Total number of versions committed",
		},
	)

	// ForksTotal tracks lineage copies between genesets
	ForksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geneset",
			Subsystem: "versions",
			Name:      "forks_total",
			Help:      "Total number of fork operations",
		},
	)

	// ForkChainDepth tracks how much history each fork carries over
	ForkChainDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "geneset",
			Subsystem: "versions",
			Name:      "fork_chain_depth",
			Help:      "Number of versions copied per fork",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// GenesResolvedTotal tracks identifier resolution outcomes
	GenesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geneset",
			Subsystem: "annotations",
			Name:      "genes_resolved_total",
			Help:      "Total number of gene identifier resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// PublicationsHydratedTotal tracks bibliographic hydration outcomes
	PublicationsHydratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geneset",
			Subsystem: "publications",
			Name:      "hydrated_total",
			Help:      "Total number of publication hydrations by outcome",
		},
		[]string{"outcome"},
	)

	// SharesGrantedTotal tracks edit grants on genesets
	SharesGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geneset",
			Subsystem: "access",
			Name:      "shares_granted_total",
			Help:      "Total number of share grants",
		},
	)
)

// Resolution outcome label values.
const (
	OutcomeResolved  = "resolved"
	OutcomeNotFound  = "not_found"
	OutcomeAmbiguous = "ambiguous"
)

// Hydration outcome label values.
const (
	OutcomeLoaded = "loaded"
	OutcomeFailed = "failed"
	OutcomeStub   = "stub"
)
