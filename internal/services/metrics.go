package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CartMutationsTotal counts AddToCart/RemoveFromCart calls by outcome.
	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_cart_mutations_total",
			Help: "Shopping cart mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	RelationMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_mutations_total",
			Help: "Follow and favorite mutations by kind, operation and result",
		},
		[]string{"kind", "op", "result"},
	)

	// AggregateConsistencyErrorsTotal should stay at zero; any increase means a
	// shopping list drifted from its cart and needs reconciling.
	AggregateConsistencyErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_aggregate_consistency_errors_total",
			Help: "Shopping list decrements that found a missing or too small entry",
		},
		[]string{"op"},
	)

	StoreRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_store_retries_total",
			Help: "Transactions retried after a store conflict",
		},
		[]string{"op"},
	)
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateRelation):
		return "duplicate"
	case errors.Is(err, ErrRelationNotFound):
		return "absent"
	case errors.Is(err, ErrEntityNotFound):
		return "not_found"
	case errors.Is(err, ErrAggregateConsistency):
		return "inconsistent"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
