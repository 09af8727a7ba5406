// Package extractors holds the built-in feature extractor set.
//
// Extractors are contributed through an explicit registration list rather
// than runtime discovery; Exports returns them under namespaced names of the
// form "{group}.{feature}" in a fixed order.
package extractors

import (
	"math"
	"sort"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// neverObserved is the fill for delay-style features of pairs with no
// qualifying observation.
const neverObserved = 999

// Exports lists the built-in extractors in registration order.
func Exports() []features.Extractor {
	return []features.Extractor{
		{Name: "target.in_target", Fn: InTarget},
		{Name: "counts.freq", Fn: Freq},
		{Name: "counts.buy_counts", Fn: BuyCounts},
		{Name: "cartpos.avg_cart_pos", Fn: AvgCartPos},
		{Name: "delays.buy_delays", Fn: BuyDelays},
	}
}

// groupByPair collects transaction positions per (user, item) pair,
// preserving input order within each group.
func groupByPair(trns []domain.Transaction) map[domain.UserItem][]int {
	groups := make(map[domain.UserItem][]int)
	for i, trn := range trns {
		key := domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}
		groups[key] = append(groups[key], i)
	}
	return groups
}

// fillNaN replaces a NaN aggregate with the given fill value. Aggregates go
// NaN when a user's predicted gap could not be estimated; the fill keeps the
// feature matrix free of missing cells.
func fillNaN(value, fill float64) float64 {
	if math.IsNaN(value) {
		return fill
	}
	return value
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
