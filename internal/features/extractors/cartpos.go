package extractors

import (
	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// AvgCartPos emits the item's mean 1-based cart position across the user's
// purchases. Pairs the user never bought get the never-observed fill.
func AvgCartPos(input features.Input) (*features.Table, error) {
	sums := make(map[domain.UserItem]float64)
	counts := make(map[domain.UserItem]float64)
	for _, trn := range input.Transactions {
		key := domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}
		sums[key] += float64(trn.CartPos)
		counts[key]++
	}

	means := make(map[domain.UserItem]float64, len(sums))
	for key, sum := range sums {
		means[key] = sum / counts[key]
	}

	table := features.NewTable(input.Index)
	table.AddFromMap("ui_avg_cart_pos", means, neverObserved)
	return table, nil
}
