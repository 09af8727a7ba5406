package extractors

import (
	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// InTarget emits the label column: 1 when the (user, item) pair appears in
// the user's held-out target order, 0 otherwise. It is the only built-in
// extractor consuming the target transactions.
func InTarget(input features.Input) (*features.Table, error) {
	present := make(map[domain.UserItem]float64)
	for _, trn := range input.TargetTransactions {
		present[domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}] = 1
	}

	table := features.NewTable(input.Index)
	table.AddFromMap("ui_in_target", present, 0)
	return table, nil
}
