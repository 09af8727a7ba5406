package dataset

import (
	"go.uber.org/zap"

	"github.com/retailai/basketfeat/internal/domain"
)

// Options controls dataset assembly.
type Options struct {
	// Train excises the most recent order per user into the target set so it
	// can serve as the supervised label source.
	Train bool
	// HistoryLimit keeps only orders with reverse index below the limit
	// (after the target split when Train is set). 0 means unlimited.
	HistoryLimit int
	Logger       *zap.Logger
}

// Dataset is the canonical, fully derived view of one transaction log.
//
// Transactions hold the past (pre-target) rows with ReverseOrderIndex and
// DaysUntilSameItem populated; Orders is the matching order-level projection
// with DaysUntilLast and DaysUntilTarget. TargetTransactions is empty unless
// the dataset was built with Train set.
type Dataset struct {
	Train bool

	Transactions       []domain.Transaction
	TargetTransactions []domain.Transaction
	Orders             []domain.Order
	Products           []domain.Product
}

// Build derives a Dataset from canonical transactions and products.
//
// The input must be ordered the way raw logs are shipped: rows grouped per
// user, orders in chronological progression, items in cart order. Steps:
// derive the order projection, assign reverse order indices, excise the
// target order per user (train only), apply the history limit, then join the
// temporal derivations back onto orders and transactions.
func Build(trns []domain.Transaction, products []domain.Product, opts Options) (*Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	orders := collectOrders(trns)
	reverseIdx, err := ReverseOrderIndex(orders)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].ReverseOrderIndex = reverseIdx[orders[i].OrderID]
	}
	for i := range trns {
		trns[i].ReverseOrderIndex = reverseIdx[trns[i].OrderID]
	}

	ds := &Dataset{Train: opts.Train, Products: products}
	if opts.Train {
		past, target := SplitTarget(trns)
		ds.Transactions = past
		ds.TargetTransactions = target
		ds.Orders = filterOrders(orders, past)

		// Every user contributed exactly one target order, so the index
		// within the past set is the full-history index shifted by one.
		for i := range ds.Transactions {
			ds.Transactions[i].ReverseOrderIndex--
		}
		for i := range ds.Orders {
			ds.Orders[i].ReverseOrderIndex--
		}
	} else {
		ds.Transactions = trns
		ds.Orders = orders
	}

	if opts.HistoryLimit > 0 {
		ds.Transactions = LimitHistory(ds.Transactions, opts.HistoryLimit)
		ds.Orders = filterOrders(ds.Orders, ds.Transactions)
	}

	untilLast := DaysUntilLast(ds.Orders)
	untilTarget := DaysUntilTarget(ds.Orders)
	for i := range ds.Orders {
		ds.Orders[i].DaysUntilLast = untilLast[ds.Orders[i].OrderID]
		ds.Orders[i].DaysUntilTarget = untilTarget[ds.Orders[i].OrderID]
	}

	sameItem := DaysUntilSameItem(ds.Transactions, untilTarget)
	for i := range ds.Transactions {
		ds.Transactions[i].DaysUntilSameItem = sameItem[i]
	}

	logger.Info("dataset assembled",
		zap.Bool("train", ds.Train),
		zap.Int("transactions", len(ds.Transactions)),
		zap.Int("target_transactions", len(ds.TargetTransactions)),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("products", len(ds.Products)))
	return ds, nil
}

// SplitTarget partitions transactions into past rows and the rows of each
// user's chronologically last order (reverse order index 0). The partition is
// disjoint and lossless.
func SplitTarget(trns []domain.Transaction) (past, target []domain.Transaction) {
	for _, trn := range trns {
		if trn.ReverseOrderIndex == 0 {
			target = append(target, trn)
		} else {
			past = append(past, trn)
		}
	}
	return past, target
}

// LimitHistory keeps only transactions whose order's reverse index is below
// maxOrders. A non-positive limit is a no-op.
func LimitHistory(trns []domain.Transaction, maxOrders int) []domain.Transaction {
	if maxOrders <= 0 {
		return trns
	}
	kept := make([]domain.Transaction, 0, len(trns))
	for _, trn := range trns {
		if int(trn.ReverseOrderIndex) < maxOrders {
			kept = append(kept, trn)
		}
	}
	return kept
}

// UserItemIndex returns the fixed (user, item) key set: every unique pair
// observed in the past transactions, in first-seen order. The ordering is
// deterministic given the input table; every feature column aligns to it.
func (d *Dataset) UserItemIndex() []domain.UserItem {
	seen := make(map[domain.UserItem]bool)
	index := make([]domain.UserItem, 0)
	for _, trn := range d.Transactions {
		key := domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}
		if seen[key] {
			continue
		}
		seen[key] = true
		index = append(index, key)
	}
	return index
}

// collectOrders projects transactions onto one row per order, preserving
// first-seen order.
func collectOrders(trns []domain.Transaction) []domain.Order {
	seen := make(map[uint32]bool)
	orders := make([]domain.Order, 0)
	for _, trn := range trns {
		if seen[trn.OrderID] {
			continue
		}
		seen[trn.OrderID] = true
		orders = append(orders, domain.Order{
			OrderID:        trn.OrderID,
			UserID:         trn.UserID,
			OrderNumber:    trn.OrderNumber,
			DayOfWeek:      trn.DayOfWeek,
			HourOfDay:      trn.HourOfDay,
			DaysSincePrior: trn.DaysSincePrior,
		})
	}
	return orders
}

// filterOrders keeps orders still referenced by at least one transaction.
func filterOrders(orders []domain.Order, trns []domain.Transaction) []domain.Order {
	referenced := make(map[uint32]bool, len(trns))
	for _, trn := range trns {
		referenced[trn.OrderID] = true
	}
	kept := make([]domain.Order, 0, len(orders))
	for _, ord := range orders {
		if referenced[ord.OrderID] {
			kept = append(kept, ord)
		}
	}
	return kept
}
