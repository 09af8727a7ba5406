package extractors

import (
	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// Freq counts how many times the user has purchased the item.
func Freq(input features.Input) (*features.Table, error) {
	counts := make(map[domain.UserItem]float64)
	for _, trn := range input.Transactions {
		counts[domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}]++
	}

	table := features.NewTable(input.Index)
	table.AddFromMap("freq", counts, 0)
	return table, nil
}

// BuyCounts emits order-count features per (user, item) pair:
//
//	n_orders: total number of orders made by the user.
//	n_chances: orders in which the user had a chance to rebuy the item, i.e.
//	    orders from the first purchase of the item onwards.
//	total_buy: times the user bought the item.
//	total_buy_ratio: total_buy / n_orders.
//	chance_buy_ratio: total_buy / n_chances.
func BuyCounts(input features.Input) (*features.Table, error) {
	// The oldest transaction's 1-based reverse order number equals the
	// user's total order count.
	nOrders := make(map[uint32]float64)
	for _, trn := range input.Transactions {
		reverseNum := float64(trn.ReverseOrderIndex) + 1
		if reverseNum > nOrders[trn.UserID] {
			nOrders[trn.UserID] = reverseNum
		}
	}

	nChances := make(map[domain.UserItem]float64)
	totalBuy := make(map[domain.UserItem]float64)
	for _, trn := range input.Transactions {
		key := domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}
		totalBuy[key]++
		reverseNum := float64(trn.ReverseOrderIndex) + 1
		if reverseNum > nChances[key] {
			nChances[key] = reverseNum
		}
	}

	table := features.NewTable(input.Index)

	nOrdersCol := make([]float64, len(input.Index))
	nChancesCol := make([]float64, len(input.Index))
	totalBuyCol := make([]float64, len(input.Index))
	totalRatioCol := make([]float64, len(input.Index))
	chanceRatioCol := make([]float64, len(input.Index))

	for i, key := range input.Index {
		nOrdersCol[i] = nOrders[key.UserID]
		nChancesCol[i] = nChances[key]
		totalBuyCol[i] = totalBuy[key]
		totalRatioCol[i] = safeRatio(totalBuyCol[i], nOrdersCol[i])
		chanceRatioCol[i] = safeRatio(totalBuyCol[i], nChancesCol[i])
	}

	_ = table.AddColumn("n_orders", nOrdersCol)
	_ = table.AddColumn("n_chances", nChancesCol)
	_ = table.AddColumn("total_buy", totalBuyCol)
	_ = table.AddColumn("total_buy_ratio", totalRatioCol)
	_ = table.AddColumn("chance_buy_ratio", chanceRatioCol)
	return table, nil
}

func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
