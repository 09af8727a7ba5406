package extractors

import (
	"math"

	"github.com/retailai/basketfeat/internal/features"
)

// BuyDelays emits repeat-purchase delay features derived from the
// days-until-same-item column:
//
//	ui_days_delay_max: longest the user has gone without rebuying the item.
//	ui_days_delay_mid: median days the user goes without rebuying the item.
//	i_days_delay_global_mid: median rebuy delay of the item across all users.
//	ui_days_passed: days since the user last bought the item, projected to
//	    target time.
//	ui_readiness_max: days passed beyond the user's longest delay. Positive
//	    means the user is overdue; negative means the user can likely go
//	    longer without the item.
//	ui_readiness_mid: days passed beyond the user's median delay.
//	ui_readiness_global_mid: days passed beyond the item's global median
//	    delay.
//	*_abs variants: absolute values; larger means a more unusual delay.
func BuyDelays(input features.Input) (*features.Table, error) {
	pairGroups := groupByPair(input.Transactions)

	itemDelays := make(map[uint32][]float64)
	for _, trn := range input.Transactions {
		if !math.IsNaN(trn.DaysUntilSameItem) {
			itemDelays[trn.ItemID] = append(itemDelays[trn.ItemID], trn.DaysUntilSameItem)
		}
	}
	itemGlobalMid := make(map[uint32]float64, len(itemDelays))
	for iid, delays := range itemDelays {
		itemGlobalMid[iid] = medianOf(delays)
	}

	n := len(input.Index)
	delayMax := make([]float64, n)
	delayMid := make([]float64, n)
	globalMid := make([]float64, n)
	daysPassed := make([]float64, n)
	readinessMax := make([]float64, n)
	readinessMaxAbs := make([]float64, n)
	readinessMid := make([]float64, n)
	readinessMidAbs := make([]float64, n)
	readinessGlobal := make([]float64, n)
	readinessGlobalAbs := make([]float64, n)

	for i, key := range input.Index {
		rows := pairGroups[key]

		pairMax := math.NaN()
		var pairDelays []float64
		passed := math.NaN()
		for _, idx := range rows {
			delay := input.Transactions[idx].DaysUntilSameItem
			if math.IsNaN(delay) {
				continue
			}
			pairDelays = append(pairDelays, delay)
			if math.IsNaN(pairMax) || delay > pairMax {
				pairMax = delay
			}
			// Last occurrence wins: its delay is the projected days since
			// the user's final purchase of the item.
			passed = delay
		}

		delayMax[i] = fillNaN(pairMax, neverObserved)
		delayMid[i] = fillNaN(medianOf(pairDelays), neverObserved)
		daysPassed[i] = fillNaN(passed, neverObserved)

		global, ok := itemGlobalMid[key.ItemID]
		if !ok {
			global = neverObserved
		}
		globalMid[i] = fillNaN(global, neverObserved)

		readinessMax[i] = daysPassed[i] - delayMax[i]
		readinessMaxAbs[i] = math.Abs(readinessMax[i])
		readinessMid[i] = daysPassed[i] - delayMid[i]
		readinessMidAbs[i] = math.Abs(readinessMid[i])
		readinessGlobal[i] = daysPassed[i] - globalMid[i]
		readinessGlobalAbs[i] = math.Abs(readinessGlobal[i])
	}

	table := features.NewTable(input.Index)
	_ = table.AddColumn("ui_days_delay_max", delayMax)
	_ = table.AddColumn("ui_days_delay_mid", delayMid)
	_ = table.AddColumn("i_days_delay_global_mid", globalMid)
	_ = table.AddColumn("ui_days_passed", daysPassed)
	_ = table.AddColumn("ui_readiness_max", readinessMax)
	_ = table.AddColumn("ui_readiness_max_abs", readinessMaxAbs)
	_ = table.AddColumn("ui_readiness_mid", readinessMid)
	_ = table.AddColumn("ui_readiness_mid_abs", readinessMidAbs)
	_ = table.AddColumn("ui_readiness_global_mid", readinessGlobal)
	_ = table.AddColumn("ui_readiness_global_mid_abs", readinessGlobalAbs)
	return table, nil
}
