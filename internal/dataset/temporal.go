package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/retailai/basketfeat/internal/domain"
)

// ErrInvalidInput reports order rows that violate the one-row-per-order
// contract of the temporal derivations.
type ErrInvalidInput struct {
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	return "invalid input: " + e.Reason
}

// maxGapOrders bounds the per-user gap median to the most recent qualifying
// orders.
const maxGapOrders = 15

// ReverseOrderIndex assigns each order its 0-based distance from the user's
// most recent order: 0 for the newest, N-1 for the oldest of a user with N
// orders.
//
// Input must contain one row per order, rows grouped per user in
// chronological order (oldest first). A duplicated order id fails the call;
// callers must de-duplicate transaction rows to one row per order first.
func ReverseOrderIndex(orders []domain.Order) (map[uint32]uint8, error) {
	counts := make(map[uint32]int)
	seen := make(map[uint32]bool, len(orders))
	for _, ord := range orders {
		if seen[ord.OrderID] {
			return nil, &ErrInvalidInput{
				Reason: fmt.Sprintf("duplicate order id %d", ord.OrderID),
			}
		}
		seen[ord.OrderID] = true
		counts[ord.UserID]++
	}

	index := make(map[uint32]uint8, len(orders))
	assigned := make(map[uint32]int, len(counts))
	for _, ord := range orders {
		position := assigned[ord.UserID]
		index[ord.OrderID] = uint8(counts[ord.UserID] - 1 - position)
		assigned[ord.UserID] = position + 1
	}
	return index, nil
}

// DaysUntilLast computes, per order, the calendar distance to the user's most
// recent order: the sum of days-since-prior of all later orders of the same
// user. The most recent order is always 0. The -1 sentinel contributes 0.
//
// Input contract matches ReverseOrderIndex: one row per order, grouped per
// user, oldest first.
func DaysUntilLast(orders []domain.Order) map[uint32]uint16 {
	result := make(map[uint32]uint16, len(orders))
	for _, rows := range groupByUser(orders) {
		acc := uint16(0)
		for i := len(rows) - 1; i >= 0; i-- {
			result[rows[i].OrderID] = acc
			if rows[i].DaysSincePrior > 0 {
				acc += uint16(rows[i].DaysSincePrior)
			}
		}
	}
	return result
}

// PredictedGap estimates each user's inter-order cadence: the median of
// days-since-prior over the user's non-initial orders, restricted to at most
// the 15 most recent qualifying orders. Users with no qualifying orders get
// NaN; consumers must treat that as "unknown gap", never drop the user.
func PredictedGap(orders []domain.Order) map[uint32]float64 {
	gaps := make(map[uint32][]float64)
	for _, ord := range orders {
		if ord.DaysSincePrior == -1 {
			continue
		}
		gaps[ord.UserID] = append(gaps[ord.UserID], float64(ord.DaysSincePrior))
	}

	result := make(map[uint32]float64, len(gaps))
	for uid, values := range gaps {
		if len(values) > maxGapOrders {
			values = values[len(values)-maxGapOrders:]
		}
		result[uid] = median(values)
	}
	return result
}

// DaysUntilTarget predicts, per order, the distance in days to the user's
// next (unobserved) order: DaysUntilLast plus the user's predicted gap. NaN
// for users whose gap cannot be estimated.
func DaysUntilTarget(orders []domain.Order) map[uint32]float64 {
	untilLast := DaysUntilLast(orders)
	gap := PredictedGap(orders)

	result := make(map[uint32]float64, len(orders))
	for _, ord := range orders {
		userGap, ok := gap[ord.UserID]
		if !ok {
			userGap = math.NaN()
		}
		result[ord.OrderID] = float64(untilLast[ord.OrderID]) + userGap
	}
	return result
}

// DaysUntilSameItem computes, per transaction, the gap in days-until-target
// between this purchase and the user's next purchase of the same item. The
// last purchase of an item keeps its own days-until-target, representing
// "still unresolved as of target time".
//
// Transactions must be in chronological order per user; daysUntilTarget is
// keyed by order id. The result aligns positionally with trns.
func DaysUntilSameItem(trns []domain.Transaction, daysUntilTarget map[uint32]float64) []float64 {
	groups := make(map[domain.UserItem][]int)
	for i, trn := range trns {
		key := domain.UserItem{UserID: trn.UserID, ItemID: trn.ItemID}
		groups[key] = append(groups[key], i)
	}

	result := make([]float64, len(trns))
	for _, rows := range groups {
		for k, idx := range rows {
			current := daysUntilTarget[trns[idx].OrderID]
			if k == len(rows)-1 {
				result[idx] = current
				continue
			}
			next := daysUntilTarget[trns[rows[k+1]].OrderID]
			result[idx] = current - next
		}
	}
	return result
}

func groupByUser(orders []domain.Order) map[uint32][]domain.Order {
	groups := make(map[uint32][]domain.Order)
	for _, ord := range orders {
		groups[ord.UserID] = append(groups[ord.UserID], ord)
	}
	return groups
}

func median(values []float64) float64 {
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
