package extractors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// fixtureInput covers two users and three items. User 1 bought item 10 in
// three of four orders and item 20 once; user 2 bought item 10 twice. Pair
// (2, 30) is in the index but has no past purchases.
func fixtureInput() features.Input {
	return features.Input{
		Index: []domain.UserItem{
			{UserID: 1, ItemID: 10},
			{UserID: 1, ItemID: 20},
			{UserID: 2, ItemID: 10},
			{UserID: 2, ItemID: 30},
		},
		Transactions: []domain.Transaction{
			{OrderID: 2, UserID: 1, ReverseOrderIndex: 3, ItemID: 10, CartPos: 1, DaysUntilSameItem: 6},
			{OrderID: 3, UserID: 1, ReverseOrderIndex: 2, ItemID: 10, CartPos: 2, DaysUntilSameItem: 2},
			{OrderID: 3, UserID: 1, ReverseOrderIndex: 2, ItemID: 20, CartPos: 3, DaysUntilSameItem: 5},
			{OrderID: 5, UserID: 1, ReverseOrderIndex: 0, ItemID: 10, CartPos: 1, DaysUntilSameItem: 3},
			{OrderID: 8, UserID: 2, ReverseOrderIndex: 1, ItemID: 10, CartPos: 1, DaysUntilSameItem: 4},
			{OrderID: 10, UserID: 2, ReverseOrderIndex: 0, ItemID: 10, CartPos: 2, DaysUntilSameItem: 1},
		},
		TargetTransactions: []domain.Transaction{
			{OrderID: 6, UserID: 1, ItemID: 10},
			{OrderID: 6, UserID: 1, ItemID: 30},
			{OrderID: 11, UserID: 2, ItemID: 30},
		},
	}
}

func columnOf(t *testing.T, table *features.Table, name string) []float64 {
	t.Helper()
	values, ok := table.Column(name)
	require.True(t, ok, "missing column %q", name)
	return values
}

func TestInTarget(t *testing.T) {
	table, err := InTarget(fixtureInput())
	require.NoError(t, err)

	// (1,10) rebought, (2,30) newly bought, the rest absent from the target.
	assert.Equal(t, []float64{1, 0, 0, 1}, columnOf(t, table, "ui_in_target"))
}

func TestFreq(t *testing.T) {
	table, err := Freq(fixtureInput())
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 1, 2, 0}, columnOf(t, table, "freq"))
}

func TestBuyCounts(t *testing.T) {
	table, err := BuyCounts(fixtureInput())
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 4, 2, 2}, columnOf(t, table, "n_orders"))
	assert.Equal(t, []float64{4, 3, 2, 0}, columnOf(t, table, "n_chances"))
	assert.Equal(t, []float64{3, 1, 2, 0}, columnOf(t, table, "total_buy"))
	assert.Equal(t, []float64{0.75, 0.25, 1, 0}, columnOf(t, table, "total_buy_ratio"))
	assert.Equal(t, []float64{0.75, 1.0 / 3, 1, 0}, columnOf(t, table, "chance_buy_ratio"))
}

func TestAvgCartPos(t *testing.T) {
	table, err := AvgCartPos(fixtureInput())
	require.NoError(t, err)

	want := []float64{(1.0 + 2 + 1) / 3, 3, 1.5, neverObserved}
	assert.Equal(t, want, columnOf(t, table, "ui_avg_cart_pos"))
}

func TestBuyDelays(t *testing.T) {
	table, err := BuyDelays(fixtureInput())
	require.NoError(t, err)

	// Pair (1,10): delays [6,2,3], last one is the projected days passed.
	// Item 10 delays across users: [6,2,3,4,1], global median 3.
	assert.Equal(t, []float64{6, 5, 4, neverObserved},
		columnOf(t, table, "ui_days_delay_max"))
	assert.Equal(t, []float64{3, 5, 2.5, neverObserved},
		columnOf(t, table, "ui_days_delay_mid"))
	assert.Equal(t, []float64{3, 5, 3, neverObserved},
		columnOf(t, table, "i_days_delay_global_mid"))
	assert.Equal(t, []float64{3, 5, 1, neverObserved},
		columnOf(t, table, "ui_days_passed"))

	assert.Equal(t, []float64{-3, 0, -3, 0},
		columnOf(t, table, "ui_readiness_max"))
	assert.Equal(t, []float64{3, 0, 3, 0},
		columnOf(t, table, "ui_readiness_max_abs"))
	assert.Equal(t, []float64{0, 0, -1.5, 0},
		columnOf(t, table, "ui_readiness_mid"))
	assert.Equal(t, []float64{0, 0, -2, 0},
		columnOf(t, table, "ui_readiness_global_mid"))
}

func TestBuyDelays_UnestimableGap(t *testing.T) {
	input := features.Input{
		Index: []domain.UserItem{{UserID: 7, ItemID: 10}},
		Transactions: []domain.Transaction{
			{OrderID: 1, UserID: 7, ReverseOrderIndex: 0, ItemID: 10,
				CartPos: 1, DaysUntilSameItem: math.NaN()},
		},
	}

	table, err := BuyDelays(input)
	require.NoError(t, err)

	// A single purchase with an unestimable gap produces only fills; the
	// readiness differences collapse to zero.
	assert.Equal(t, []float64{neverObserved}, columnOf(t, table, "ui_days_delay_max"))
	assert.Equal(t, []float64{neverObserved}, columnOf(t, table, "ui_days_passed"))
	assert.Equal(t, []float64{neverObserved}, columnOf(t, table, "i_days_delay_global_mid"))
	assert.Equal(t, []float64{0}, columnOf(t, table, "ui_readiness_max"))
}

func TestExports_OrderAndNames(t *testing.T) {
	exports := Exports()
	names := make([]string, len(exports))
	for i, ext := range exports {
		names[i] = ext.Name
	}
	assert.Equal(t, []string{
		"target.in_target",
		"counts.freq",
		"counts.buy_counts",
		"cartpos.avg_cart_pos",
		"delays.buy_delays",
	}, names)
}
