package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/ingestion"
)

func rawTransactionsTable() ingestion.RawTable {
	return ingestion.RawTable{
		Headers: []string{"order_id", "user_id", "order_number", "order_dow",
			"order_hour_of_day", "days_since_prior_order", "product_id",
			"add_to_cart_order", "reordered"},
		Rows: [][]string{
			{"2539329", "1", "1", "2", "8", "", "196", "1.0", "0.0"},
			{"2539329", "1", "1", "2", "8", "0", "14084", "2.0", "0.0"},
		},
	}
}

func TestCanonicalizeTransactions(t *testing.T) {
	trns, err := CanonicalizeTransactions(rawTransactionsTable(), nil)
	require.NoError(t, err)
	require.Len(t, trns, 2)

	assert.Equal(t, domain.Transaction{
		OrderID:        2539329,
		UserID:         1,
		OrderNumber:    1,
		ItemID:         196,
		IsReordered:    0,
		DayOfWeek:      2,
		HourOfDay:      8,
		DaysSincePrior: -1, // empty raw cell maps to the sentinel
		CartPos:        1,
	}, trns[0])
	assert.Equal(t, int8(0), trns[1].DaysSincePrior)
	assert.Equal(t, uint32(14084), trns[1].ItemID)
}

func TestCanonicalizeTransactions_ExtraColumnsDropped(t *testing.T) {
	raw := rawTransactionsTable()
	raw.Headers = append(raw.Headers, "extra_col")
	for i := range raw.Rows {
		raw.Rows[i] = append(raw.Rows[i], "0")
	}

	trns, err := CanonicalizeTransactions(raw, nil)
	require.NoError(t, err)
	assert.Len(t, trns, 2)
}

func TestCanonicalizeTransactions_MissingColumn(t *testing.T) {
	raw := rawTransactionsTable()
	raw.Headers = raw.Headers[:len(raw.Headers)-1] // drop "reordered"
	for i := range raw.Rows {
		raw.Rows[i] = raw.Rows[i][:len(raw.Rows[i])-1]
	}

	_, err := CanonicalizeTransactions(raw, nil)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"is_reordered"}, schemaErr.Missing)
	assert.Contains(t, schemaErr.Error(), "is_reordered")
}

func TestCanonicalizeTransactions_MissingColumnExcluded(t *testing.T) {
	raw := rawTransactionsTable()
	raw.Headers = raw.Headers[:len(raw.Headers)-1]
	for i := range raw.Rows {
		raw.Rows[i] = raw.Rows[i][:len(raw.Rows[i])-1]
	}

	trns, err := CanonicalizeTransactions(raw, []string{"is_reordered"})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), trns[0].IsReordered)
}

func TestCanonicalizeTransactions_InvalidCell(t *testing.T) {
	raw := rawTransactionsTable()
	raw.Rows[1][0] = "not-a-number"

	_, err := CanonicalizeTransactions(raw, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_id")
	assert.Contains(t, err.Error(), "row 2")
}

func TestCanonicalizeProducts(t *testing.T) {
	raw := ingestion.RawTable{
		Headers: []string{"product_id", "product_name", "aisle_id", "department_id", "aisle", "department"},
		Rows: [][]string{
			{"49688", "Fresh Foaming Cleanser", "73", "11", "facial care", "personal care"},
			{"33120", "Organic Egg Whites", "86", "16", "eggs", "dairy eggs"},
		},
	}

	products, err := CanonicalizeProducts(raw)
	require.NoError(t, err)
	require.Len(t, products, 2)

	// Sorted by item id.
	assert.Equal(t, domain.Product{
		ItemID:       33120,
		DepartmentID: 16,
		AisleID:      86,
		Department:   "dairy eggs",
		Aisle:        "eggs",
		Name:         "Organic Egg Whites",
	}, products[0])
	assert.Equal(t, uint32(49688), products[1].ItemID)
}

func TestCanonicalizeProducts_MissingColumn(t *testing.T) {
	raw := ingestion.RawTable{
		Headers: []string{"product_id", "aisle_id", "department_id"},
		Rows:    [][]string{{"1", "2", "3"}},
	}

	_, err := CanonicalizeProducts(raw)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t, []string{"dept", "aisle", "product"}, schemaErr.Missing)
}
