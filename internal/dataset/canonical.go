// Package dataset turns raw transaction tables into the canonical in-memory
// representation used by feature extraction: narrow-typed transaction rows,
// the order-level projection with derived temporal columns, and the held-out
// target split for supervised labels.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/ingestion"
)

// Raw transaction column names mapped to their canonical names.
var transactionColumnNames = map[string]string{
	"order_id":               "order_id",
	"user_id":                "uid",
	"order_number":           "order_n",
	"product_id":             "iid",
	"reordered":              "is_reordered",
	"order_dow":              "order_dow",
	"order_hour_of_day":      "order_hour_of_day",
	"days_since_prior_order": "days_since_prior_order",
	"add_to_cart_order":      "cart_pos",
}

// requiredTransactionColumns lists canonical columns in schema order.
var requiredTransactionColumns = []string{
	"order_id",
	"uid",
	"order_n",
	"iid",
	"is_reordered",
	"order_dow",
	"order_hour_of_day",
	"days_since_prior_order",
	"cart_pos",
}

// SchemaError reports required canonical columns missing from a raw table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns in raw table: %s",
		strings.Join(e.Missing, ", "))
}

// CanonicalizeTransactions converts a raw transactions table into canonical
// transaction rows.
//
// Raw columns are renamed to canonical names, required (non-excluded)
// columns are validated, values are cast to fixed-width integers and
// unrecognized raw columns are dropped. Missing days_since_prior_order
// values map to the -1 sentinel. excludeColumns holds canonical names whose
// absence is tolerated; excluded columns are left zero-valued.
func CanonicalizeTransactions(raw ingestion.RawTable, excludeColumns []string) ([]domain.Transaction, error) {
	excluded := make(map[string]bool, len(excludeColumns))
	for _, name := range excludeColumns {
		excluded[name] = true
	}

	position := make(map[string]int, len(raw.Headers))
	for i, header := range raw.Headers {
		if canonical, ok := transactionColumnNames[header]; ok {
			position[canonical] = i
		}
	}

	var missing []string
	for _, name := range requiredTransactionColumns {
		if excluded[name] {
			continue
		}
		if _, ok := position[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	transactions := make([]domain.Transaction, 0, len(raw.Rows))
	for rowNum, row := range raw.Rows {
		trn, err := parseTransactionRow(row, position)
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: %w", rowNum+1, err)
		}
		transactions = append(transactions, trn)
	}
	return transactions, nil
}

func parseTransactionRow(row []string, position map[string]int) (domain.Transaction, error) {
	var trn domain.Transaction
	var err error

	if trn.OrderID, err = cellUint32(row, position, "order_id"); err != nil {
		return trn, err
	}
	if trn.UserID, err = cellUint32(row, position, "uid"); err != nil {
		return trn, err
	}
	if trn.OrderNumber, err = cellUint8(row, position, "order_n"); err != nil {
		return trn, err
	}
	if trn.ItemID, err = cellUint32(row, position, "iid"); err != nil {
		return trn, err
	}
	if trn.IsReordered, err = cellUint8(row, position, "is_reordered"); err != nil {
		return trn, err
	}
	if trn.DayOfWeek, err = cellUint8(row, position, "order_dow"); err != nil {
		return trn, err
	}
	if trn.HourOfDay, err = cellUint8(row, position, "order_hour_of_day"); err != nil {
		return trn, err
	}
	if trn.CartPos, err = cellUint8(row, position, "cart_pos"); err != nil {
		return trn, err
	}

	// The first order of a user has no prior order; the raw cell is empty
	// and maps to the -1 sentinel.
	if idx, ok := position["days_since_prior_order"]; ok {
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			trn.DaysSincePrior = -1
		} else {
			value, err := parseNumericCell(cell)
			if err != nil {
				return trn, fmt.Errorf("column days_since_prior_order: %w", err)
			}
			trn.DaysSincePrior = int8(value)
		}
	}
	return trn, nil
}

func cellUint32(row []string, position map[string]int, name string) (uint32, error) {
	idx, ok := position[name]
	if !ok {
		return 0, nil // excluded column
	}
	value, err := parseNumericCell(row[idx])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return uint32(value), nil
}

func cellUint8(row []string, position map[string]int, name string) (uint8, error) {
	idx, ok := position[name]
	if !ok {
		return 0, nil
	}
	value, err := parseNumericCell(row[idx])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return uint8(value), nil
}

// parseNumericCell accepts integer cells as well as float-formatted integers
// ("1.0"), which appear in csv exports of the raw data.
func parseNumericCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, fmt.Errorf("empty numeric cell")
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric cell %q", cell)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid numeric cell %q", cell)
	}
	return value, nil
}

// Raw product column names mapped to their canonical names.
var productColumnNames = map[string]string{
	"product_id":    "iid",
	"department_id": "dept_id",
	"aisle_id":      "aisle_id",
	"department":    "dept",
	"aisle":         "aisle",
	"product_name":  "product",
}

var requiredProductColumns = []string{"iid", "dept_id", "aisle_id", "dept", "aisle", "product"}

// CanonicalizeProducts converts a raw products table into canonical product
// rows.
func CanonicalizeProducts(raw ingestion.RawTable) ([]domain.Product, error) {
	position := make(map[string]int, len(raw.Headers))
	for i, header := range raw.Headers {
		if canonical, ok := productColumnNames[header]; ok {
			position[canonical] = i
		}
	}

	var missing []string
	for _, name := range requiredProductColumns {
		if _, ok := position[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	products := make([]domain.Product, 0, len(raw.Rows))
	for rowNum, row := range raw.Rows {
		var prod domain.Product

		id, err := parseNumericCell(row[position["iid"]])
		if err != nil {
			return nil, fmt.Errorf("products row %d: column iid: %w", rowNum+1, err)
		}
		prod.ItemID = uint32(id)

		id, err = parseNumericCell(row[position["dept_id"]])
		if err != nil {
			return nil, fmt.Errorf("products row %d: column dept_id: %w", rowNum+1, err)
		}
		prod.DepartmentID = uint32(id)

		id, err = parseNumericCell(row[position["aisle_id"]])
		if err != nil {
			return nil, fmt.Errorf("products row %d: column aisle_id: %w", rowNum+1, err)
		}
		prod.AisleID = uint32(id)

		prod.Department = strings.TrimSpace(row[position["dept"]])
		prod.Aisle = strings.TrimSpace(row[position["aisle"]])
		prod.Name = strings.TrimSpace(row[position["product"]])

		products = append(products, prod)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].ItemID < products[j].ItemID
	})
	return products, nil
}
