// Package recommend assembles final next-basket recommendations from ranked
// model output, padding sparse users with popular items.
package recommend

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/retailai/basketfeat/internal/domain"
)

// MaxItems caps the number of recommended items per user.
const MaxItems = 10

const fallbackGroupSize = 3

// Prediction is one user's ranked item list, best first.
type Prediction struct {
	UserID uint32
	Items  []uint32
}

// PopularityFallback pads short recommendation lists: first with the top
// sellers of the lead item's aisle, then of its department, finally with the
// global best sellers.
type PopularityFallback struct {
	products  map[uint32]domain.Product
	aisleTop  map[uint32][]uint32
	deptTop   map[uint32][]uint32
	globalTop []uint32
}

// NewPopularityFallback derives popularity rankings from the transaction log
// and product metadata.
func NewPopularityFallback(trns []domain.Transaction, products []domain.Product) *PopularityFallback {
	counts := make(map[uint32]int)
	for _, trn := range trns {
		counts[trn.ItemID]++
	}

	byProduct := make(map[uint32]domain.Product, len(products))
	aisleItems := make(map[uint32][]uint32)
	deptItems := make(map[uint32][]uint32)
	var allItems []uint32
	for _, prod := range products {
		byProduct[prod.ItemID] = prod
		if counts[prod.ItemID] == 0 {
			continue
		}
		aisleItems[prod.AisleID] = append(aisleItems[prod.AisleID], prod.ItemID)
		deptItems[prod.DepartmentID] = append(deptItems[prod.DepartmentID], prod.ItemID)
		allItems = append(allItems, prod.ItemID)
	}

	fallback := &PopularityFallback{
		products: byProduct,
		aisleTop: make(map[uint32][]uint32, len(aisleItems)),
		deptTop:  make(map[uint32][]uint32, len(deptItems)),
	}
	for aisle, items := range aisleItems {
		fallback.aisleTop[aisle] = topN(items, counts, fallbackGroupSize)
	}
	for dept, items := range deptItems {
		fallback.deptTop[dept] = topN(items, counts, fallbackGroupSize)
	}
	fallback.globalTop = topN(allItems, counts, MaxItems)
	return fallback
}

// Extend pads a ranked item list to MaxItems using the fallback hierarchy
// and returns at most MaxItems de-duplicated items.
func (f *PopularityFallback) Extend(items []uint32) []uint32 {
	extended := dropDuplicates(items)
	if len(extended) < MaxItems && len(extended) > 0 {
		if lead, ok := f.products[extended[0]]; ok {
			extended = dropDuplicates(append(extended, f.aisleTop[lead.AisleID]...))
			if len(extended) < MaxItems {
				extended = dropDuplicates(append(extended, f.deptTop[lead.DepartmentID]...))
			}
		}
	}
	if len(extended) < MaxItems {
		extended = dropDuplicates(append(extended, f.globalTop...))
	}
	if len(extended) > MaxItems {
		extended = extended[:MaxItems]
	}
	return extended
}

// WriteCSV writes predictions as "user_id,product_id" rows, item ids space
// separated. A nil fallback writes the ranked lists as-is, capped.
func WriteCSV(w io.Writer, predictions []Prediction, fallback *PopularityFallback) error {
	if _, err := io.WriteString(w, "user_id,product_id\n"); err != nil {
		return fmt.Errorf("failed to write predictions header: %w", err)
	}
	for _, pred := range predictions {
		items := pred.Items
		if fallback != nil {
			items = fallback.Extend(items)
		} else if len(items) > MaxItems {
			items = items[:MaxItems]
		}

		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = strconv.FormatUint(uint64(item), 10)
		}
		row := fmt.Sprintf("%d,%s\n", pred.UserID, strings.Join(parts, " "))
		if _, err := io.WriteString(w, row); err != nil {
			return fmt.Errorf("failed to write prediction row: %w", err)
		}
	}
	return nil
}

// topN returns the n most purchased items, most popular first. Ties resolve
// by item id so the ranking is deterministic.
func topN(items []uint32, counts map[uint32]int, n int) []uint32 {
	ranked := make([]uint32, len(items))
	copy(ranked, items)
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func dropDuplicates(items []uint32) []uint32 {
	seen := make(map[uint32]bool, len(items))
	out := make([]uint32, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
