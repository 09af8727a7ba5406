package domain

// Transaction is one (order, item) line of the purchase log.
//
// Rows sharing an OrderID share all order-level attributes. OrderNumber is
// 1-based and strictly increasing per user with no gaps. CartPos is the
// 1-based position the item was added to the basket, unique within an order.
//
// Narrow integer widths are deliberate: a full transaction log runs to
// millions of rows and is held entirely in memory.
type Transaction struct {
	OrderID     uint32
	UserID      uint32
	OrderNumber uint8
	ItemID      uint32
	IsReordered uint8
	DayOfWeek   uint8
	HourOfDay   uint8
	// DaysSincePrior is -1 for a user's first order ("unknown").
	DaysSincePrior int8
	CartPos        uint8

	// ReverseOrderIndex is derived during dataset assembly: 0 for the user's
	// most recent order, increasing further into the past.
	ReverseOrderIndex uint8

	// DaysUntilSameItem is derived during dataset assembly: days between this
	// purchase and the user's next purchase of the same item, or the
	// transaction's own days-until-target when no later purchase exists.
	DaysUntilSameItem float64
}

// Order is the order-level projection of the transaction log, one row per
// order, carrying the derived temporal columns.
type Order struct {
	OrderID        uint32
	UserID         uint32
	OrderNumber    uint8
	DayOfWeek      uint8
	HourOfDay      uint8
	DaysSincePrior int8

	ReverseOrderIndex uint8
	// DaysUntilLast is the calendar distance to the user's most recent order;
	// 0 for the most recent order itself.
	DaysUntilLast uint16
	// DaysUntilTarget estimates the distance to the user's next, unobserved
	// order: DaysUntilLast plus the user's median inter-order gap. NaN when
	// the user has no non-initial orders to estimate a gap from.
	DaysUntilTarget float64
}

// Product is the item metadata join target for feature extractors.
type Product struct {
	ItemID       uint32
	DepartmentID uint32
	AisleID      uint32
	Department   string
	Aisle        string
	Name         string
}

// UserItem is the fixed row key every feature column aligns to: one entry per
// unique (user, item) pair observed in the pre-target transactions.
type UserItem struct {
	UserID uint32
	ItemID uint32
}
