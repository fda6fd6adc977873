package match

import (
	"fmt"
	"strings"
)

// Trade is the result of one aggressive order matching against the book.
//
// Fills are the passive slices in the order they were matched, each carrying
// the resting order's id, side, price and the quantity filled. Aggressor is
// the slice of the inbound order that traded; its quantity equals TotalQuantity.
type Trade struct {
	TotalQuantity int64
	Fills         []*Order
	Aggressor     *Order
}

func newTrade() *Trade {
	return &Trade{}
}

func (t *Trade) addFill(order *Order) {
	t.Fills = append(t.Fills, order)
	t.TotalQuantity += order.Quantity
}

func (t *Trade) merge(other *Trade) {
	t.Fills = append(t.Fills, other.Fills...)
	t.TotalQuantity += other.TotalQuantity
}

func (t *Trade) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trade [quantity=%d", t.TotalQuantity)
	if t.Aggressor != nil {
		fmt.Fprintf(&sb, ", aggressor=%d", t.Aggressor.ID)
	}
	for _, fill := range t.Fills {
		fmt.Fprintf(&sb, ", %d@%s from %d", fill.Quantity, fill.Price, fill.ID)
	}
	sb.WriteString("]")
	return sb.String()
}
