package seating

import (
	"github.com/shopspring/decimal"
)

// MaxPerType caps the quantity of any single ticket category.
const MaxPerType = 8

// LineItem is one ticket category in the cart.
type LineItem struct {
	// ID identifies the slot in the cart.
	ID int
	// CategoryID is the backend category id sent with the transaction.
	CategoryID   int
	CategoryName string
	SectionKey   string
	UnitPrice    decimal.Decimal
	Quantity     int
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart holds the fixed pool of ticket categories for an event and the
// quantity chosen for each.
type Cart struct {
	items []LineItem
	index map[int]int
	limit int
}

// NewCart builds a cart with every quantity at zero. A SectionKey left empty
// is derived from the category name; an empty CategoryID defaults to ID.
func NewCart(items ...LineItem) *Cart {
	c := &Cart{
		items: make([]LineItem, 0, len(items)),
		index: make(map[int]int, len(items)),
	}
	for _, item := range items {
		if _, dup := c.index[item.ID]; dup {
			continue
		}
		if item.SectionKey == "" {
			item.SectionKey = item.CategoryName
		}
		item.SectionKey = NormalizeKey(item.SectionKey)
		if item.CategoryID == 0 {
			item.CategoryID = item.ID
		}
		item.Quantity = 0
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

// SetLimit caps the total ticket count across all categories. Zero removes
// the cap. Quantities above the new cap are not reduced.
func (c *Cart) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	c.limit = limit
}

func (c *Cart) Limit() int {
	return c.limit
}

func (c *Cart) Item(id int) (LineItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return LineItem{}, false
	}
	return c.items[i], true
}

// Increment adds one ticket. At the per-type or global cap it is a no-op.
func (c *Cart) Increment(id int) (LineItem, error) {
	item, ok := c.Item(id)
	if !ok {
		return LineItem{}, ErrUnknownCategory
	}
	return c.SetQuantity(id, item.Quantity+1)
}

// Decrement removes one ticket. At zero it is a no-op.
func (c *Cart) Decrement(id int) (LineItem, error) {
	item, ok := c.Item(id)
	if !ok {
		return LineItem{}, ErrUnknownCategory
	}
	if item.Quantity == 0 {
		return item, nil
	}
	return c.SetQuantity(id, item.Quantity-1)
}

// SetQuantity sets the quantity of a category, clamped to MaxPerType and to
// whatever remains under the global cap. Negative quantities are rejected.
func (c *Cart) SetQuantity(id, n int) (LineItem, error) {
	i, ok := c.index[id]
	if !ok {
		return LineItem{}, ErrUnknownCategory
	}
	if n < 0 {
		return c.items[i], &QuantityError{Quantity: n}
	}
	n = min(n, MaxPerType)
	if c.limit > 0 {
		others := c.TotalTicketCount() - c.items[i].Quantity
		n = max(min(n, c.limit-others), 0)
	}
	c.items[i].Quantity = n
	return c.items[i], nil
}

// Reset sets every quantity back to zero.
func (c *Cart) Reset() {
	for i := range c.items {
		c.items[i].Quantity = 0
	}
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) TotalTicketCount() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// CountForSection sums quantities of the categories mapped to key.
func (c *Cart) CountForSection(key string) int {
	key = NormalizeKey(key)
	n := 0
	for _, item := range c.items {
		if item.SectionKey == key {
			n += item.Quantity
		}
	}
	return n
}

// Sections returns the keys with at least one ticket, in category order.
func (c *Cart) Sections() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, item := range c.items {
		if item.Quantity > 0 && !seen[item.SectionKey] {
			seen[item.SectionKey] = true
			keys = append(keys, item.SectionKey)
		}
	}
	return keys
}

// AllSections returns every key the cart can route tickets to.
func (c *Cart) AllSections() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, item := range c.items {
		if !seen[item.SectionKey] {
			seen[item.SectionKey] = true
			keys = append(keys, item.SectionKey)
		}
	}
	return keys
}

func (c *Cart) LineItems() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Selected returns the line items with a positive quantity.
func (c *Cart) Selected() []LineItem {
	var out []LineItem
	for _, item := range c.items {
		if item.Quantity > 0 {
			out = append(out, item)
		}
	}
	return out
}
