package seating

import (
	"github.com/shopspring/decimal"

	"taquilla-cli/model"
)

// SeatPick is a selected seat, 0-based, within the section identified by SectionKey.
type SeatPick struct {
	SectionKey string
	Row        int
	Col        int
}

func (p SeatPick) Seat() Seat {
	return Seat{Row: p.Row, Col: p.Col}
}

func (p SeatPick) Wire() model.WireSeat {
	return p.Seat().Wire()
}

// PurchaseIntent is the confirmed content of a purchase.
type PurchaseIntent struct {
	LineItems []LineItem
	SeatPicks []SeatPick
	Total     decimal.Decimal
	Sections  []string
}

// TicketCount sums the quantities of the intent's line items.
func (p PurchaseIntent) TicketCount() int {
	n := 0
	for _, item := range p.LineItems {
		n += item.Quantity
	}
	return n
}

func newIntent(cart *Cart, picks []SeatPick) PurchaseIntent {
	intent := PurchaseIntent{
		LineItems: cart.Selected(),
		SeatPicks: append([]SeatPick(nil), picks...),
		Total:     cart.Total(),
	}
	seen := make(map[string]bool)
	for _, item := range intent.LineItems {
		if !seen[item.SectionKey] {
			seen[item.SectionKey] = true
			intent.Sections = append(intent.Sections, item.SectionKey)
		}
	}
	for _, pick := range intent.SeatPicks {
		if !seen[pick.SectionKey] {
			seen[pick.SectionKey] = true
			intent.Sections = append(intent.Sections, pick.SectionKey)
		}
	}
	return intent
}

// DirectIntent builds the intent for venues without assigned seating, where
// the ticket quantities alone describe the purchase.
func DirectIntent(cart *Cart) (PurchaseIntent, error) {
	if cart.TotalTicketCount() == 0 {
		return PurchaseIntent{}, ErrNoTickets
	}
	return newIntent(cart, nil), nil
}
