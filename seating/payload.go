package seating

import (
	"taquilla-cli/model"
)

// Submission carries the context a transaction needs besides the intent.
type Submission struct {
	UserID        string
	EventID       string
	PaymentMethod string
	Venue         VenueType
	// WhatsApp is an optional E.164 number for ticket delivery.
	WhatsApp string
}

// Normalize converts a confirmed intent to the transaction request body.
// Seats are emitted in pick order and grouped by section in order of first
// appearance. It performs no I/O and never returns nil slices.
func Normalize(intent PurchaseIntent, sub Submission) model.TransactionRequest {
	req := model.TransactionRequest{
		UserID:         sub.UserID,
		EventID:        sub.EventID,
		PaymentMethod:  sub.PaymentMethod,
		TotalPaid:      model.NewAmount(intent.Total),
		SelectedSeats:  make([]model.SelectedSeat, 0, len(intent.SeatPicks)),
		SeatsBySection: []model.SectionSeats{},
		TicketDetails:  make([]model.TicketDetail, 0, len(intent.LineItems)),
		VenueType:      sub.Venue.WireName(),
		WhatsApp:       sub.WhatsApp,
	}

	groups := make(map[string]int)
	for _, pick := range intent.SeatPicks {
		wire := pick.Wire()
		req.SelectedSeats = append(req.SelectedSeats, model.SelectedSeat{
			Section: pick.SectionKey,
			Row:     wire.Row,
			Col:     wire.Col,
		})
		i, ok := groups[pick.SectionKey]
		if !ok {
			i = len(req.SeatsBySection)
			groups[pick.SectionKey] = i
			req.SeatsBySection = append(req.SeatsBySection, model.SectionSeats{SectionKey: pick.SectionKey})
		}
		req.SeatsBySection[i].Seats = append(req.SeatsBySection[i].Seats, wire)
	}

	for _, item := range intent.LineItems {
		if item.Quantity <= 0 {
			continue
		}
		req.TicketDetails = append(req.TicketDetails, model.TicketDetail{
			CategoryID: item.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  model.NewAmount(item.UnitPrice),
			Subtotal:   model.NewAmount(item.Subtotal()),
		})
	}
	return req
}
