package seating

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taquilla-cli/model"
)

func TestNormalize_GeneralTicket(t *testing.T) {
	cart := theaterCart()
	_, err := cart.Increment(5)
	require.NoError(t, err)
	require.Equal(t, "1500", cart.Total().String())

	r := NewReconciler(cart)
	openPicker(t, r, VenueFor(Theater).MockSection("general"))
	_, err = r.TogglePick("general", 0, 0)
	require.NoError(t, err)
	intent, err := r.Confirm()
	require.NoError(t, err)

	req := Normalize(intent, Submission{UserID: "3", EventID: "9", PaymentMethod: "tarjeta", Venue: Theater})
	require.Len(t, req.TicketDetails, 1)
	detail := req.TicketDetails[0]
	assert.Equal(t, 1, detail.CategoryID)
	assert.Equal(t, 1, detail.Quantity)
	assert.Equal(t, "1500", detail.UnitPrice.String())
	assert.Equal(t, "1500", detail.Subtotal.String())
	assert.True(t, req.TotalPaid.Equal(cart.Total()))
	assert.Equal(t, "Teatro", req.VenueType)
	assert.Equal(t, []model.SelectedSeat{{Section: "general", Row: 1, Col: 1}}, req.SelectedSeats)
}

func TestNormalize_MuseumHasEmptySeatLists(t *testing.T) {
	cart := NewCart(VenueFor(Museum).DefaultItems("")...)
	_, err := cart.SetQuantity(1, 3)
	require.NoError(t, err)

	intent, err := DirectIntent(cart)
	require.NoError(t, err)
	req := Normalize(intent, Submission{UserID: "3", EventID: "museo-1", PaymentMethod: "paypal", Venue: Museum})

	require.Len(t, req.TicketDetails, 1)
	assert.Equal(t, 3, req.TicketDetails[0].Quantity)
	assert.Equal(t, "600", req.TotalPaid.String())

	body, err := json.Marshal(req)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, []any{}, decoded["secciones_info"])
	assert.Equal(t, []any{}, decoded["asientos_seleccionados"])
	assert.Equal(t, "Museo", decoded["tipo_evento"])
	assert.Equal(t, float64(600), decoded["total_pagado"])
	assert.NotContains(t, decoded, "whatsapp_number")
}

func TestNormalize_GroupsBySectionInPickOrder(t *testing.T) {
	cart := theaterCart()
	_, _ = cart.SetQuantity(1, 1) // platea
	_, _ = cart.SetQuantity(5, 2) // general
	r := NewReconciler(cart)
	venue := VenueFor(Theater)
	openPicker(t, r, venue.FallbackSection(""), plateaSection(t))

	for _, p := range []SeatPick{{"general", 4, 19}, {"platea", 2, 1}, {"general", 0, 0}} {
		_, err := r.TogglePick(p.SectionKey, p.Row, p.Col)
		require.NoError(t, err)
	}
	intent, err := r.Confirm()
	require.NoError(t, err)

	first := Normalize(intent, Submission{UserID: "1", EventID: "2", PaymentMethod: "tarjeta", Venue: Theater})
	second := Normalize(intent, Submission{UserID: "1", EventID: "2", PaymentMethod: "tarjeta", Venue: Theater})
	assert.Equal(t, first, second)

	assert.Equal(t, []model.SectionSeats{
		{SectionKey: "general", Seats: []model.WireSeat{{Row: 5, Col: 20}, {Row: 1, Col: 1}}},
		{SectionKey: "platea", Seats: []model.WireSeat{{Row: 3, Col: 2}}},
	}, first.SeatsBySection)
	assert.Len(t, first.TicketDetails, 2)
	total := decimal.Zero
	for _, d := range first.TicketDetails {
		total = total.Add(d.Subtotal.Decimal)
	}
	assert.True(t, total.Equal(first.TotalPaid.Decimal))
}

func TestDirectIntent_RequiresTickets(t *testing.T) {
	_, err := DirectIntent(NewCart(VenueFor(Museum).DefaultItems("")...))
	assert.ErrorIs(t, err, ErrNoTickets)
}
