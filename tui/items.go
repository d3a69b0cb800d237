package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"taquilla-cli/checkout"
	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/store"
)

type venueItem struct {
	venue seating.VenueType
}

func (v venueItem) Title() string { return v.venue.Label() }

func (v venueItem) Description() string {
	if seating.VenueFor(v.venue).SeatSelection {
		return "Con asientos numerados"
	}
	return "Entrada general"
}

func (v venueItem) FilterValue() string {
	return strings.ToLower(v.venue.Label() + " " + v.venue.WireName())
}

type placeItem struct {
	place  model.Place
	recent bool
}

func (p placeItem) Title() string {
	if p.recent {
		return "★ " + p.place.Name
	}
	return p.place.Name
}

func (p placeItem) Description() string {
	if p.place.Location == "" {
		return "-"
	}
	return p.place.Location
}

func (p placeItem) FilterValue() string {
	return strings.ToLower(p.place.Name + " " + p.place.Location)
}

type placeVisibilityItem struct {
	place  model.Place
	hidden bool
}

func (p placeVisibilityItem) Title() string {
	if p.hidden {
		return fmt.Sprintf("[ ] %s", p.place.Name)
	}
	return fmt.Sprintf("[x] %s", p.place.Name)
}

func (p placeVisibilityItem) Description() string {
	state := "visible"
	if p.hidden {
		state = "oculto"
	}
	if p.place.Location == "" {
		return state
	}
	return p.place.Location + " • " + state
}

func (p placeVisibilityItem) FilterValue() string {
	return strings.ToLower(p.place.Name + " " + p.place.Location)
}

type roomItem struct {
	name  string
	price string
}

func (r roomItem) Title() string       { return r.name }
func (r roomItem) Description() string { return "Desde " + r.price }
func (r roomItem) FilterValue() string { return strings.ToLower(r.name) }

type eventItem struct {
	event model.Event
}

func (e eventItem) Title() string { return e.event.Title }

func (e eventItem) Description() string {
	parts := []string{}
	if e.event.StartsAt != "" {
		parts = append(parts, formatStart(e.event.StartsAt))
	}
	if e.event.Section != "" {
		parts = append(parts, e.event.Section)
	}
	if e.event.Venue != "" {
		parts = append(parts, e.event.Venue)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " • ")
}

func (e eventItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{e.event.Title, e.event.Section, e.event.Venue}, " "))
}

type paymentItem struct {
	method string
}

func (p paymentItem) Title() string {
	switch p.method {
	case checkout.PaymentCard:
		return "Tarjeta de crédito o débito"
	case checkout.PaymentPayPal:
		return "PayPal"
	default:
		return p.method
	}
}

func (p paymentItem) Description() string { return p.method }
func (p paymentItem) FilterValue() string { return p.method }

func buildVenueItems() []list.Item {
	items := make([]list.Item, 0, len(seating.VenueTypes))
	for _, venue := range seating.VenueTypes {
		items = append(items, venueItem{venue: venue})
	}
	return items
}

func buildPaymentItems() []list.Item {
	items := make([]list.Item, 0, len(checkout.PaymentMethods))
	for _, method := range checkout.PaymentMethods {
		items = append(items, paymentItem{method: method})
	}
	return items
}

func buildRoomItems() []list.Item {
	cinema := seating.VenueFor(seating.Cinema)
	var items []list.Item
	for _, room := range cinema.RoomTypes() {
		items = append(items, roomItem{name: room, price: formatPrice(cinema.DefaultPrice(room))})
	}
	return items
}

func buildEventItems(events []model.Event) []list.Item {
	items := make([]list.Item, 0, len(events))
	for _, event := range events {
		items = append(items, eventItem{event: event})
	}
	return items
}

// buildPlaceItems lists visible places, recently used ones first.
func buildPlaceItems(places []model.Place, venue seating.VenueType, hidden map[string]bool) []list.Item {
	recents, _ := store.LoadRecentPlaces()
	rank := map[string]int{}
	for i, recent := range recents {
		if recent.Venue == string(venue) && recent.PlaceID != "" {
			if _, ok := rank[recent.PlaceID]; !ok {
				rank[recent.PlaceID] = i
			}
		}
	}

	var recentItems, otherItems []placeItem
	for _, place := range places {
		if hidden[place.ID] {
			continue
		}
		if _, ok := rank[place.ID]; ok {
			recentItems = append(recentItems, placeItem{place: place, recent: true})
			continue
		}
		otherItems = append(otherItems, placeItem{place: place})
	}
	for i := 1; i < len(recentItems); i++ {
		for j := i; j > 0 && rank[recentItems[j].place.ID] < rank[recentItems[j-1].place.ID]; j-- {
			recentItems[j], recentItems[j-1] = recentItems[j-1], recentItems[j]
		}
	}

	items := make([]list.Item, 0, len(recentItems)+len(otherItems))
	for _, item := range recentItems {
		items = append(items, item)
	}
	for _, item := range otherItems {
		items = append(items, item)
	}
	return items
}

func buildPlaceVisibilityItems(places []model.Place, hidden map[string]bool) []list.Item {
	items := make([]list.Item, 0, len(places))
	for _, place := range places {
		items = append(items, placeVisibilityItem{place: place, hidden: hidden[place.ID]})
	}
	return items
}

func (m *appModel) refreshPlaceLists() {
	m.placeList.SetItems(buildPlaceItems(m.places, m.venue, m.hidden))
	m.placePref.SetItems(buildPlaceVisibilityItems(m.places, m.hidden))
}

func (m appModel) togglePlaceVisibility() (tea.Model, tea.Cmd, bool) {
	item, ok := m.placePref.SelectedItem().(placeVisibilityItem)
	if !ok {
		return m, nil, true
	}
	hidden := !item.hidden
	if err := store.SetPlaceHidden(string(m.venue), item.place.ID, hidden); err != nil {
		return m, errCmd(err), true
	}
	if m.hidden == nil {
		m.hidden = map[string]bool{}
	}
	if hidden {
		m.hidden[item.place.ID] = true
	} else {
		delete(m.hidden, item.place.ID)
	}

	index := m.placePref.Index()
	m.refreshPlaceLists()
	if count := len(m.placePref.Items()); count > 0 {
		m.placePref.Select(min(index, count-1))
	}
	return m, nil, true
}
