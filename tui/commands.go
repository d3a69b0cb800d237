package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taquilla-cli/checkout"
	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/store"
)

var errNoBackend = errors.New("no hay conexión con el servidor configurada")

// cachingSource serves category lists from the local cache while fresh.
// Seat maps and availability always come from the backend.
type cachingSource struct {
	api CatalogAPI
	ttl time.Duration
}

func (c cachingSource) GetSeatMap(ctx context.Context, venue, eventID string) (model.SeatMap, error) {
	return c.api.GetSeatMap(ctx, venue, eventID)
}

func (c cachingSource) GetCategories(ctx context.Context, venue string) ([]model.Category, error) {
	if cached, fresh, err := store.LoadCategoryCache(venue, c.ttl); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	categories, err := c.api.GetCategories(ctx, venue)
	if err == nil && len(categories) > 0 {
		_ = store.SaveCategoryCache(venue, categories)
	}
	return categories, err
}

func (c cachingSource) GetMuseumAvailability(ctx context.Context, placeID string) (model.MuseumAvailability, error) {
	return c.api.GetMuseumAvailability(ctx, placeID)
}

func (m appModel) fetchPlacesCmd(venue seating.VenueType) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		if cached, fresh, err := store.LoadPlaceCache(string(venue)); err == nil && fresh && len(cached) > 0 {
			return placesMsg{venue: venue, places: cached}
		}
		if api == nil {
			return placesMsg{venue: venue, err: errNoBackend}
		}
		places, err := api.GetPlaces(context.Background(), string(venue))
		if err == nil && len(places) > 0 {
			_ = store.SavePlaceCache(string(venue), places)
		}
		return placesMsg{venue: venue, places: places, err: err}
	}
}

func (m appModel) fetchEventsCmd() tea.Cmd {
	api := m.api
	venue, placeID, room, ttl := string(m.venue), m.place.ID, m.room, m.cacheTTL
	return func() tea.Msg {
		if cached, fresh, err := store.LoadEventCache(venue, placeID, room, ttl); err == nil && fresh && len(cached) > 0 {
			return eventsMsg{events: cached}
		}
		if api == nil {
			return eventsMsg{err: errNoBackend}
		}
		events, err := api.GetEvents(context.Background(), venue, placeID, room)
		if err == nil && len(events) > 0 {
			_ = store.SaveEventCache(venue, placeID, room, events)
		}
		return eventsMsg{events: events, err: err}
	}
}

func (m appModel) fetchCatalogCmd() tea.Cmd {
	registry := m.registry
	req := seating.Request{Venue: m.venue, EventID: m.event.ID, PlaceID: m.place.ID, RoomType: m.room}
	return func() tea.Msg {
		return catalogMsg{catalog: registry.LoadCatalog(context.Background(), req)}
	}
}

// loadSectionsCmd captures the required sections now; quantities may change
// while the load is in flight.
func (m appModel) loadSectionsCmd(ticket seating.LoadTicket) tea.Cmd {
	registry := m.registry
	req := seating.Request{
		Venue:    m.venue,
		EventID:  m.event.ID,
		PlaceID:  m.place.ID,
		RoomType: m.room,
		Required: m.rec.Cart().Sections(),
	}
	return func() tea.Msg {
		return sectionsMsg{ticket: ticket, sections: registry.LoadSections(context.Background(), req)}
	}
}

func (m appModel) submitCmd(order checkout.Order) tea.Cmd {
	svc := m.checkout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		receipt, err := svc.Submit(ctx, order)
		return receiptMsg{receipt: receipt, err: err}
	}
}
