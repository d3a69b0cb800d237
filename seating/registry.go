package seating

import (
	"context"
	"fmt"

	"taquilla-cli/logger"
	"taquilla-cli/model"
)

// Source is the remote side of the registry.
type Source interface {
	GetSeatMap(ctx context.Context, venue, eventID string) (model.SeatMap, error)
	GetCategories(ctx context.Context, venue string) ([]model.Category, error)
	GetMuseumAvailability(ctx context.Context, placeID string) (model.MuseumAvailability, error)
}

// Request identifies what to load.
type Request struct {
	Venue    VenueType
	EventID  string
	PlaceID  string
	RoomType string
	// Required lists section keys the caller needs a grid for, usually the
	// cart's sections. Missing ones are filled with built-in grids.
	Required []string
}

// Catalog is the category pool of an event.
type Catalog struct {
	Items []LineItem
	// Limit caps the total ticket count; zero means no cap.
	Limit int
	// Fallback is set when built-in data replaced the remote catalog.
	Fallback bool
	// EventID and EventTitle are filled for museums, whose admission event
	// comes with the availability record.
	EventID    string
	EventTitle string
}

// Cart returns a fresh cart over the catalog.
func (c Catalog) Cart() *Cart {
	cart := NewCart(c.Items...)
	cart.SetLimit(c.Limit)
	return cart
}

// Registry loads sections and categories. It never fails: unusable remote
// data is replaced with the venue's built-in data and logged.
type Registry struct {
	source Source
	log    *logger.Logger
}

func NewRegistry(source Source, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{source: source, log: log}
}

func (r *Registry) fallback(err *DataUnavailableError) {
	r.log.LogFallback("registro", err)
}

// LoadSections returns a fresh map of section grids keyed by normalized key.
// Venues without seat selection get an empty map.
func (r *Registry) LoadSections(ctx context.Context, req Request) map[string]*Section {
	venue := VenueFor(req.Venue)
	out := make(map[string]*Section)
	if !venue.SeatSelection {
		return out
	}
	r.log.Debug("SEAT", "cargando secciones "+req.String())

	if r.source != nil && req.EventID != "" {
		seatMap, err := r.source.GetSeatMap(ctx, string(venue.Type), req.EventID)
		if err != nil {
			r.fallback(&DataUnavailableError{Subject: "evento " + req.EventID, Reason: "mapa de asientos", Err: err})
		}
		for _, ws := range seatMap.Sections {
			if !ws.Usable() {
				r.fallback(&DataUnavailableError{Subject: "sección " + ws.Name, Reason: "datos incompletos o mal formados"})
				continue
			}
			section, err := SectionFromWire(ws, venue.DefaultPrice(ws.Name))
			if err != nil {
				r.fallback(&DataUnavailableError{Subject: "sección " + ws.Name, Err: err})
				continue
			}
			out[section.Key] = section
		}
	}

	if len(out) == 0 {
		section := venue.FallbackSection(req.RoomType)
		r.fallback(&DataUnavailableError{Subject: "evento " + req.EventID, Reason: "sin secciones, usando " + section.Name})
		out[section.Key] = section
	}

	for _, key := range req.Required {
		key = NormalizeKey(key)
		if key == "" {
			continue
		}
		if _, ok := out[key]; ok {
			continue
		}
		section := venue.SubstituteSection(key)
		r.fallback(&DataUnavailableError{Subject: "sección " + key, Reason: "usando asientos de respaldo"})
		out[key] = section
	}
	return out
}

// LoadCatalog returns the category pool for the request's venue and event.
func (r *Registry) LoadCatalog(ctx context.Context, req Request) Catalog {
	venue := VenueFor(req.Venue)
	switch venue.Type {
	case Museum:
		return r.loadMuseumCatalog(ctx, venue, req)
	case Cinema:
		return r.loadCinemaCatalog(ctx, venue, req)
	default:
		return r.loadTheaterCatalog(ctx, venue)
	}
}

func (r *Registry) fetchCategories(ctx context.Context, venue Venue) []model.Category {
	if r.source == nil {
		return nil
	}
	categories, err := r.source.GetCategories(ctx, string(venue.Type))
	if err != nil {
		r.fallback(&DataUnavailableError{Subject: "categorías de " + venue.Type.WireName(), Err: err})
		return nil
	}
	return categories
}

func (r *Registry) loadTheaterCatalog(ctx context.Context, venue Venue) Catalog {
	var items []LineItem
	for _, c := range r.fetchCategories(ctx, venue) {
		if c.Name == "" {
			continue
		}
		items = append(items, categoryItem(len(items)+1, c, venue))
	}
	if len(items) == 0 {
		r.fallback(&DataUnavailableError{Subject: "categorías de Teatro", Reason: "usando categorías por defecto"})
		return Catalog{Items: venue.DefaultItems(""), Fallback: true}
	}
	return Catalog{Items: items}
}

func (r *Registry) loadCinemaCatalog(ctx context.Context, venue Venue, req Request) Catalog {
	room := NormalizeKey(req.RoomType)
	var items []LineItem
	for _, c := range r.fetchCategories(ctx, venue) {
		if c.Name == "" || (room != "" && NormalizeKey(c.Name) != room) {
			continue
		}
		items = append(items, categoryItem(len(items)+1, c, venue))
	}
	if len(items) == 0 {
		r.fallback(&DataUnavailableError{Subject: "sala " + req.RoomType, Reason: "usando categoría por defecto"})
		return Catalog{Items: venue.DefaultItems(req.RoomType), Fallback: true}
	}
	return Catalog{Items: items}
}

func (r *Registry) loadMuseumCatalog(ctx context.Context, venue Venue, req Request) Catalog {
	catalog := Catalog{Items: venue.DefaultItems(""), Limit: venue.DefaultCapacity}
	if r.source == nil || req.PlaceID == "" {
		catalog.Fallback = true
		return catalog
	}
	availability, err := r.source.GetMuseumAvailability(ctx, req.PlaceID)
	if err != nil {
		r.fallback(&DataUnavailableError{Subject: "museo " + req.PlaceID, Reason: "disponibilidad", Err: err})
		catalog.Fallback = true
		return catalog
	}
	catalog.EventID = availability.EventID
	catalog.EventTitle = availability.Title
	if availability.HasPrice {
		catalog.Items[0].UnitPrice = availability.Price
	}
	if availability.Available > 0 {
		catalog.Limit = availability.Available
	}
	return catalog
}

func categoryItem(slot int, c model.Category, venue Venue) LineItem {
	price := c.BasePrice
	if price.IsZero() {
		price = venue.DefaultPrice(c.Name)
	}
	id := c.ID
	if id == 0 {
		id = slot
	}
	return LineItem{
		ID:           slot,
		CategoryID:   id,
		CategoryName: c.Name,
		UnitPrice:    price,
	}
}

// String is used in log lines.
func (r Request) String() string {
	return fmt.Sprintf("%s evento=%s lugar=%s sala=%s", r.Venue, r.EventID, r.PlaceID, r.RoomType)
}
