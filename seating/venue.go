package seating

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type VenueType string

const (
	Theater VenueType = "theater"
	Cinema  VenueType = "cinema"
	Museum  VenueType = "museum"
)

var VenueTypes = []VenueType{Theater, Cinema, Museum}

func ParseVenueType(s string) (VenueType, error) {
	switch NormalizeKey(s) {
	case "theater", "teatro":
		return Theater, nil
	case "cinema", "cine":
		return Cinema, nil
	case "museum", "museo":
		return Museum, nil
	default:
		return "", fmt.Errorf("tipo de lugar desconocido: %q", s)
	}
}

// WireName is the tipo_evento value the transaction API expects.
func (t VenueType) WireName() string {
	switch t {
	case Theater:
		return "Teatro"
	case Cinema:
		return "Cine"
	case Museum:
		return "Museo"
	default:
		return ""
	}
}

func (t VenueType) Label() string {
	switch t {
	case Theater:
		return "Teatros"
	case Cinema:
		return "Cines"
	case Museum:
		return "Museos"
	default:
		return string(t)
	}
}

// SectionSpec is a built-in section definition. Occupied seats are 0-based.
type SectionSpec struct {
	Name     string
	Price    int64
	Rows     int
	Cols     int
	Occupied []Seat
}

func (s SectionSpec) empty() SectionSpec {
	s.Occupied = nil
	return s
}

func (s SectionSpec) build(name string) *Section {
	if name == "" {
		name = s.Name
	}
	section, err := NewSection(name, decimal.NewFromInt(s.Price), s.Rows, s.Cols, s.Occupied)
	if err != nil {
		panic(err)
	}
	return section
}

type categorySpec struct {
	Name       string
	CategoryID int
	Price      int64
}

// Venue holds the per-type rules and built-in data used when remote data is
// missing.
type Venue struct {
	Type VenueType
	// SeatSelection is false for general admission venues.
	SeatSelection bool
	// DefaultCapacity caps general admission when availability is unknown.
	DefaultCapacity int

	fallback   SectionSpec
	mocks      map[string]SectionSpec
	categories []categorySpec
}

func VenueFor(t VenueType) Venue {
	switch t {
	case Cinema:
		return cinemaVenue
	case Museum:
		return museumVenue
	default:
		return theaterVenue
	}
}

// FallbackSection is the single section used when no remote section is usable.
// For cinema it is the grid of roomType.
func (v Venue) FallbackSection(roomType string) *Section {
	if !v.SeatSelection {
		return nil
	}
	if v.Type == Cinema && roomType != "" {
		return v.SubstituteSection(roomType)
	}
	section := v.fallback.empty().build("")
	section.Fallback = true
	return section
}

// SubstituteSection stands in for a section whose remote data is missing or
// malformed: the built-in dimensions and price of key with every seat free.
// Unknown keys get the fallback dimensions under key's name.
func (v Venue) SubstituteSection(key string) *Section {
	var section *Section
	if spec, ok := v.mocks[NormalizeKey(key)]; ok {
		section = spec.empty().build("")
	} else {
		section = v.fallback.empty().build(strings.TrimSpace(key))
	}
	section.Fallback = true
	return section
}

// MockSection returns the built-in demo grid for key, occupancy included, or
// the empty fallback dimensions under key's name when the key is unknown.
func (v Venue) MockSection(key string) *Section {
	if spec, ok := v.mocks[NormalizeKey(key)]; ok {
		return spec.build("")
	}
	return v.fallback.empty().build(strings.TrimSpace(key))
}

// DefaultPrice is the built-in price of key, or the fallback price.
func (v Venue) DefaultPrice(key string) decimal.Decimal {
	if spec, ok := v.mocks[NormalizeKey(key)]; ok {
		return decimal.NewFromInt(spec.Price)
	}
	return decimal.NewFromInt(v.fallback.Price)
}

// DefaultItems is the built-in category pool. Cinema returns the single
// category of roomType.
func (v Venue) DefaultItems(roomType string) []LineItem {
	if v.Type == Cinema {
		name := v.fallback.Name
		if spec, ok := v.mocks[NormalizeKey(roomType)]; ok {
			name = spec.Name
		} else if strings.TrimSpace(roomType) != "" {
			name = strings.TrimSpace(roomType)
		}
		return []LineItem{{ID: 1, CategoryName: name, UnitPrice: v.DefaultPrice(roomType)}}
	}
	items := make([]LineItem, 0, len(v.categories))
	for i, c := range v.categories {
		items = append(items, LineItem{
			ID:           i + 1,
			CategoryID:   c.CategoryID,
			CategoryName: c.Name,
			UnitPrice:    decimal.NewFromInt(c.Price),
		})
	}
	return items
}

// RoomTypes lists the cinema room names in display order.
func (v Venue) RoomTypes() []string {
	if v.Type != Cinema {
		return nil
	}
	names := make([]string, 0, len(cinemaRoomOrder))
	for _, key := range cinemaRoomOrder {
		names = append(names, v.mocks[key].Name)
	}
	return names
}

// MockSections returns every built-in demo grid, keyed.
func (v Venue) MockSections() map[string]*Section {
	out := make(map[string]*Section, len(v.mocks))
	for key, spec := range v.mocks {
		out[key] = spec.build("")
	}
	return out
}

func seats(pairs ...[2]int) []Seat {
	out := make([]Seat, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Seat{Row: p[0], Col: p[1]})
	}
	return out
}

var balconSeats = seats(
	[2]int{0, 2}, [2]int{0, 3}, [2]int{1, 1}, [2]int{1, 4}, [2]int{2, 0},
	[2]int{2, 5}, [2]int{3, 2}, [2]int{3, 3}, [2]int{4, 1}, [2]int{4, 4},
)

var theaterVenue = Venue{
	Type:          Theater,
	SeatSelection: true,
	fallback:      SectionSpec{Name: "General", Price: 1500, Rows: 5, Cols: 20},
	mocks: map[string]SectionSpec{
		"general": {Name: "General", Price: 1500, Rows: 5, Cols: 20, Occupied: seats(
			[2]int{0, 3}, [2]int{0, 6}, [2]int{0, 15}, [2]int{0, 16}, [2]int{1, 5}, [2]int{1, 4},
			[2]int{1, 17}, [2]int{2, 8}, [2]int{2, 1}, [2]int{2, 18}, [2]int{3, 2}, [2]int{3, 7},
			[2]int{3, 19}, [2]int{4, 6}, [2]int{4, 3}, [2]int{4, 14},
		)},
		"platea": {Name: "Platea", Price: 3000, Rows: 5, Cols: 4, Occupied: seats(
			[2]int{0, 2}, [2]int{0, 3}, [2]int{1, 0}, [2]int{1, 1},
			[2]int{2, 2}, [2]int{3, 3}, [2]int{4, 0}, [2]int{4, 1},
		)},
		"palco": {Name: "Palco", Price: 2800, Rows: 3, Cols: 4, Occupied: seats(
			[2]int{0, 1}, [2]int{0, 2}, [2]int{1, 0}, [2]int{1, 3}, [2]int{2, 1}, [2]int{2, 2},
		)},
		"balcónizquierdo": {Name: "Balcón Izquierdo", Price: 2500, Rows: 5, Cols: 6, Occupied: balconSeats},
		"balcónderecho":   {Name: "Balcón Derecho", Price: 2500, Rows: 5, Cols: 6, Occupied: balconSeats},
	},
	categories: []categorySpec{
		{Name: "Platea", CategoryID: 4, Price: 3000},
		{Name: "Palco", CategoryID: 3, Price: 2800},
		{Name: "Balcón Izquierdo", CategoryID: 2, Price: 2500},
		{Name: "Balcón Derecho", CategoryID: 2, Price: 2500},
		{Name: "General", CategoryID: 1, Price: 1500},
	},
}

var cinemaRoomOrder = []string{"tradicional", "plus", "vip", "macroxe", "junior", "4dx", "imax", "vr", "screenx"}

var cinemaVenue = Venue{
	Type:          Cinema,
	SeatSelection: true,
	fallback:      SectionSpec{Name: "Tradicional", Price: 100, Rows: 10, Cols: 6},
	mocks: map[string]SectionSpec{
		"tradicional": {Name: "Tradicional", Price: 100, Rows: 10, Cols: 6},
		"plus":        {Name: "Plus", Price: 130, Rows: 10, Cols: 8},
		"vip":         {Name: "VIP", Price: 200, Rows: 6, Cols: 5},
		"macroxe":     {Name: "MACRO XE", Price: 150, Rows: 10, Cols: 10},
		"junior":      {Name: "Junior", Price: 90, Rows: 6, Cols: 8},
		"4dx":         {Name: "4DX", Price: 180, Rows: 8, Cols: 10},
		"imax":        {Name: "IMAX", Price: 160, Rows: 10, Cols: 10},
		"vr":          {Name: "VR", Price: 250, Rows: 4, Cols: 6},
		"screenx":     {Name: "Screen X", Price: 180, Rows: 9, Cols: 16},
	},
}

var museumVenue = Venue{
	Type:            Museum,
	DefaultCapacity: 50,
	categories: []categorySpec{
		{Name: "General", CategoryID: 1, Price: 200},
	},
}
