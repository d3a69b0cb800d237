package seating

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"taquilla-cli/model"
)

// Seat is a 0-based grid coordinate.
type Seat struct {
	Row int
	Col int
}

// SeatFromWire converts a 1-based backend coordinate.
func SeatFromWire(row, col int) Seat {
	return Seat{Row: row - 1, Col: col - 1}
}

func (s Seat) Wire() model.WireSeat {
	return model.WireSeat{Row: s.Row + 1, Col: s.Col + 1}
}

// Section is one bookable area of a venue. It is immutable once built.
type Section struct {
	Key        string
	Name       string
	UnitPrice  decimal.Decimal
	Rows       int
	Cols       int
	Subsection string
	occupied   map[Seat]struct{}

	// Fallback marks built-in dimensions standing in for missing remote data.
	Fallback bool
}

// NewSection validates the grid and returns a section keyed by NormalizeKey(name).
// Every occupied seat must lie inside the grid.
func NewSection(name string, price decimal.Decimal, rows, cols int, occupied []Seat) (*Section, error) {
	key := NormalizeKey(name)
	if key == "" {
		return nil, fmt.Errorf("section name is empty")
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("section %s has invalid dimensions %dx%d", name, rows, cols)
	}
	s := &Section{
		Key:       key,
		Name:      name,
		UnitPrice: price,
		Rows:      rows,
		Cols:      cols,
		occupied:  make(map[Seat]struct{}, len(occupied)),
	}
	for _, seat := range occupied {
		if !s.IsInBounds(seat.Row, seat.Col) {
			return nil, fmt.Errorf("section %s: occupied seat (%d,%d) outside %dx%d grid", name, seat.Row+1, seat.Col+1, rows, cols)
		}
		s.occupied[seat] = struct{}{}
	}
	return s, nil
}

// SectionFromWire builds a section from the seat map record, converting the
// 1-based occupancy list. A missing price falls back to fallbackPrice.
func SectionFromWire(ws model.SeatSection, fallbackPrice decimal.Decimal) (*Section, error) {
	if ws.Malformed {
		return nil, fmt.Errorf("section %s: malformed occupancy list", ws.Name)
	}
	occupied := make([]Seat, 0, len(ws.Occupied))
	for _, pair := range ws.Occupied {
		occupied = append(occupied, SeatFromWire(pair[0], pair[1]))
	}
	price := fallbackPrice
	if ws.HasPrice {
		price = ws.Price
	}
	s, err := NewSection(ws.Name, price, ws.Rows, ws.Cols, occupied)
	if err != nil {
		return nil, err
	}
	s.Subsection = ws.Subsection
	return s, nil
}

func (s *Section) IsInBounds(row, col int) bool {
	return row >= 0 && row < s.Rows && col >= 0 && col < s.Cols
}

func (s *Section) IsOccupied(row, col int) bool {
	_, ok := s.occupied[Seat{Row: row, Col: col}]
	return ok
}

// Occupied returns the occupied seats in row-major order.
func (s *Section) Occupied() []Seat {
	out := make([]Seat, 0, len(s.occupied))
	for seat := range s.occupied {
		out = append(out, seat)
	}
	slices.SortFunc(out, func(a, b Seat) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}

func (s *Section) Capacity() int {
	return s.Rows * s.Cols
}

func (s *Section) Available() int {
	return s.Capacity() - len(s.occupied)
}
