package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// SeatMap is the seat layout of an event as returned by the events API.
// Occupied coordinates keep the wire convention: 1-based rows and columns.
type SeatMap struct {
	Sections []SeatSection
}

type SeatSection struct {
	Key        string
	Name       string
	Price      decimal.Decimal
	HasPrice   bool
	Rows       int
	Cols       int
	Occupied   [][2]int
	Subsection string
	// Malformed is set when the occupancy list could not be decoded.
	Malformed bool
}

// Usable reports whether the section carries enough data to build a grid.
func (s SeatSection) Usable() bool {
	return s.Name != "" && s.Rows > 0 && s.Cols > 0 && !s.Malformed
}

type rawSeatSection struct {
	Name       string           `json:"name"`
	Nombre     string           `json:"nombre_seccion"`
	Price      *decimal.Decimal `json:"price"`
	Precio     *decimal.Decimal `json:"precio"`
	Rows       flexInt          `json:"rows"`
	Filas      flexInt          `json:"filas"`
	Cols       flexInt          `json:"cols"`
	Columnas   flexInt          `json:"columnas"`
	Occupied   json.RawMessage  `json:"occupied"`
	Ocupados   json.RawMessage  `json:"ocupados"`
	Subseccion string           `json:"subseccion"`
}

func (r rawSeatSection) section(key string) SeatSection {
	s := SeatSection{
		Key:        key,
		Name:       firstNonEmpty(r.Nombre, r.Name, key),
		Rows:       firstNonZero(r.Filas, r.Rows),
		Cols:       firstNonZero(r.Columnas, r.Cols),
		Subsection: r.Subseccion,
	}
	switch {
	case r.Precio != nil:
		s.Price, s.HasPrice = *r.Precio, true
	case r.Price != nil:
		s.Price, s.HasPrice = *r.Price, true
	}
	raw := r.Ocupados
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = r.Occupied
	}
	occupied, err := decodeOccupied(raw)
	if err != nil {
		s.Malformed = true
	}
	s.Occupied = occupied
	return s
}

// decodeOccupied accepts [[row,col],...] either inline or encoded as a JSON string.
func decodeOccupied(raw json.RawMessage) ([][2]int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		if inner == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}
	var pairs [][]flexInt
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	out := make([][2]int, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, errors.New("occupied seat must be a [row, col] pair")
		}
		out = append(out, [2]int{int(pair[0]), int(pair[1])})
	}
	return out, nil
}

func (m *SeatMap) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Sections     json.RawMessage `json:"sections"`
		SectionSeats json.RawMessage `json:"sectionSeats"`
		Data         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if len(envelope.Sections) == 0 && len(envelope.SectionSeats) == 0 && len(envelope.Data) > 0 {
		return m.UnmarshalJSON(envelope.Data)
	}

	m.Sections = nil
	for _, raw := range []json.RawMessage{envelope.Sections, envelope.SectionSeats} {
		sections, err := decodeSectionCollection(raw)
		if err != nil {
			return err
		}
		m.Sections = append(m.Sections, sections...)
	}
	return nil
}

func decodeSectionCollection(raw json.RawMessage) ([]SeatSection, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var list []rawSeatSection
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		out := make([]SeatSection, 0, len(list))
		for _, r := range list {
			out = append(out, r.section(""))
		}
		return out, nil
	case '{':
		var byKey map[string]rawSeatSection
		if err := json.Unmarshal(raw, &byKey); err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]SeatSection, 0, len(keys))
		for _, k := range keys {
			out = append(out, byKey[k].section(k))
		}
		return out, nil
	default:
		return nil, errors.New("unexpected seat sections shape")
	}
}
