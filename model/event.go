package model

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Event is the canonical event record. Field names differ between the theater,
// cinema and museum endpoints; UnmarshalJSON folds them into one shape.
type Event struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Venue    string          `json:"venue"`
	Location string          `json:"location"`
	Section  string          `json:"section"`
	Kind     string          `json:"kind"`
	StartsAt string          `json:"startsAt"`
	Price    decimal.Decimal `json:"price"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            flexString       `json:"id"`
		IDEvento      flexString       `json:"id_evento"`
		EventID       flexString       `json:"event_id"`
		Title         string           `json:"title"`
		NombreEvento  string           `json:"nombre_evento"`
		Venue         string           `json:"venue"`
		Lugar         string           `json:"lugar"`
		Location      string           `json:"location"`
		Ubicacion     string           `json:"ubicacion"`
		Section       string           `json:"section"`
		NombreSeccion string           `json:"nombre_seccion"`
		Kind          string           `json:"kind"`
		TipoEvento    string           `json:"tipo_evento"`
		StartsAt      string           `json:"startsAt"`
		Horario       string           `json:"horario_inicio"`
		Price         *decimal.Decimal `json:"price"`
		Precio        *decimal.Decimal `json:"precio"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = firstNonEmpty(string(raw.IDEvento), string(raw.EventID), string(raw.ID))
	e.Title = firstNonEmpty(raw.NombreEvento, raw.Title)
	e.Venue = firstNonEmpty(raw.Lugar, raw.Venue)
	e.Location = firstNonEmpty(raw.Ubicacion, raw.Location)
	e.Section = firstNonEmpty(raw.NombreSeccion, raw.Section)
	e.Kind = firstNonEmpty(raw.TipoEvento, raw.Kind)
	e.StartsAt = firstNonEmpty(raw.Horario, raw.StartsAt)
	e.Price = decimal.Zero
	for _, p := range []*decimal.Decimal{raw.Precio, raw.Price} {
		if p != nil {
			e.Price = *p
			break
		}
	}
	return nil
}

type EventList []Event

func (l *EventList) UnmarshalJSON(data []byte) error {
	raw, ok := unwrapList(data, "events", "eventos", "data")
	if !ok {
		return errors.New("unexpected events response shape")
	}
	var items []Event
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
