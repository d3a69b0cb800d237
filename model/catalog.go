package model

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Category is a ticket category offered for a venue type.
type Category struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          flexInt          `json:"id"`
		IDCategoria flexInt          `json:"id_categoria"`
		Name        string           `json:"name"`
		Nombre      string           `json:"nombre_categoria"`
		BasePrice   *decimal.Decimal `json:"basePrice"`
		PrecioBase  *decimal.Decimal `json:"precio_base"`
		Price       *decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = firstNonZero(raw.IDCategoria, raw.ID)
	c.Name = firstNonEmpty(raw.Nombre, raw.Name)
	c.BasePrice = decimal.Zero
	for _, p := range []*decimal.Decimal{raw.PrecioBase, raw.BasePrice, raw.Price} {
		if p != nil {
			c.BasePrice = *p
			break
		}
	}
	return nil
}

// CategoryList decodes a bare array or a {"categories"|"data": [...]} envelope.
type CategoryList []Category

func (l *CategoryList) UnmarshalJSON(data []byte) error {
	raw, ok := unwrapList(data, "categories", "data")
	if !ok {
		return errors.New("unexpected categories response shape")
	}
	var items []Category
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Place is a theater, cinema or museum location.
type Place struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

func (p *Place) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString `json:"id"`
		IDLugar   flexString `json:"id_lugar"`
		Name      string     `json:"name"`
		Nombre    string     `json:"nombre"`
		Location  string     `json:"location"`
		Ubicacion string     `json:"ubicacion"`
		Type      string     `json:"type"`
		Tipo      string     `json:"tipo"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = firstNonEmpty(string(raw.IDLugar), string(raw.ID))
	p.Name = firstNonEmpty(raw.Nombre, raw.Name)
	p.Location = firstNonEmpty(raw.Ubicacion, raw.Location)
	p.Type = firstNonEmpty(raw.Tipo, raw.Type)
	return nil
}

type PlaceList []Place

func (l *PlaceList) UnmarshalJSON(data []byte) error {
	raw, ok := unwrapList(data, "places", "data")
	if !ok {
		return errors.New("unexpected places response shape")
	}
	var items []Place
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// MuseumAvailability describes general admission for a museum.
type MuseumAvailability struct {
	EventID   string          `json:"eventId"`
	Title     string          `json:"title"`
	Venue     string          `json:"venue"`
	Location  string          `json:"location"`
	Price     decimal.Decimal `json:"price"`
	HasPrice  bool            `json:"-"`
	Available int             `json:"available"`
	StartsAt  string          `json:"startsAt"`
}

func (a *MuseumAvailability) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		data = envelope.Data
	}
	var raw struct {
		EventID      flexString       `json:"event_id"`
		ID           flexString       `json:"id"`
		NombreEvento string           `json:"nombre_evento"`
		Title        string           `json:"title"`
		Lugar        string           `json:"lugar"`
		Venue        string           `json:"venue"`
		Ubicacion    string           `json:"ubicacion"`
		Location     string           `json:"location"`
		Precio       *decimal.Decimal `json:"precio"`
		Price        *decimal.Decimal `json:"price"`
		Espacios     flexInt          `json:"espacios_disponibles"`
		Available    flexInt          `json:"available"`
		Horario      string           `json:"horario_inicio"`
		StartsAt     string           `json:"startsAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.EventID = firstNonEmpty(string(raw.EventID), string(raw.ID))
	a.Title = firstNonEmpty(raw.NombreEvento, raw.Title)
	a.Venue = firstNonEmpty(raw.Lugar, raw.Venue)
	a.Location = firstNonEmpty(raw.Ubicacion, raw.Location)
	a.Available = firstNonZero(raw.Espacios, raw.Available)
	a.StartsAt = firstNonEmpty(raw.Horario, raw.StartsAt)
	a.Price, a.HasPrice = decimal.Zero, false
	switch {
	case raw.Precio != nil:
		a.Price, a.HasPrice = *raw.Precio, true
	case raw.Price != nil:
		a.Price, a.HasPrice = *raw.Price, true
	}
	return nil
}
