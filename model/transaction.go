package model

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Amount is a decimal that serializes as a bare JSON number.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// WireSeat is a seat coordinate in the backend's 1-based convention.
type WireSeat struct {
	Row int `json:"fila" validate:"gte=1"`
	Col int `json:"columna" validate:"gte=1"`
}

type SelectedSeat struct {
	Section string `json:"seccion" validate:"required"`
	Row     int    `json:"fila" validate:"gte=1"`
	Col     int    `json:"columna" validate:"gte=1"`
}

type SectionSeats struct {
	SectionKey string     `json:"seccion_key" validate:"required"`
	Seats      []WireSeat `json:"asientos" validate:"min=1,dive"`
}

type TicketDetail struct {
	CategoryID int    `json:"categoria_boleto_id" validate:"gte=0"`
	Quantity   int    `json:"cantidad" validate:"gte=1"`
	UnitPrice  Amount `json:"precio_unitario"`
	Subtotal   Amount `json:"subtotal"`
}

// TransactionRequest is the body of POST /transaction/create.
type TransactionRequest struct {
	UserID         string         `json:"usuario_id" validate:"required"`
	EventID        string         `json:"evento_id" validate:"required"`
	PaymentMethod  string         `json:"metodo_pago" validate:"required"`
	TotalPaid      Amount         `json:"total_pagado"`
	SelectedSeats  []SelectedSeat `json:"asientos_seleccionados" validate:"dive"`
	SeatsBySection []SectionSeats `json:"secciones_info" validate:"dive"`
	TicketDetails  []TicketDetail `json:"ticket_details" validate:"min=1,dive"`
	VenueType      string         `json:"tipo_evento" validate:"oneof=Teatro Cine Museo"`
	WhatsApp       string         `json:"whatsapp_number,omitempty" validate:"omitempty,e164"`
}

type TransactionResponse struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	TransactionID flexString      `json:"transaction_id"`
	Transaction   TransactionInfo `json:"transaction"`
}

type TransactionInfo struct {
	ID            flexString `json:"id"`
	Status        string     `json:"estado"`
	Total         Amount     `json:"total"`
	Date          string     `json:"fecha"`
	Event         string     `json:"evento"`
	PaymentMethod string     `json:"metodo_pago"`
}

func (t *TransactionInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               flexString       `json:"id"`
		IDTransaccion    flexString       `json:"id_transaccion"`
		Estado           string           `json:"estado"`
		Status           string           `json:"status"`
		Total            *decimal.Decimal `json:"total"`
		TotalPagado      *decimal.Decimal `json:"total_pagado"`
		Fecha            string           `json:"fecha"`
		FechaTransaccion string           `json:"fecha_transaccion"`
		Evento           string           `json:"evento"`
		NombreEvento     string           `json:"nombre_evento"`
		MetodoPago       string           `json:"metodo_pago"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = flexString(firstNonEmpty(string(raw.IDTransaccion), string(raw.ID)))
	t.Status = firstNonEmpty(raw.Estado, raw.Status)
	t.Total = Amount{}
	for _, v := range []*decimal.Decimal{raw.TotalPagado, raw.Total} {
		if v != nil {
			t.Total = NewAmount(*v)
			break
		}
	}
	t.Date = firstNonEmpty(raw.FechaTransaccion, raw.Fecha)
	t.Event = firstNonEmpty(raw.NombreEvento, raw.Evento)
	t.PaymentMethod = raw.MetodoPago
	return nil
}

// TransactionID returns the identifier as text.
func (t TransactionInfo) TransactionID() string {
	return string(t.ID)
}

// ID returns the transaction identifier from whichever field carried it.
func (r TransactionResponse) ID() string {
	return firstNonEmpty(string(r.TransactionID), string(r.Transaction.ID))
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString `json:"id"`
		IDUsuario flexString `json:"id_usuario"`
		Username  string     `json:"username"`
		Name      string     `json:"name"`
		Nombre    string     `json:"nombre"`
		Email     string     `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = firstNonEmpty(string(raw.IDUsuario), string(raw.ID))
	u.Username = raw.Username
	u.Name = firstNonEmpty(raw.Nombre, raw.Name)
	u.Email = raw.Email
	return nil
}

// TransactionList decodes the purchase history of a user.
type TransactionList []TransactionInfo

func (l *TransactionList) UnmarshalJSON(data []byte) error {
	raw, ok := unwrapList(data, "transactions", "transacciones", "data")
	if !ok {
		return errors.New("unexpected transactions response shape")
	}
	var items []TransactionInfo
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
