package seating

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every user-correctable selection error.
var ErrValidation = errors.New("validation error")

var (
	ErrUnknownCategory = errors.New("categoría de boleto desconocida")
	ErrNoTickets       = fmt.Errorf("%w: selecciona al menos un boleto", ErrValidation)
	ErrPickerNotOpen   = fmt.Errorf("%w: el selector de asientos no está abierto", ErrValidation)
	ErrPickerLoading   = fmt.Errorf("%w: los asientos aún se están cargando", ErrValidation)
	ErrPickerOpen      = fmt.Errorf("%w: el selector de asientos ya está abierto", ErrValidation)
	ErrNoSeatSelection = fmt.Errorf("%w: este tipo de lugar no tiene asientos numerados", ErrValidation)
)

type QuantityError struct {
	Quantity int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("cantidad inválida: %d", e.Quantity)
}

func (e *QuantityError) Is(target error) bool { return target == ErrValidation }

type OccupiedSeatError struct {
	Section  string
	Row, Col int
}

func (e *OccupiedSeatError) Error() string {
	return fmt.Sprintf("el asiento fila %d columna %d de %s ya está ocupado", e.Row+1, e.Col+1, e.Section)
}

func (e *OccupiedSeatError) Is(target error) bool { return target == ErrValidation }

type OutOfBoundsError struct {
	Section  string
	Row, Col int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("el asiento fila %d columna %d no existe en %s", e.Row+1, e.Col+1, e.Section)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrValidation }

type SectionCapacityExceededError struct {
	Section string
	Allowed int
}

func (e *SectionCapacityExceededError) Error() string {
	if e.Allowed == 0 {
		return fmt.Sprintf("no tienes boletos para la sección %s", e.Section)
	}
	return fmt.Sprintf("solo puedes seleccionar %d asientos para la sección %s", e.Allowed, e.Section)
}

func (e *SectionCapacityExceededError) Is(target error) bool { return target == ErrValidation }

type SectionUnavailableError struct {
	Section string
}

func (e *SectionUnavailableError) Error() string {
	return fmt.Sprintf("sección no disponible: %s", e.Section)
}

func (e *SectionUnavailableError) Is(target error) bool { return target == ErrValidation }

// SectionShortfall is the difference between required and selected seats of one section.
type SectionShortfall struct {
	Key      string
	Name     string
	Required int
	Selected int
}

type IncompleteSelectionError struct {
	Sections []SectionShortfall
}

func (e *IncompleteSelectionError) Error() string {
	parts := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		parts = append(parts, fmt.Sprintf("%s: %d de %d", s.Name, s.Selected, s.Required))
	}
	return "selecciona todos los asientos antes de continuar (" + strings.Join(parts, ", ") + ")"
}

func (e *IncompleteSelectionError) Is(target error) bool { return target == ErrValidation }

// DataUnavailableError reports remote seat or category data that could not
// be used. It is recovered from by substituting built-in data.
type DataUnavailableError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	msg := "datos no disponibles para " + e.Subject
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
