package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"taquilla-cli/logger"
	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/service"
	"taquilla-cli/session"
)

const (
	PaymentCard   = "tarjeta"
	PaymentPayPal = "paypal"
)

var PaymentMethods = []string{PaymentCard, PaymentPayPal}

var ErrNotAuthenticated = session.ErrNotAuthenticated

// TransactionAPI submits purchases.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.TransactionResponse, error)
}

// TransactionError is a failed submission. It is not retried; the user may
// submit the same order again.
type TransactionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransactionError) Error() string {
	switch {
	case e.SeatUnavailable():
		return "uno o más asientos ya no están disponibles, elige otros"
	case e.Message != "":
		return "no se pudo completar la compra: " + e.Message
	case e.Err != nil:
		return "no se pudo completar la compra: " + e.Err.Error()
	default:
		return "no se pudo completar la compra"
	}
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Is matches ErrNotAuthenticated when the backend rejected the token.
func (e *TransactionError) Is(target error) bool {
	return target == ErrNotAuthenticated && e.StatusCode == http.StatusUnauthorized
}

// SeatUnavailable reports a conflict with another purchase of the same seat.
func (e *TransactionError) SeatUnavailable() bool {
	return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusGone
}

// PayloadError lists the fields of a request that failed validation.
type PayloadError struct {
	Fields []string
}

func (e *PayloadError) Error() string {
	return "datos de compra inválidos: " + strings.Join(e.Fields, ", ")
}

func (e *PayloadError) Is(target error) bool { return target == seating.ErrValidation }

// Order is everything needed to submit a confirmed purchase.
type Order struct {
	Intent        seating.PurchaseIntent
	EventID       string
	EventTitle    string
	PaymentMethod string
	Venue         seating.VenueType
	WhatsApp      string
}

type Receipt struct {
	TransactionID string
	Status        string
	EventTitle    string
	Total         decimal.Decimal
	Tickets       int
	Seats         []model.SelectedSeat
	WhatsApp      string
	QR            string
}

type Service struct {
	api      TransactionAPI
	sessions session.Provider
	validate *validator.Validate
	log      *logger.Logger
}

func New(api TransactionAPI, sessions session.Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		api:      api,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Prepare builds and validates the transaction request for order.
func (s *Service) Prepare(order Order) (model.TransactionRequest, error) {
	if s.sessions == nil {
		return model.TransactionRequest{}, ErrNotAuthenticated
	}
	user, ok := s.sessions.CurrentUser()
	if !ok || user.ID == "" {
		return model.TransactionRequest{}, ErrNotAuthenticated
	}
	if order.Intent.TicketCount() == 0 {
		return model.TransactionRequest{}, seating.ErrNoTickets
	}

	req := seating.Normalize(order.Intent, seating.Submission{
		UserID:        user.ID,
		EventID:       order.EventID,
		PaymentMethod: order.PaymentMethod,
		Venue:         order.Venue,
		WhatsApp:      normalizePhone(order.WhatsApp),
	})
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return model.TransactionRequest{}, &PayloadError{Fields: fields}
		}
		return model.TransactionRequest{}, fmt.Errorf("validate request: %w", err)
	}
	return req, nil
}

// Submit sends the order once and returns the receipt.
func (s *Service) Submit(ctx context.Context, order Order) (Receipt, error) {
	req, err := s.Prepare(order)
	if err != nil {
		return Receipt{}, err
	}

	s.log.Info("CHECKOUT", fmt.Sprintf("enviando compra evento=%s boletos=%d total=%s", req.EventID, order.Intent.TicketCount(), req.TotalPaid.String()))
	res, err := s.api.CreateTransaction(ctx, req)
	if err != nil {
		txErr := &TransactionError{StatusCode: service.StatusCode(err), Err: err}
		var apiErr *service.APIError
		if errors.As(err, &apiErr) {
			txErr.Message = apiErr.Message
		}
		s.log.Error("CHECKOUT", txErr.Error())
		return Receipt{}, txErr
	}
	id := res.ID()
	if !res.Success && id == "" {
		txErr := &TransactionError{Message: res.Message}
		s.log.Error("CHECKOUT", txErr.Error())
		return Receipt{}, txErr
	}

	receipt := Receipt{
		TransactionID: id,
		Status:        res.Transaction.Status,
		EventTitle:    order.EventTitle,
		Total:         order.Intent.Total,
		Tickets:       order.Intent.TicketCount(),
		Seats:         req.SelectedSeats,
		WhatsApp:      req.WhatsApp,
	}
	if qr, err := RenderQR(id); err == nil {
		receipt.QR = qr
	} else {
		s.log.Warn("CHECKOUT", "qr: "+err.Error())
	}
	s.log.Info("CHECKOUT", "compra confirmada transaccion="+id)
	return receipt, nil
}

// RenderQR encodes the transaction id as a QR code drawn with block characters.
func RenderQR(transactionID string) (string, error) {
	if transactionID == "" {
		return "", errors.New("transaction id is empty")
	}
	qr, err := qrcode.New("taquilla:transaccion:"+transactionID, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return qr.ToSmallString(false), nil
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}
