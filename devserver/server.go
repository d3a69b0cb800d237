// Package devserver is an in-memory stand-in for the ticketing backend.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taquilla-cli/logger"
	"taquilla-cli/model"
	"taquilla-cli/seating"
)

const tokenTTL = 24 * time.Hour

type Options struct {
	// Secret signs login tokens. A random one is used when empty.
	Secret string
	Log    *logger.Logger
	Now    func() time.Time
}

type account struct {
	ID       string
	Username string
	Name     string
	Email    string
	Password string
}

type Server struct {
	router   chi.Router
	secret   []byte
	log      *logger.Logger
	now      func() time.Time
	fixtures *fixtures
	accounts map[string]account

	mu           sync.Mutex
	sold         map[string]map[string]map[seating.Seat]bool
	admissions   map[string]int
	transactions map[string][]record
}

type record struct {
	ID            string
	Status        string
	Total         model.Amount
	Date          string
	Event         string
	PaymentMethod string
}

func New(opts Options) *Server {
	secret := opts.Secret
	if secret == "" {
		secret = uuid.NewString()
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		secret:   []byte(secret),
		log:      log,
		now:      now,
		fixtures: newFixtures(),
		accounts: map[string]account{
			"demo": {ID: "1", Username: "demo", Name: "Usuario Demo", Email: "demo@taquilla.local", Password: "demo123"},
			"ana":  {ID: "2", Username: "ana", Name: "Ana Rojas", Email: "ana@taquilla.local", Password: "ana123"},
		},
		sold:         make(map[string]map[string]map[seating.Seat]bool),
		admissions:   make(map[string]int),
		transactions: make(map[string][]record),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/places/type/{venue}", s.handlePlaces)
		r.Get("/theater/theaterId/{placeID}", s.handleTheaterEvents)
		r.Get("/cinema/events/{room}/{placeID}", s.handleCinemaEvents)
		r.Get("/theater/eventId/{eventID}/seats", s.handleSeats)
		r.Get("/cinema/event/{eventID}/seats", s.handleSeats)
		r.Get("/{venue}/categories", s.handleCategories)
		r.Get("/museum/availability/{placeID}", s.handleAvailability)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/transaction/create", s.handleCreateTransaction)
			r.Get("/transaction/user/{userID}", s.handleUserTransactions)
		})
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.log.Info("DEVSERVER", "escuchando en "+addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.LogAPI(r.Method, r.URL.Path, fmt.Sprint(ww.Status()), s.now().Sub(start))
	})
}

type userKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "token requerido")
			return
		}
		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token inválido")
			return
		}
		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			writeError(w, http.StatusUnauthorized, "token inválido")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, subject)))
	})
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	venue, err := seating.ParseVenueType(chi.URLParam(r, "venue"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	type placeJSON struct {
		ID        string `json:"id_lugar"`
		Nombre    string `json:"nombre"`
		Ubicacion string `json:"ubicacion"`
		Tipo      string `json:"tipo"`
	}
	out := []placeJSON{}
	for _, p := range s.fixtures.placesOf(venue) {
		out = append(out, placeJSON{ID: p.ID, Nombre: p.Name, Ubicacion: p.Location, Tipo: string(p.Venue)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": out})
}

type eventJSON struct {
	ID            string `json:"id_evento"`
	NombreEvento  string `json:"nombre_evento"`
	Lugar         string `json:"lugar"`
	Ubicacion     string `json:"ubicacion"`
	NombreSeccion string `json:"nombre_seccion,omitempty"`
	TipoEvento    string `json:"tipo_evento"`
	Horario       string `json:"horario_inicio"`
}

func (s *Server) eventsResponse(w http.ResponseWriter, placeID, room string) {
	p, ok := s.fixtures.place(placeID)
	if !ok {
		writeError(w, http.StatusNotFound, "lugar no encontrado")
		return
	}
	out := []eventJSON{}
	for _, e := range s.fixtures.eventsOf(placeID, room) {
		out = append(out, eventJSON{
			ID:            e.ID,
			NombreEvento:  e.Title,
			Lugar:         p.Name,
			Ubicacion:     p.Location,
			NombreSeccion: e.Room,
			TipoEvento:    e.Venue.WireName(),
			Horario:       e.StartsAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) handleTheaterEvents(w http.ResponseWriter, r *http.Request) {
	s.eventsResponse(w, chi.URLParam(r, "placeID"), "")
}

func (s *Server) handleCinemaEvents(w http.ResponseWriter, r *http.Request) {
	s.eventsResponse(w, chi.URLParam(r, "placeID"), chi.URLParam(r, "room"))
}

func (s *Server) handleSeats(w http.ResponseWriter, r *http.Request) {
	e, ok := s.fixtures.events[chi.URLParam(r, "eventID")]
	if !ok || len(e.sections) == 0 {
		writeError(w, http.StatusNotFound, "evento no encontrado")
		return
	}

	type sectionJSON struct {
		Nombre   string          `json:"nombre_seccion"`
		Precio   decimal.Decimal `json:"precio"`
		Filas    int             `json:"filas"`
		Columnas int             `json:"columnas"`
		Ocupados [][2]int        `json:"ocupados"`
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sectionJSON{}
	for _, key := range sortedKeys(e.sections) {
		section := e.sections[key]
		occupied := [][2]int{}
		for _, seat := range section.Occupied() {
			wire := seat.Wire()
			occupied = append(occupied, [2]int{wire.Row, wire.Col})
		}
		for _, seat := range sortedSeats(s.sold[e.ID][key]) {
			wire := seat.Wire()
			occupied = append(occupied, [2]int{wire.Row, wire.Col})
		}
		out = append(out, sectionJSON{
			Nombre:   section.Name,
			Precio:   section.UnitPrice,
			Filas:    section.Rows,
			Columnas: section.Cols,
			Ocupados: occupied,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": out})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	venue, err := seating.ParseVenueType(chi.URLParam(r, "venue"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	type categoryJSON struct {
		ID     int             `json:"id_categoria"`
		Nombre string          `json:"nombre_categoria"`
		Precio decimal.Decimal `json:"precio_base"`
	}
	out := []categoryJSON{}
	v := seating.VenueFor(venue)
	if venue == seating.Cinema {
		for i, room := range v.RoomTypes() {
			out = append(out, categoryJSON{ID: i + 1, Nombre: room, Precio: v.DefaultPrice(room)})
		}
	} else {
		for _, item := range v.DefaultItems("") {
			out = append(out, categoryJSON{ID: item.CategoryID, Nombre: item.CategoryName, Precio: item.UnitPrice})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	e, ok := s.fixtures.museumEvent(placeID)
	if !ok {
		writeError(w, http.StatusNotFound, "museo no encontrado")
		return
	}
	p, _ := s.fixtures.place(placeID)

	s.mu.Lock()
	available := e.capacity - s.admissions[e.ID]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"event_id":             e.ID,
			"nombre_evento":        e.Title,
			"lugar":                p.Name,
			"ubicacion":            p.Location,
			"precio":               e.price,
			"espacios_disponibles": available,
			"horario_inicio":       e.StartsAt,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Username))]
	if !ok || acct.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Usuario o contraseña incorrectos")
		return
	}

	now := s.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      acct.ID,
		"username": acct.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "no se pudo firmar el token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Inicio de sesión exitoso",
		"token":   token,
		"user": map[string]any{
			"id_usuario": acct.ID,
			"username":   acct.Username,
			"nombre":     acct.Name,
			"email":      acct.Email,
		},
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req model.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	subject, _ := r.Context().Value(userKey{}).(string)
	if req.UserID != subject {
		writeError(w, http.StatusForbidden, "el usuario no coincide con el token")
		return
	}
	e, ok := s.fixtures.events[req.EventID]
	if !ok {
		writeError(w, http.StatusNotFound, "evento no encontrado")
		return
	}
	if len(req.TicketDetails) == 0 {
		writeError(w, http.StatusBadRequest, "sin boletos")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Venue == seating.Museum {
		quantity := 0
		for _, d := range req.TicketDetails {
			quantity += d.Quantity
		}
		if s.admissions[e.ID]+quantity > e.capacity {
			writeError(w, http.StatusConflict, "no hay espacios disponibles")
			return
		}
		s.admissions[e.ID] += quantity
	} else {
		claims, status, msg := s.claimSeats(e, req.SelectedSeats)
		if status != http.StatusOK {
			writeError(w, status, msg)
			return
		}
		for key, seats := range claims {
			if s.sold[e.ID] == nil {
				s.sold[e.ID] = make(map[string]map[seating.Seat]bool)
			}
			if s.sold[e.ID][key] == nil {
				s.sold[e.ID][key] = make(map[seating.Seat]bool)
			}
			for _, seat := range seats {
				s.sold[e.ID][key][seat] = true
			}
		}
	}

	tx := record{
		ID:            uuid.NewString(),
		Status:        "completada",
		Total:         req.TotalPaid,
		Date:          s.now().Format(time.RFC3339),
		Event:         e.Title,
		PaymentMethod: req.PaymentMethod,
	}
	s.transactions[req.UserID] = append(s.transactions[req.UserID], tx)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"message":        "Transacción creada",
		"transaction_id": tx.ID,
		"transaction":    tx.json(),
	})
}

// claimSeats checks every requested seat against the grid and prior sales.
func (s *Server) claimSeats(e *event, seats []model.SelectedSeat) (map[string][]seating.Seat, int, string) {
	if len(seats) == 0 {
		return nil, http.StatusBadRequest, "sin asientos seleccionados"
	}
	claims := make(map[string][]seating.Seat)
	seen := make(map[string]bool)
	for _, selected := range seats {
		key := seating.NormalizeKey(selected.Section)
		section, ok := e.sections[key]
		if !ok {
			return nil, http.StatusBadRequest, "sección desconocida: " + selected.Section
		}
		seat := seating.SeatFromWire(selected.Row, selected.Col)
		if !section.IsInBounds(seat.Row, seat.Col) {
			return nil, http.StatusBadRequest, "asiento fuera de rango"
		}
		id := fmt.Sprintf("%s:%d:%d", key, seat.Row, seat.Col)
		if seen[id] || section.IsOccupied(seat.Row, seat.Col) || s.sold[e.ID][key][seat] {
			return nil, http.StatusConflict, "asiento no disponible"
		}
		seen[id] = true
		claims[key] = append(claims[key], seat)
	}
	return claims, http.StatusOK, ""
}

func (s *Server) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if subject, _ := r.Context().Value(userKey{}).(string); subject != userID {
		writeError(w, http.StatusForbidden, "el usuario no coincide con el token")
		return
	}
	s.mu.Lock()
	list := s.transactions[userID]
	out := make([]map[string]any, 0, len(list))
	for _, tx := range list {
		out = append(out, tx.json())
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (tx record) json() map[string]any {
	return map[string]any{
		"id_transaccion":    tx.ID,
		"estado":            tx.Status,
		"total_pagado":      tx.Total,
		"fecha_transaccion": tx.Date,
		"nombre_evento":     tx.Event,
		"metodo_pago":       tx.PaymentMethod,
	}
}

func sortedKeys(sections map[string]*seating.Section) []string {
	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func sortedSeats(set map[seating.Seat]bool) []seating.Seat {
	out := make([]seating.Seat, 0, len(set))
	for seat := range set {
		out = append(out, seat)
	}
	slices.SortFunc(out, func(a, b seating.Seat) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
