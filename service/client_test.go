package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taquilla-cli/model"
)

type staticToken string

func (s staticToken) AuthToken() string { return string(s) }

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	client := NewClient(server.URL, server.Client(), opts...)
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond
	return client
}

func TestGetJSON_Non2xxReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := newTestClient(server, WithMaxAttempts(1))

	var out map[string]any
	err := client.getJSON(context.Background(), server.URL+"/fail", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetJSON_RetriesTransientServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&attempts, 1)
		if current < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("retry later"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := newTestClient(server, WithMaxAttempts(3))

	var out map[string]any
	if err := client.getJSON(context.Background(), server.URL+"/retry", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if ok, _ := out["ok"].(bool); !ok {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestGetJSON_DoesNotRetryOnClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"evento no encontrado"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	err := client.getJSON(context.Background(), server.URL+"/missing", &out)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "evento no encontrado") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestPostJSON_NeverRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server, WithMaxAttempts(5))

	_, err := client.CreateTransaction(context.Background(), model.TransactionRequest{UserID: "1"})
	if StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 api error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestCreateTransaction_SendsBearerAndPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/create" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
			t.Fatalf("expected uuid request id, got %q", r.Header.Get("X-Request-ID"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["total_pagado"] != float64(1500) || body["tipo_evento"] != "Teatro" {
			t.Fatalf("unexpected body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"transaction_id":42,"transaction":{"id_transaccion":42,"estado":"completada","total_pagado":"1500"}}`))
	}))
	defer server.Close()

	client := newTestClient(server, WithTokenSource(staticToken("tok-123")))

	res, err := client.CreateTransaction(context.Background(), model.TransactionRequest{
		UserID:    "1",
		EventID:   "2",
		TotalPaid: model.NewAmount(decimal.NewFromInt(1500)),
		VenueType: "Teatro",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.ID() != "42" {
		t.Fatalf("unexpected transaction id: %q", res.ID())
	}
	if res.Transaction.Total.String() != "1500" || res.Transaction.Status != "completada" {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}
}

func TestGetSeatMap_RoutesByVenue(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sections":[{"nombre_seccion":"VIP","precio":200,"filas":6,"columnas":5,"ocupados":[[1,1]]}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	seatMap, err := client.GetSeatMap(context.Background(), "cinema", "77")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(seatMap.Sections) != 1 || seatMap.Sections[0].Rows != 6 || seatMap.Sections[0].Occupied[0] != [2]int{1, 1} {
		t.Fatalf("unexpected seat map: %+v", seatMap)
	}
	if _, err := client.GetSeatMap(context.Background(), "theater", "78"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := client.GetSeatMap(context.Background(), "museum", "79"); err == nil {
		t.Fatal("expected error for museum seat map")
	}

	want := []string{"/cinema/event/77/seats", "/theater/eventId/78/seats"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestGetEvents_CinemaUsesRoomType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/cinema/events/Screen%20X/5" {
			t.Fatalf("unexpected path: %s", r.URL.EscapedPath())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[{"id":9,"nombre_evento":"Dune","nombre_seccion":"Screen X","horario_inicio":"2026-10-20T20:00:00"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	events, err := client.GetEvents(context.Background(), "cinema", "5", "Screen X")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(events) != 1 || events[0].ID != "9" || events[0].Title != "Dune" || events[0].Section != "Screen X" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if _, err := client.GetEvents(context.Background(), "cinema", "5", ""); err == nil {
		t.Fatal("expected error without room type")
	}
}

func TestLogin_RejectsMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Usuario o contraseña incorrectos"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.Login(context.Background(), "ana", "secreto")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 api error, got %v", err)
	}
	if apiErr.Message != "Usuario o contraseña incorrectos" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestGetJSON_RespectsContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server, WithMaxAttempts(3))
	client.retryBase = time.Second
	client.retryCap = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]any
	err := client.getJSON(ctx, server.URL+"/slow", &out)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRetryDelay_CapsExponentialGrowth(t *testing.T) {
	client := NewClient("http://example.invalid", nil)
	client.retryBase = 100 * time.Millisecond
	client.retryCap = 350 * time.Millisecond

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, expected := range want {
		if got := client.retryDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}
