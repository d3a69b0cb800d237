package tui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"taquilla-cli/checkout"
	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/service"
	"taquilla-cli/session"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func newFilterModel(items []list.Item) *appModel {
	model := New(Options{}).(appModel)
	model.state = stateSelectPlace
	model.placeList = newList("Lugares")
	model.placeList.SetItems(items)
	return &model
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Teatro Nacional"},
		testItem{value: "Teatro Municipal"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.placeList.FilterValue(); got != "n" {
		t.Fatalf("expected filter value to be %q, got %q", "n", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.placeList.FilterValue(); got != "na" {
		t.Fatalf("expected filter value to be %q, got %q", "na", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Teatro Nacional"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.placeList.FilterValue(); got != "n" {
		t.Fatalf("expected filter value to be %q, got %q", "n", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Cine Plaza"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cine")})
	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.placeList.FilterValue(); got != "cine " {
		t.Fatalf("expected filter value to be %q, got %q", "cine ", got)
	}
}

func TestHandleFilterInput_IgnoredInPicker(t *testing.T) {
	m := newTheaterModel(Options{})
	m.state = statePicker
	if m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}) {
		t.Fatal("picker keys must not reach a list filter")
	}
}

func newTheaterModel(opts Options) appModel {
	m := New(opts).(appModel)
	m.venue = seating.Theater
	m.rec = seating.NewReconciler(seating.NewCart(
		seating.LineItem{ID: 1, CategoryName: "Platea", UnitPrice: decimal.NewFromInt(3000)},
		seating.LineItem{ID: 2, CategoryName: "Palco", UnitPrice: decimal.NewFromInt(2800)},
	))
	m.state = stateQuantities
	return m
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) (appModel, []tea.Msg) {
	t.Helper()
	var msgs []tea.Msg
	for _, key := range keys {
		next, cmd := m.Update(key)
		m = next.(appModel)
		msgs = append(msgs, runCmd(cmd)...)
	}
	return m, msgs
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sectionsFrom(t *testing.T, msgs []tea.Msg) sectionsMsg {
	t.Helper()
	for _, msg := range msgs {
		if s, ok := msg.(sectionsMsg); ok {
			return s
		}
	}
	t.Fatal("expected a sections load")
	return sectionsMsg{}
}

var (
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyMinus = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")}
)

// openPicker buys two Platea tickets and attaches the loaded sections.
func openPicker(t *testing.T, m appModel) appModel {
	t.Helper()
	m, msgs := press(t, m, keyRight, keyRight, keyEnter)
	if m.state != statePicker || !m.rec.Loading() {
		t.Fatalf("expected loading picker, got state %d", m.state)
	}
	next, _ := m.Update(sectionsFrom(t, msgs))
	m = next.(appModel)
	if m.rec.Loading() {
		t.Fatal("expected sections to be attached")
	}
	return m
}

func TestQuantities_IncrementAndCap(t *testing.T) {
	m := newTheaterModel(Options{})
	for range seating.MaxPerType + 1 {
		m, _ = press(t, m, keyRight)
	}
	item, _ := m.rec.Cart().Item(1)
	if item.Quantity != seating.MaxPerType {
		t.Fatalf("expected quantity %d, got %d", seating.MaxPerType, item.Quantity)
	}
	if m.notice == "" {
		t.Fatal("expected a notice when the cap is reached")
	}
}

func TestQuantities_EnterWithoutTickets(t *testing.T) {
	m := newTheaterModel(Options{})
	m, _ = press(t, m, keyEnter)
	if m.state != stateQuantities {
		t.Fatalf("expected to stay on quantities, got %d", m.state)
	}
	if !strings.Contains(m.notice, "boleto") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPicker_PickAndConfirm(t *testing.T) {
	m := openPicker(t, newTheaterModel(Options{}))

	section, ok := m.currentSection()
	if !ok || section.Key != "platea" {
		t.Fatalf("expected platea to be the active section, got %+v", section)
	}
	if section.IsOccupied(m.cursorRow, m.cursorCol) {
		t.Fatal("cursor should start on a free seat")
	}

	m, _ = press(t, m, keySpace, keyRight, keySpace, keyEnter)
	if m.state != statePayment {
		t.Fatalf("expected payment state, got %d (notice %q)", m.state, m.notice)
	}
	if got := len(m.intent.SeatPicks); got != 2 {
		t.Fatalf("expected 2 picks, got %d", got)
	}
	if !m.intent.Total.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("unexpected total %s", m.intent.Total)
	}
}

func TestPicker_ConfirmIncomplete(t *testing.T) {
	m := openPicker(t, newTheaterModel(Options{}))
	m, _ = press(t, m, keySpace, keyEnter)

	if m.state != statePicker {
		t.Fatalf("expected to stay in picker, got %d", m.state)
	}
	if !strings.Contains(m.notice, "1 de 2") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPicker_DecrementEvictsNewestPick(t *testing.T) {
	m := openPicker(t, newTheaterModel(Options{}))
	first := seating.SeatPick{SectionKey: "platea", Row: m.cursorRow, Col: m.cursorCol}
	m, _ = press(t, m, keySpace, keyRight, keySpace, keyMinus)

	picks := m.rec.Picks()
	if len(picks) != 1 || picks[0] != first {
		t.Fatalf("expected only the first pick to survive, got %+v", picks)
	}
	if !strings.Contains(m.notice, "liberaron") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPicker_StaleSectionsAreDropped(t *testing.T) {
	m := newTheaterModel(Options{})
	m, first := press(t, m, keyRight, keyEnter)
	stale := sectionsFrom(t, first)

	m, _ = press(t, m, keyEsc)
	if m.state != stateQuantities {
		t.Fatalf("expected quantities after cancel, got %d", m.state)
	}
	m, second := press(t, m, keyEnter)
	fresh := sectionsFrom(t, second)

	next, _ := m.Update(stale)
	m = next.(appModel)
	if !m.rec.Loading() {
		t.Fatal("stale sections must not be attached")
	}
	next, _ = m.Update(fresh)
	m = next.(appModel)
	if m.rec.Loading() {
		t.Fatal("expected current sections to be attached")
	}
}

func TestPicker_SeatConflictReopensPicker(t *testing.T) {
	m := openPicker(t, newTheaterModel(Options{}))
	m, _ = press(t, m, keySpace, keyRight, keySpace, keyEnter)
	m.state = stateSubmitting

	next, cmd := m.Update(receiptMsg{err: &checkout.TransactionError{StatusCode: 409}})
	m = next.(appModel)
	if m.state != statePicker || !m.rec.Loading() {
		t.Fatalf("expected a reloading picker, got state %d", m.state)
	}
	if len(m.rec.Picks()) != 0 {
		t.Fatal("expected picks to be cleared")
	}
	if !strings.Contains(m.notice, "disponibles") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	next, _ = m.Update(sectionsFrom(t, runCmd(cmd)))
	if next.(appModel).rec.Loading() {
		t.Fatal("expected reloaded sections to attach")
	}
}

func TestPayment_RequiresLogin(t *testing.T) {
	svc := checkout.New(nil, session.Memory{}, nil)
	m := openPicker(t, newTheaterModel(Options{Checkout: svc, Sessions: session.Memory{}}))
	m, msgs := press(t, m, keySpace, keyRight, keySpace, keyEnter, keyEnter)

	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(appModel)
	}
	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	if !errors.Is(m.err, checkout.ErrNotAuthenticated) {
		t.Fatalf("unexpected error %v", m.err)
	}
	if m.lastState != statePayment {
		t.Fatalf("expected to return to payment, got %d", m.lastState)
	}
}

type transactionRecorder struct {
	mu   sync.Mutex
	body map[string]any
}

func (rec *transactionRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/create" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.body = body
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"transaction_id":"tx-9"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (rec *transactionRecorder) field(name string) (any, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	v, ok := rec.body[name]
	return v, ok
}

func applyAll(m appModel, msgs []tea.Msg) appModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(appModel)
	}
	return m
}

func loggedInOptions(api checkout.TransactionAPI) Options {
	sessions := session.Memory{User: model.User{ID: "7", Username: "demo"}, Token: "tok"}
	return Options{Checkout: checkout.New(api, sessions, nil), Sessions: sessions}
}

func TestPayment_WhatsAppReachesTransactionBody(t *testing.T) {
	rec := &transactionRecorder{}
	srv := rec.server(t)
	m := openPicker(t, newTheaterModel(loggedInOptions(service.NewClient(srv.URL, srv.Client()))))

	m, _ = press(t, m, keySpace, keyRight, keySpace, keyEnter, keyEnter)
	if m.state != stateWhatsApp {
		t.Fatalf("expected whatsapp state, got %d", m.state)
	}
	m, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+598 99 123 456")}, keyEnter)
	m = applyAll(m, msgs)

	if m.state != stateReceipt {
		t.Fatalf("expected receipt state, got %d (err %v)", m.state, m.err)
	}
	got, ok := rec.field("whatsapp_number")
	if !ok || got != "+59899123456" {
		t.Fatalf("expected whatsapp_number %q in the request, got %v", "+59899123456", got)
	}
	if m.receipt.WhatsApp != "+59899123456" {
		t.Fatalf("unexpected receipt number %q", m.receipt.WhatsApp)
	}
}

func TestPayment_EmptyWhatsAppIsOmitted(t *testing.T) {
	rec := &transactionRecorder{}
	srv := rec.server(t)
	m := openPicker(t, newTheaterModel(loggedInOptions(service.NewClient(srv.URL, srv.Client()))))

	m, msgs := press(t, m, keySpace, keyRight, keySpace, keyEnter, keyEnter, keyEnter)
	m = applyAll(m, msgs)

	if m.state != stateReceipt {
		t.Fatalf("expected receipt state, got %d (err %v)", m.state, m.err)
	}
	if got, ok := rec.field("whatsapp_number"); ok {
		t.Fatalf("expected no whatsapp_number, got %v", got)
	}
}

func TestPayment_WhatsAppPrefilledFromOptions(t *testing.T) {
	opts := loggedInOptions(nil)
	opts.WhatsApp = "+59899000111"
	m := newTheaterModel(opts)
	if got := m.whatsApp.Value(); got != "+59899000111" {
		t.Fatalf("expected prefilled number, got %q", got)
	}
}

func TestPayment_InvalidWhatsAppReturnsToInput(t *testing.T) {
	m := openPicker(t, newTheaterModel(loggedInOptions(nil)))
	m, _ = press(t, m, keySpace, keyRight, keySpace, keyEnter, keyEnter)
	m, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")}, keyEnter)
	m = applyAll(m, msgs)

	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	var payloadErr *checkout.PayloadError
	if !errors.As(m.err, &payloadErr) {
		t.Fatalf("expected a payload error, got %v", m.err)
	}
	m, _ = press(t, m, keyEsc)
	if m.state != stateWhatsApp {
		t.Fatalf("expected to return to the whatsapp input, got %d", m.state)
	}
}

func TestMuseum_CapacityConflictShowsBackendMessage(t *testing.T) {
	m := New(Options{}).(appModel)
	m.venue = seating.Museum
	next, _ := m.Update(catalogMsg{catalog: seating.Catalog{
		Items:   seating.VenueFor(seating.Museum).DefaultItems(""),
		Limit:   3,
		EventID: "m20",
	}})
	m = next.(appModel)
	m.state = stateSubmitting

	next, cmd := m.Update(receiptMsg{err: &checkout.TransactionError{StatusCode: http.StatusConflict, Message: "no hay espacios disponibles"}})
	m = applyAll(next.(appModel), runCmd(cmd))

	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	if !strings.Contains(m.err.Error(), "no hay espacios disponibles") {
		t.Fatalf("expected the backend message, got %q", m.err.Error())
	}
	if strings.Contains(m.err.Error(), "asientos") {
		t.Fatalf("museum error must not mention seats: %q", m.err.Error())
	}
	if m.lastState != stateQuantities {
		t.Fatalf("expected to return to quantities, got %d", m.lastState)
	}
}

type countingSessions struct {
	calls *int
}

func (c countingSessions) CurrentUser() (model.User, bool) {
	*c.calls++
	return model.User{ID: "7", Username: "demo"}, true
}

func (c countingSessions) AuthToken() string { return "tok" }

func TestHeader_DoesNotReadSessionOnRender(t *testing.T) {
	calls := 0
	m := New(Options{Sessions: countingSessions{calls: &calls}}).(appModel)
	before := calls

	for range 5 {
		m.View()
	}
	if calls != before {
		t.Fatalf("expected no session reads while rendering, got %d", calls-before)
	}
	if !strings.Contains(m.View(), "Sesión: demo") {
		t.Fatal("expected the cached user in the header")
	}
}

func TestMuseum_SkipsPicker(t *testing.T) {
	m := New(Options{}).(appModel)
	m.venue = seating.Museum
	next, _ := m.Update(catalogMsg{catalog: seating.Catalog{
		Items:      seating.VenueFor(seating.Museum).DefaultItems(""),
		Limit:      3,
		EventID:    "m20",
		EventTitle: "Colección permanente",
	}})
	m = next.(appModel)
	if m.event.ID != "m20" {
		t.Fatalf("expected museum event id, got %q", m.event.ID)
	}

	m, _ = press(t, m, keyRight, keyRight, keyRight, keyRight, keyEnter)
	if m.state != statePayment {
		t.Fatalf("expected payment state, got %d", m.state)
	}
	if got := m.intent.TicketCount(); got != 3 {
		t.Fatalf("expected quantity capped at 3, got %d", got)
	}
}

func TestScreenBarBlock(t *testing.T) {
	bar := screenBarBlock(4, "PANTALLA")
	if len([]rune(bar.top)) != len([]rune(bar.mid)) || len([]rune(bar.mid)) != len([]rune(bar.bot)) {
		t.Fatalf("bar rows differ in width: %q %q %q", bar.top, bar.mid, bar.bot)
	}
	if !strings.Contains(bar.mid, "PANTALLA") {
		t.Fatalf("label missing from %q", bar.mid)
	}
}
