package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taquilla-cli/checkout"
	"taquilla-cli/logger"
	"taquilla-cli/model"
	"taquilla-cli/seating"
	"taquilla-cli/session"
	"taquilla-cli/store"
)

type appState int

const (
	stateSelectVenue appState = iota
	stateLoadingPlaces
	stateSelectPlace
	stateManagePlaces
	stateSelectRoom
	stateLoadingEvents
	stateSelectEvent
	stateLoadingCatalog
	stateQuantities
	statePicker
	statePayment
	stateWhatsApp
	stateSubmitting
	stateReceipt
	stateError
)

// CatalogAPI is the part of the backend the browsing screens read.
type CatalogAPI interface {
	seating.Source
	GetPlaces(ctx context.Context, venue string) ([]model.Place, error)
	GetEvents(ctx context.Context, venue, placeID, roomType string) ([]model.Event, error)
}

type Options struct {
	API      CatalogAPI
	Checkout *checkout.Service
	Sessions session.Provider
	Log      *logger.Logger
	// CacheTTL bounds how long event and category lists are reused.
	CacheTTL time.Duration
	// WhatsApp prefills the ticket delivery number.
	WhatsApp string
}

type appModel struct {
	api      CatalogAPI
	registry *seating.Registry
	checkout *checkout.Service
	sessions session.Provider
	log      *logger.Logger
	cacheTTL time.Duration

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	venue   seating.VenueType
	places  []model.Place
	hidden  map[string]bool
	place   model.Place
	room    string
	event   model.Event
	catalog seating.Catalog

	venueList   list.Model
	placeList   list.Model
	placePref   list.Model
	roomList    list.Model
	eventList   list.Model
	paymentList list.Model

	rec        *seating.Reconciler
	intent     seating.PurchaseIntent
	qtyCursor  int
	sectionIdx int
	cursorRow  int
	cursorCol  int
	receipt    checkout.Receipt

	paymentMethod string
	whatsApp      textinput.Model

	// user is read from the session provider on start and after each
	// submission, not on every render.
	user     model.User
	loggedIn bool

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type placesMsg struct {
	venue  seating.VenueType
	places []model.Place
	err    error
}

type eventsMsg struct {
	events []model.Event
	err    error
}

type catalogMsg struct {
	catalog seating.Catalog
}

type sectionsMsg struct {
	ticket   seating.LoadTicket
	sections map[string]*seating.Section
}

type receiptMsg struct {
	receipt checkout.Receipt
	err     error
}

func New(opts Options) tea.Model {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	var source seating.Source
	if opts.API != nil {
		source = cachingSource{api: opts.API, ttl: opts.CacheTTL}
	}
	m := appModel{
		api:      opts.API,
		registry: seating.NewRegistry(source, log),
		checkout: opts.Checkout,
		sessions: opts.Sessions,
		log:      log,
		cacheTTL: opts.CacheTTL,
		state:    stateSelectVenue,
		hidden:   make(map[string]bool),
	}

	m.venueList = newList("¿Qué quieres ver?")
	m.placeList = newList("Lugares")
	m.placePref = newList("Lugares visibles")
	m.roomList = newList("Tipo de sala")
	m.eventList = newList("Funciones")
	m.paymentList = newList("Método de pago")
	m.venueList.SetItems(buildVenueItems())
	m.paymentList.SetItems(buildPaymentItems())

	m.whatsApp = textinput.New()
	m.whatsApp.Prompt = "WhatsApp: "
	m.whatsApp.Placeholder = "opcional"
	m.whatsApp.CharLimit = 24
	m.whatsApp.Cursor.SetMode(cursor.CursorStatic)
	m.whatsApp.SetValue(opts.WhatsApp)
	m.refreshUser()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case placesMsg:
		if msg.err != nil {
			return m, errWithStateCmd(msg.err, stateSelectVenue)
		}
		if msg.venue != m.venue {
			return m, nil
		}
		m.places = msg.places
		hidden, err := store.LoadHiddenPlaces(string(m.venue))
		if err != nil {
			return m, errCmd(err)
		}
		m.hidden = hidden
		m.refreshPlaceLists()
		m.placeList.Select(0)
		m.state = stateSelectPlace
		return m, nil

	case eventsMsg:
		back := stateSelectPlace
		if m.venue == seating.Cinema {
			back = stateSelectRoom
		}
		if msg.err != nil {
			return m, errWithStateCmd(msg.err, back)
		}
		if len(msg.events) == 0 {
			return m, errWithStateCmd(fmt.Errorf("no hay funciones disponibles en %s", m.place.Name), back)
		}
		m.eventList.SetItems(buildEventItems(msg.events))
		m.eventList.Select(0)
		m.state = stateSelectEvent
		return m, nil

	case catalogMsg:
		m.catalog = msg.catalog
		if m.venue == seating.Museum {
			m.event = model.Event{ID: msg.catalog.EventID, Title: msg.catalog.EventTitle, Venue: m.place.Name}
			if m.event.Title == "" {
				m.event.Title = m.place.Name
			}
		}
		m.rec = seating.NewReconciler(msg.catalog.Cart())
		m.qtyCursor = 0
		m.notice = ""
		if msg.catalog.Fallback {
			m.notice = "Sin conexión con el catálogo: se muestran precios de referencia."
		}
		m.state = stateQuantities
		return m, nil

	case sectionsMsg:
		if m.rec == nil || !m.rec.AttachSections(msg.ticket, msg.sections) {
			m.log.Debug("SEAT", "secciones de una carga anterior descartadas")
			return m, nil
		}
		m.sectionIdx = 0
		m.focusSection()
		return m, nil

	case receiptMsg:
		m.refreshUser()
		if msg.err != nil {
			var txErr *checkout.TransactionError
			var payloadErr *checkout.PayloadError
			switch {
			case errors.Is(msg.err, checkout.ErrNotAuthenticated):
				return m, errWithStateCmd(fmt.Errorf("%w (ejecuta `taquilla login`)", checkout.ErrNotAuthenticated), statePayment)
			case errors.As(msg.err, &txErr) && txErr.SeatUnavailable() && !seating.VenueFor(m.venue).SeatSelection:
				return m, errWithStateCmd(capacityError(txErr), stateQuantities)
			case errors.As(msg.err, &txErr) && txErr.SeatUnavailable():
				m.notice = txErr.Error()
				return m.reopenPicker()
			case errors.As(msg.err, &payloadErr):
				m.whatsApp.Focus()
				return m, errWithStateCmd(msg.err, stateWhatsApp)
			default:
				return m, errWithStateCmd(msg.err, statePayment)
			}
		}
		m.receipt = msg.receipt
		m.state = stateReceipt
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectVenue:
		m.venueList, cmd = m.venueList.Update(msg)
	case stateSelectPlace:
		m.placeList, cmd = m.placeList.Update(msg)
	case stateManagePlaces:
		m.placePref, cmd = m.placePref.Update(msg)
	case stateSelectRoom:
		m.roomList, cmd = m.roomList.Update(msg)
	case stateSelectEvent:
		m.eventList, cmd = m.eventList.Update(msg)
	case statePayment:
		m.paymentList, cmd = m.paymentList.Update(msg)
	case stateWhatsApp:
		m.whatsApp, cmd = m.whatsApp.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingPlaces, stateLoadingEvents, stateLoadingCatalog, stateSubmitting:
		return header + "\n\n" + m.loadingView()
	case stateSelectVenue:
		return header + "\n\n" + m.venueList.View()
	case stateSelectPlace:
		return header + "\n\n" + m.placeList.View()
	case stateManagePlaces:
		return header + "\n\n" + m.placePref.View()
	case stateSelectRoom:
		return header + "\n\n" + m.roomList.View()
	case stateSelectEvent:
		return header + "\n\n" + m.eventList.View()
	case stateQuantities:
		return header + "\n\n" + m.quantitiesView()
	case statePicker:
		return header + "\n\n" + m.pickerView()
	case statePayment:
		return header + "\n\n" + m.summaryView() + "\n\n" + m.paymentList.View()
	case stateWhatsApp:
		return header + "\n\n" + m.whatsAppView()
	case stateReceipt:
		return header + "\n\n" + m.receiptView()
	case stateError:
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("esc para volver • ctrl+c para salir")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Taquilla")
	sub := []string{}
	if m.venue != "" {
		sub = append(sub, m.venue.Label())
	}
	if m.place.Name != "" {
		sub = append(sub, m.place.Name)
	}
	if m.room != "" {
		sub = append(sub, "Sala: "+m.room)
	}
	if m.event.Title != "" && m.state >= stateQuantities {
		sub = append(sub, m.event.Title)
	}
	if m.sessions != nil {
		if m.loggedIn {
			sub = append(sub, "Sesión: "+m.user.Username)
		} else {
			sub = append(sub, "Sin sesión")
		}
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}
	hints := "ctrl+c salir • esc volver • escribe para filtrar • enter elegir"
	switch m.state {
	case stateSelectPlace:
		hints = "ctrl+c salir • esc volver • escribe para filtrar • enter elegir • ctrl+t ocultar lugares"
	case stateManagePlaces:
		hints = "ctrl+c salir • esc volver • enter mostrar/ocultar"
	case stateQuantities:
		hints = "ctrl+c salir • esc volver • ↑/↓ categoría • ←/→ o -/+ cantidad • enter continuar"
	case statePicker:
		hints = "ctrl+c salir • esc cancelar • flechas mover • espacio elegir • tab sección • -/+ cantidad • enter confirmar"
	case stateWhatsApp:
		hints = "ctrl+c salir • esc volver • enter pagar"
	case stateReceipt:
		hints = "ctrl+c salir • enter nueva compra"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filtro: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		if m.state == stateReceipt || m.state == stateError {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+t":
		if m.state == stateSelectPlace {
			m.state = stateManagePlaces
			m.refreshPlaceLists()
			return m, nil, true
		}
	}

	switch m.state {
	case stateQuantities:
		return m.handleQuantityKey(msg)
	case statePicker:
		return m.handlePickerKey(msg)
	case stateWhatsApp:
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		var cmd tea.Cmd
		m.whatsApp, cmd = m.whatsApp.Update(msg)
		return m, cmd, true
	}

	if msg.Type != tea.KeyEnter {
		return m, nil, false
	}
	switch m.state {
	case stateSelectVenue:
		item, ok := m.venueList.SelectedItem().(venueItem)
		if !ok {
			return m, nil, true
		}
		m.resetPurchase()
		m.venue = item.venue
		m.place = model.Place{}
		m.room = ""
		m.state = stateLoadingPlaces
		return m, tea.Batch(m.fetchPlacesCmd(m.venue), m.spinner.Tick), true
	case stateSelectPlace:
		item, ok := m.placeList.SelectedItem().(placeItem)
		if !ok {
			return m, nil, true
		}
		m.place = item.place
		m.room = ""
		_ = store.RememberPlace(string(m.venue), m.place)
		switch m.venue {
		case seating.Cinema:
			m.roomList.SetItems(buildRoomItems())
			m.roomList.Select(0)
			m.state = stateSelectRoom
			return m, nil, true
		case seating.Museum:
			m.state = stateLoadingCatalog
			return m, tea.Batch(m.fetchCatalogCmd(), m.spinner.Tick), true
		default:
			m.state = stateLoadingEvents
			return m, tea.Batch(m.fetchEventsCmd(), m.spinner.Tick), true
		}
	case stateManagePlaces:
		return m.togglePlaceVisibility()
	case stateSelectRoom:
		item, ok := m.roomList.SelectedItem().(roomItem)
		if !ok {
			return m, nil, true
		}
		m.room = item.name
		m.state = stateLoadingEvents
		return m, tea.Batch(m.fetchEventsCmd(), m.spinner.Tick), true
	case stateSelectEvent:
		item, ok := m.eventList.SelectedItem().(eventItem)
		if !ok {
			return m, nil, true
		}
		m.event = item.event
		m.state = stateLoadingCatalog
		return m, tea.Batch(m.fetchCatalogCmd(), m.spinner.Tick), true
	case statePayment:
		item, ok := m.paymentList.SelectedItem().(paymentItem)
		if !ok {
			return m, nil, true
		}
		return m.choosePayment(item.method)
	case stateReceipt:
		m.resetPurchase()
		m.state = stateSelectVenue
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateSelectPlace:
		m.state = stateSelectVenue
	case stateManagePlaces:
		m.state = stateSelectPlace
	case stateSelectRoom:
		m.state = stateSelectPlace
	case stateSelectEvent:
		if m.venue == seating.Cinema {
			m.state = stateSelectRoom
		} else {
			m.state = stateSelectPlace
		}
	case stateQuantities:
		m.notice = ""
		if m.venue == seating.Museum {
			m.state = stateSelectPlace
		} else {
			m.state = stateSelectEvent
		}
	case statePicker:
		if m.rec != nil {
			m.rec.Cancel()
		}
		m.notice = ""
		m.state = stateQuantities
	case stateWhatsApp:
		m.whatsApp.Blur()
		m.state = statePayment
	case statePayment:
		m.notice = ""
		if m.rec != nil && m.rec.Reopen() == nil {
			m.state = statePicker
			return m, nil
		}
		m.state = stateQuantities
	case stateReceipt:
		m.resetPurchase()
		m.state = stateSelectVenue
	case stateError:
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

// choosePayment records the method and asks for the optional WhatsApp
// number. A missing login is reported here, before any typing.
func (m appModel) choosePayment(method string) (tea.Model, tea.Cmd, bool) {
	if err := m.checkSubmit(); err != nil {
		return m, errWithStateCmd(err, statePayment), true
	}
	m.paymentMethod = method
	m.state = stateWhatsApp
	cmd := m.whatsApp.Focus()
	return m, cmd, true
}

func (m *appModel) checkSubmit() error {
	if m.checkout == nil {
		return errors.New("el servicio de compra no está configurado")
	}
	m.refreshUser()
	if !m.loggedIn {
		return fmt.Errorf("%w (ejecuta `taquilla login`)", checkout.ErrNotAuthenticated)
	}
	return nil
}

func (m appModel) submit() (tea.Model, tea.Cmd, bool) {
	if err := m.checkSubmit(); err != nil {
		return m, errWithStateCmd(err, statePayment), true
	}
	order := checkout.Order{
		Intent:        m.intent,
		EventID:       m.event.ID,
		EventTitle:    m.event.Title,
		PaymentMethod: m.paymentMethod,
		Venue:         m.venue,
		WhatsApp:      strings.TrimSpace(m.whatsApp.Value()),
	}
	m.whatsApp.Blur()
	m.state = stateSubmitting
	return m, tea.Batch(m.submitCmd(order), m.spinner.Tick), true
}

func (m *appModel) refreshUser() {
	m.user, m.loggedIn = model.User{}, false
	if m.sessions == nil {
		return
	}
	m.user, m.loggedIn = m.sessions.CurrentUser()
}

// capacityError reports a general admission conflict with the backend's own
// words; there are no seats to pick again.
func capacityError(txErr *checkout.TransactionError) error {
	if txErr.Message != "" {
		return fmt.Errorf("no se pudo completar la compra: %s", txErr.Message)
	}
	return errors.New("no se pudo completar la compra: ya no quedan lugares suficientes")
}

// reopenPicker starts a fresh picker after the backend rejected a seat, so
// the new occupancy is loaded.
func (m appModel) reopenPicker() (tea.Model, tea.Cmd) {
	if m.rec == nil || !seating.VenueFor(m.venue).SeatSelection {
		m.state = stateQuantities
		return m, nil
	}
	m.rec.Cancel()
	ticket, err := m.rec.OpenPicker()
	if err != nil {
		m.state = stateQuantities
		return m, nil
	}
	m.state = statePicker
	return m, tea.Batch(m.loadSectionsCmd(ticket), m.spinner.Tick)
}

func (m *appModel) resetPurchase() {
	if m.rec != nil {
		m.rec.Cancel()
	}
	m.rec = nil
	m.intent = seating.PurchaseIntent{}
	m.receipt = checkout.Receipt{}
	m.paymentMethod = ""
	m.event = model.Event{}
	m.catalog = seating.Catalog{}
	m.notice = ""
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectVenue:
		return &m.venueList
	case stateSelectPlace:
		return &m.placeList
	case stateManagePlaces:
		return &m.placePref
	case stateSelectRoom:
		return &m.roomList
	case stateSelectEvent:
		return &m.eventList
	case statePayment:
		return &m.paymentList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingPlaces ||
		m.state == stateLoadingEvents ||
		m.state == stateLoadingCatalog ||
		m.state == stateSubmitting ||
		(m.state == statePicker && m.rec != nil && m.rec.Loading())
}

func (m appModel) loadingView() string {
	title := "Cargando"
	switch m.state {
	case stateLoadingPlaces:
		title = "Cargando lugares"
	case stateLoadingEvents:
		title = "Cargando funciones"
	case stateLoadingCatalog:
		title = "Cargando precios"
	case stateSubmitting:
		title = "Procesando la compra"
	case statePicker:
		title = "Cargando asientos"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Obteniendo datos..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := max(6, m.height-6)
	m.venueList.SetSize(m.width, h)
	m.placeList.SetSize(m.width, h)
	m.placePref.SetSize(m.width, h)
	m.roomList.SetSize(m.width, h)
	m.eventList.SetSize(m.width, h)
	m.paymentList.SetSize(m.width, max(6, h-8))
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithStateCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err, returnState: returnState, returnStateSet: true}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingPlaces:
		return stateSelectVenue
	case stateLoadingEvents:
		return stateSelectPlace
	case stateLoadingCatalog:
		return stateSelectPlace
	case stateSubmitting:
		return statePayment
	case stateError:
		return stateSelectVenue
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}
