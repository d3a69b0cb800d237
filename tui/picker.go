package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"taquilla-cli/seating"
)

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleOccupied  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStylePicked    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	seatStyleCursor    = lipgloss.NewStyle().Reverse(true)
	noticeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tabStyle           = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle     = tabStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
)

func (m appModel) handleQuantityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.rec == nil {
		return m, nil, false
	}
	items := m.rec.Cart().LineItems()
	if len(items) == 0 {
		return m, nil, false
	}
	m.qtyCursor = max(0, min(m.qtyCursor, len(items)-1))
	item := items[m.qtyCursor]

	switch msg.String() {
	case "up", "k":
		m.qtyCursor = max(0, m.qtyCursor-1)
	case "down", "j":
		m.qtyCursor = min(len(items)-1, m.qtyCursor+1)
	case "right", "l", "+", "=":
		updated, err := m.rec.Increment(item.ID)
		switch {
		case err != nil:
			m.notice = err.Error()
		case updated.Quantity == item.Quantity:
			m.notice = m.capNotice()
		default:
			m.notice = ""
		}
	case "left", "h", "-":
		if _, _, err := m.rec.Decrement(item.ID); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = ""
		}
	case "enter":
		return m.startPicker()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m appModel) capNotice() string {
	if limit := m.rec.Cart().Limit(); limit > 0 && m.rec.Cart().TotalTicketCount() >= limit {
		return fmt.Sprintf("Solo quedan %d espacios disponibles.", limit)
	}
	return fmt.Sprintf("Máximo %d boletos por categoría.", seating.MaxPerType)
}

// startPicker leaves the quantity screen. Venues without numbered seats go
// straight to payment.
func (m appModel) startPicker() (tea.Model, tea.Cmd, bool) {
	if !seating.VenueFor(m.venue).SeatSelection {
		intent, err := seating.DirectIntent(m.rec.Cart())
		if err != nil {
			m.notice = err.Error()
			return m, nil, true
		}
		m.intent = intent
		m.notice = ""
		m.state = statePayment
		return m, nil, true
	}
	ticket, err := m.rec.OpenPicker()
	if err != nil {
		m.notice = err.Error()
		return m, nil, true
	}
	m.notice = ""
	m.state = statePicker
	return m, tea.Batch(m.loadSectionsCmd(ticket), m.spinner.Tick), true
}

func (m appModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.rec == nil || m.rec.Loading() {
		return m, nil, true
	}
	section, ok := m.currentSection()
	if !ok {
		return m, nil, true
	}

	switch msg.String() {
	case "up", "k":
		m.cursorRow = max(0, m.cursorRow-1)
	case "down", "j":
		m.cursorRow = min(section.Rows-1, m.cursorRow+1)
	case "left", "h":
		m.cursorCol = max(0, m.cursorCol-1)
	case "right", "l":
		m.cursorCol = min(section.Cols-1, m.cursorCol+1)
	case "tab":
		m.cycleSection(1)
	case "shift+tab":
		m.cycleSection(-1)
	case " ", "x":
		picked, err := m.rec.TogglePick(section.Key, m.cursorRow, m.cursorCol)
		if err != nil {
			m.notice = err.Error()
			return m, nil, true
		}
		action := "liberar"
		if picked {
			action = "elegir"
		}
		m.log.LogSeat(action, section.Key, m.cursorRow, m.cursorCol)
		m.notice = ""
	case "+", "=":
		m.changeSectionQuantity(section.Key, 1)
	case "-":
		m.changeSectionQuantity(section.Key, -1)
	case "enter":
		intent, err := m.rec.Confirm()
		if err != nil {
			m.notice = err.Error()
			return m, nil, true
		}
		m.intent = intent
		m.notice = ""
		m.state = statePayment
	default:
		return m, nil, true
	}
	return m, nil, true
}

// changeSectionQuantity adjusts the first category routed to key.
func (m *appModel) changeSectionQuantity(key string, delta int) {
	for _, item := range m.rec.Cart().LineItems() {
		if item.SectionKey != key {
			continue
		}
		if delta > 0 {
			if _, err := m.rec.Increment(item.ID); err != nil {
				m.notice = err.Error()
			}
			return
		}
		_, evicted, err := m.rec.Decrement(item.ID)
		if err != nil {
			m.notice = err.Error()
			return
		}
		for _, pick := range evicted {
			m.log.LogSeat("liberar", pick.SectionKey, pick.Row, pick.Col)
		}
		if len(evicted) > 0 {
			m.notice = fmt.Sprintf("Se liberaron %d asiento(s).", len(evicted))
		}
		m.clampSection()
		return
	}
}

// pickerSections are the keys the cart has tickets for, in category order.
func (m appModel) pickerSections() []string {
	if m.rec == nil {
		return nil
	}
	var keys []string
	for _, key := range m.rec.Cart().Sections() {
		if _, ok := m.rec.Section(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func (m appModel) currentSection() (*seating.Section, bool) {
	keys := m.pickerSections()
	if len(keys) == 0 {
		return nil, false
	}
	return m.rec.Section(keys[max(0, min(m.sectionIdx, len(keys)-1))])
}

func (m *appModel) cycleSection(delta int) {
	keys := m.pickerSections()
	if len(keys) == 0 {
		return
	}
	m.sectionIdx = (m.sectionIdx + delta + len(keys)) % len(keys)
	m.focusSection()
}

func (m *appModel) clampSection() {
	if keys := m.pickerSections(); m.sectionIdx >= len(keys) {
		m.sectionIdx = max(0, len(keys)-1)
		m.focusSection()
	}
}

// focusSection puts the cursor on the first free seat of the current section.
func (m *appModel) focusSection() {
	m.cursorRow, m.cursorCol = 0, 0
	section, ok := m.currentSection()
	if !ok {
		return
	}
	for r := range section.Rows {
		for c := range section.Cols {
			if !section.IsOccupied(r, c) {
				m.cursorRow, m.cursorCol = r, c
				return
			}
		}
	}
}

func (m appModel) quantitiesView() string {
	if m.rec == nil {
		return "Sin categorías."
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Boletos"))
	b.WriteString("\n\n")

	items := m.rec.Cart().LineItems()
	nameWidth := 8
	for _, item := range items {
		nameWidth = max(nameWidth, lipgloss.Width(item.CategoryName))
	}
	for i, item := range items {
		cursor := "  "
		if i == m.qtyCursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-*s  %10s  ‹ %d ›  %10s", cursor, nameWidth, item.CategoryName, formatPrice(item.UnitPrice), item.Quantity, formatPrice(item.Subtotal()))
		if i == m.qtyCursor {
			line = lipgloss.NewStyle().Bold(true).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	cart := m.rec.Cart()
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: %s • %d boleto(s)", formatPrice(cart.Total()), cart.TotalTicketCount()))
	if limit := cart.Limit(); limit > 0 {
		b.WriteString(hint(fmt.Sprintf(" • %d espacios disponibles", limit)))
	}
	if m.notice != "" {
		b.WriteString("\n\n" + noticeStyle.Render(m.notice))
	}
	return b.String()
}

func (m appModel) pickerView() string {
	if m.rec == nil || m.rec.Loading() {
		return m.loadingView()
	}
	keys := m.pickerSections()
	section, ok := m.currentSection()
	if !ok {
		return "No hay secciones para elegir asientos."
	}

	tabs := make([]string, 0, len(keys))
	for i, key := range keys {
		s, _ := m.rec.Section(key)
		label := fmt.Sprintf("%s %d/%d", s.Name, m.rec.PickCount(key), m.rec.Cart().CountForSection(key))
		if i == max(0, min(m.sectionIdx, len(keys)-1)) {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	b.WriteString(m.renderSeatGrid(section))
	b.WriteString("\n")
	b.WriteString(hint("Leyenda: [] libre • XX ocupado • ** elegido"))
	b.WriteString("\n")
	b.WriteString(hint(fmt.Sprintf("Fila %d • Asiento %d • %s por boleto • disponibles %d de %d",
		m.cursorRow+1, m.cursorCol+1, formatPrice(section.UnitPrice), section.Available(), section.Capacity())))
	if section.Fallback {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render("Sin datos del servidor para esta sección: la ocupación se confirma al pagar."))
	}
	if m.notice != "" {
		b.WriteString("\n\n" + noticeStyle.Render(m.notice))
	}
	return b.String()
}

func (m appModel) renderSeatGrid(section *seating.Section) string {
	rowWidth := len(fmt.Sprint(section.Rows))
	cellWidth := 2

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowWidth+1))
	for c := range section.Cols {
		b.WriteString(padCell(fmt.Sprint(c+1), cellWidth))
		if c < section.Cols-1 {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	for r := range section.Rows {
		b.WriteString(fmt.Sprintf("%*d ", rowWidth, r+1))
		for c := range section.Cols {
			var rendered string
			switch {
			case section.IsOccupied(r, c):
				rendered = seatStyleOccupied.Render("XX")
			case m.rec.IsPicked(section.Key, r, c):
				rendered = seatStylePicked.Render("**")
			default:
				rendered = seatStyleAvailable.Render("[]")
			}
			if r == m.cursorRow && c == m.cursorCol {
				rendered = seatStyleCursor.Render(rendered)
			}
			b.WriteString(rendered)
			if c < section.Cols-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	label := "ESCENARIO"
	if m.venue == seating.Cinema {
		label = "PANTALLA"
	}
	gridWidth := section.Cols*(cellWidth+1) - 1
	bar := screenBarBlock(gridWidth, label)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pad := strings.Repeat(" ", rowWidth+1)
	b.WriteString("\n")
	b.WriteString(pad + barStyle.Render(bar.top) + "\n")
	b.WriteString(pad + barStyle.Bold(true).Render(bar.mid) + "\n")
	b.WriteString(pad + barStyle.Render(bar.bot) + "\n")
	return b.String()
}

func (m appModel) summaryView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Resumen"))
	b.WriteString("\n")
	for _, item := range m.intent.LineItems {
		b.WriteString(fmt.Sprintf("  %d × %s  %s\n", item.Quantity, item.CategoryName, formatPrice(item.Subtotal())))
	}
	if len(m.intent.SeatPicks) > 0 {
		seats := make([]string, 0, len(m.intent.SeatPicks))
		for _, pick := range m.intent.SeatPicks {
			name := pick.SectionKey
			if s, ok := m.rec.Section(pick.SectionKey); ok {
				name = s.Name
			}
			wire := pick.Wire()
			seats = append(seats, fmt.Sprintf("%s F%d-A%d", name, wire.Row, wire.Col))
		}
		b.WriteString(hint("  Asientos: " + strings.Join(seats, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("  Total: %s", lipgloss.NewStyle().Bold(true).Render(formatPrice(m.intent.Total))))
	return b.String()
}

func (m appModel) whatsAppView() string {
	var b strings.Builder
	b.WriteString(m.summaryView())
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Pago: %s\n\n", paymentItem{method: m.paymentMethod}.Title()))
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("¿Recibir los boletos por WhatsApp?"))
	b.WriteString("\n")
	b.WriteString(m.whatsApp.View())
	b.WriteString("\n")
	b.WriteString(hint("Incluye el código de país, ej: +598 99 123 456. Déjalo vacío para omitirlo."))
	return b.String()
}

func (m appModel) receiptView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("42")).
		Padding(0, 2).
		Render("¡Compra confirmada!")

	lines := []string{
		title,
		"",
		fmt.Sprintf("Transacción: %s", m.receipt.TransactionID),
		fmt.Sprintf("Evento: %s", m.receipt.EventTitle),
		fmt.Sprintf("Boletos: %d • Total: %s", m.receipt.Tickets, formatPrice(m.receipt.Total)),
	}
	if m.receipt.Status != "" {
		lines = append(lines, "Estado: "+m.receipt.Status)
	}
	if m.receipt.WhatsApp != "" {
		lines = append(lines, "Boletos enviados por WhatsApp a "+m.receipt.WhatsApp)
	}
	if len(m.receipt.Seats) > 0 {
		seats := make([]string, 0, len(m.receipt.Seats))
		for _, seat := range m.receipt.Seats {
			seats = append(seats, fmt.Sprintf("%s F%d-A%d", seat.Section, seat.Row, seat.Col))
		}
		lines = append(lines, "Asientos: "+strings.Join(seats, ", "))
	}
	if m.receipt.QR != "" {
		lines = append(lines, "", m.receipt.QR)
	}
	panel := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("42")).
		Render(strings.Join(lines, "\n"))
	if m.width > 0 {
		panel = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, panel)
	}
	return panel
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", padding-left)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	width = max(width, len(label)+4, 10)

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}

func formatPrice(price decimal.Decimal) string {
	if price.IsZero() {
		return "-"
	}
	return "$" + price.StringFixed(2)
}

// formatStart shows backend timestamps as "2006-01-02 15:04" when they parse.
func formatStart(value string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return value
}
