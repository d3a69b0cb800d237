package seating

import (
	"maps"
)

type State int

const (
	Idle State = iota
	Picking
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Picking:
		return "picking"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// LoadTicket identifies one opening of the picker. Section data delivered
// with an outdated ticket is discarded.
type LoadTicket uint64

// Reconciler keeps seat picks consistent with the cart's quantities.
type Reconciler struct {
	cart     *Cart
	state    State
	ticket   LoadTicket
	loading  bool
	sections map[string]*Section
	picks    []SeatPick
	intent   PurchaseIntent
}

func NewReconciler(cart *Cart) *Reconciler {
	return &Reconciler{cart: cart}
}

func (r *Reconciler) Cart() *Cart {
	return r.cart
}

func (r *Reconciler) State() State {
	return r.state
}

// Loading reports whether the picker is open but still waiting for sections.
func (r *Reconciler) Loading() bool {
	return r.state == Picking && r.loading
}

// OpenPicker moves from Idle to Picking. The picker stays in a loading state
// until AttachSections is called with the returned ticket.
func (r *Reconciler) OpenPicker() (LoadTicket, error) {
	if r.state != Idle {
		return 0, ErrPickerOpen
	}
	if r.cart.TotalTicketCount() == 0 {
		return 0, ErrNoTickets
	}
	r.ticket++
	r.state = Picking
	r.loading = true
	r.sections = nil
	r.picks = nil
	return r.ticket, nil
}

// AttachSections installs the section grids loaded for ticket. It reports
// false and leaves state untouched when the ticket is stale.
func (r *Reconciler) AttachSections(ticket LoadTicket, sections map[string]*Section) bool {
	if r.state != Picking || !r.loading || ticket != r.ticket {
		return false
	}
	r.sections = make(map[string]*Section, len(sections))
	for key, s := range sections {
		r.sections[NormalizeKey(key)] = s
	}
	r.loading = false
	return true
}

func (r *Reconciler) Section(key string) (*Section, bool) {
	s, ok := r.sections[NormalizeKey(key)]
	return s, ok
}

// Sections returns a copy of the attached section grids.
func (r *Reconciler) Sections() map[string]*Section {
	return maps.Clone(r.sections)
}

func (r *Reconciler) checkPicking() error {
	if r.state != Picking {
		return ErrPickerNotOpen
	}
	if r.loading {
		return ErrPickerLoading
	}
	return nil
}

// TogglePick adds or removes a seat pick and reports whether the seat is
// picked afterwards.
func (r *Reconciler) TogglePick(key string, row, col int) (bool, error) {
	if err := r.checkPicking(); err != nil {
		return false, err
	}
	key = NormalizeKey(key)
	section, ok := r.sections[key]
	if !ok {
		return false, &SectionUnavailableError{Section: key}
	}
	if section.IsOccupied(row, col) {
		return false, &OccupiedSeatError{Section: section.Name, Row: row, Col: col}
	}
	if !section.IsInBounds(row, col) {
		return false, &OutOfBoundsError{Section: section.Name, Row: row, Col: col}
	}

	pick := SeatPick{SectionKey: key, Row: row, Col: col}
	if i := r.indexOf(pick); i >= 0 {
		r.picks = append(r.picks[:i], r.picks[i+1:]...)
		return false, nil
	}
	allowed := r.cart.CountForSection(key)
	if r.PickCount(key) >= allowed {
		return false, &SectionCapacityExceededError{Section: section.Name, Allowed: allowed}
	}
	r.picks = append(r.picks, pick)
	return true, nil
}

func (r *Reconciler) indexOf(pick SeatPick) int {
	for i, p := range r.picks {
		if p == pick {
			return i
		}
	}
	return -1
}

func (r *Reconciler) IsPicked(key string, row, col int) bool {
	return r.indexOf(SeatPick{SectionKey: NormalizeKey(key), Row: row, Col: col}) >= 0
}

func (r *Reconciler) PickCount(key string) int {
	key = NormalizeKey(key)
	n := 0
	for _, p := range r.picks {
		if p.SectionKey == key {
			n++
		}
	}
	return n
}

// Picks returns the current picks in the order they were made.
func (r *Reconciler) Picks() []SeatPick {
	return append([]SeatPick(nil), r.picks...)
}

// Shortfalls lists every section whose pick count differs from its ticket count.
func (r *Reconciler) Shortfalls() []SectionShortfall {
	var out []SectionShortfall
	seen := make(map[string]bool)
	add := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		required, selected := r.cart.CountForSection(key), r.PickCount(key)
		if required == selected {
			return
		}
		name := key
		if s, ok := r.sections[key]; ok {
			name = s.Name
		}
		out = append(out, SectionShortfall{Key: key, Name: name, Required: required, Selected: selected})
	}
	for _, key := range r.cart.Sections() {
		add(key)
	}
	for _, p := range r.picks {
		add(p.SectionKey)
	}
	return out
}

// Confirm validates that every section has exactly as many picks as tickets
// and moves to Confirmed. On failure the state is unchanged.
func (r *Reconciler) Confirm() (PurchaseIntent, error) {
	if err := r.checkPicking(); err != nil {
		return PurchaseIntent{}, err
	}
	if r.cart.TotalTicketCount() == 0 {
		return PurchaseIntent{}, ErrNoTickets
	}
	if missing := r.Shortfalls(); len(missing) > 0 {
		return PurchaseIntent{}, &IncompleteSelectionError{Sections: missing}
	}
	r.intent = newIntent(r.cart, r.picks)
	r.state = Confirmed
	return r.intent, nil
}

// Intent returns the confirmed intent.
func (r *Reconciler) Intent() (PurchaseIntent, bool) {
	if r.state != Confirmed {
		return PurchaseIntent{}, false
	}
	return r.intent, true
}

// Reopen returns from Confirmed to Picking keeping the picks.
func (r *Reconciler) Reopen() error {
	if r.state != Confirmed {
		return ErrPickerNotOpen
	}
	r.state = Picking
	r.intent = PurchaseIntent{}
	return nil
}

// Cancel discards all picks and returns to Idle. Any pending section load
// is invalidated.
func (r *Reconciler) Cancel() {
	r.state = Idle
	r.loading = false
	r.sections = nil
	r.picks = nil
	r.intent = PurchaseIntent{}
	r.ticket++
}

// Increment adds a ticket through the reconciler.
func (r *Reconciler) Increment(id int) (LineItem, error) {
	item, err := r.cart.Increment(id)
	if err != nil {
		return item, err
	}
	r.afterQuantityChange()
	return item, nil
}

// Decrement removes a ticket and evicts the newest picks of its section that
// no longer have a ticket.
func (r *Reconciler) Decrement(id int) (LineItem, []SeatPick, error) {
	item, err := r.cart.Decrement(id)
	if err != nil {
		return item, nil, err
	}
	evicted := r.evictExcess(item.SectionKey)
	r.afterQuantityChange()
	return item, evicted, nil
}

// SetQuantity sets a quantity and evicts picks as Decrement does.
func (r *Reconciler) SetQuantity(id, n int) (LineItem, []SeatPick, error) {
	item, err := r.cart.SetQuantity(id, n)
	if err != nil {
		return item, nil, err
	}
	evicted := r.evictExcess(item.SectionKey)
	r.afterQuantityChange()
	return item, evicted, nil
}

// A quantity change invalidates a confirmed intent.
func (r *Reconciler) afterQuantityChange() {
	if r.state == Confirmed {
		r.state = Picking
		r.intent = PurchaseIntent{}
	}
}

func (r *Reconciler) evictExcess(key string) []SeatPick {
	var evicted []SeatPick
	allowed := r.cart.CountForSection(key)
	for i := len(r.picks) - 1; i >= 0 && r.PickCount(key) > allowed; i-- {
		if r.picks[i].SectionKey == key {
			evicted = append(evicted, r.picks[i])
			r.picks = append(r.picks[:i], r.picks[i+1:]...)
		}
	}
	return evicted
}
