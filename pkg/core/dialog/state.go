package dialog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// Phase is the coarse dialogue mode of a session. Sessions built without a
// preset language open in PhaseLanguageSelect and move to PhaseOrdering on
// the first pick.
type Phase string

const (
	PhaseOrdering       Phase = "ordering"
	PhaseLanguageSelect Phase = "language_select"
)

// SlotKind tags the single active micro-flow. At most one slot is armed at
// a time; arming a new one replaces the old.
type SlotKind int

const (
	SlotNone SlotKind = iota
	SlotSpice
	SlotFulfillment
	SlotName
	SlotNaanVariant
	SlotLanguage
	SlotCartConfirm
	SlotCheckoutConfirm
)

// String returns a stable slot name for logs and telemetry.
func (k SlotKind) String() string {
	switch k {
	case SlotNone:
		return "none"
	case SlotSpice:
		return "spice"
	case SlotFulfillment:
		return "fulfillment"
	case SlotName:
		return "name"
	case SlotNaanVariant:
		return "naan_variant"
	case SlotLanguage:
		return "language"
	case SlotCartConfirm:
		return "cart_confirm"
	case SlotCheckoutConfirm:
		return "checkout_confirm"
	default:
		return "unknown"
	}
}

// Slot is the active micro-flow plus the context it needs to resolve.
type Slot struct {
	Kind     SlotKind
	ItemID   string
	Label    string
	Qty      int
	Attempts int
}

// Armed reports whether a micro-flow currently owns user input.
func (s Slot) Armed() bool { return s.Kind != SlotNone }

// Line is one order row for summaries.
type Line struct {
	ItemID string
	Name   string
	Qty    int
}

// Order holds item quantities. Not safe for concurrent use; the engine
// serializes access. The last touched line is remembered with a timestamp
// so terse corrections ("no, I meant two") can bind to it for a short
// window only.
type Order struct {
	items       map[string]int
	lastAdded   string
	lastQty     int
	lastTouched time.Time
}

// NewOrder returns an empty order.
func NewOrder() *Order {
	return &Order{items: make(map[string]int)}
}

// Add increases the quantity for an item. Non-positive deltas are ignored.
func (o *Order) Add(itemID string, qty int) {
	if qty <= 0 {
		return
	}
	o.items[itemID] += qty
	o.lastAdded = itemID
	o.lastQty = qty
	o.lastTouched = time.Now()
}

// SetQty sets an absolute quantity. Zero or negative removes the line.
func (o *Order) SetQty(itemID string, qty int) {
	if qty <= 0 {
		delete(o.items, itemID)
		if o.lastAdded == itemID {
			o.lastAdded = ""
		}
		return
	}
	o.items[itemID] = qty
	o.lastAdded = itemID
	o.lastQty = qty
	o.lastTouched = time.Now()
}

// Remove drops an item entirely.
func (o *Order) Remove(itemID string) { o.SetQty(itemID, 0) }

// Qty returns the current quantity for an item.
func (o *Order) Qty(itemID string) int { return o.items[itemID] }

// IsEmpty reports whether the order has no lines.
func (o *Order) IsEmpty() bool { return len(o.items) == 0 }

// Len returns the number of distinct lines.
func (o *Order) Len() int { return len(o.items) }

// LastAdded returns the most recently touched item ID, if still present.
func (o *Order) LastAdded() (string, bool) {
	if o.lastAdded == "" {
		return "", false
	}
	if _, ok := o.items[o.lastAdded]; !ok {
		return "", false
	}
	return o.lastAdded, true
}

// RecentDelta returns the last add as a (item, qty) delta when it happened
// within the window. Corrections outside the window must not bind to it.
func (o *Order) RecentDelta(window time.Duration) (string, int, bool) {
	id, ok := o.LastAdded()
	if !ok || time.Since(o.lastTouched) > window {
		return "", 0, false
	}
	return id, o.lastQty, true
}

// SoleItem returns the only line's item ID when the order has exactly one.
func (o *Order) SoleItem() (string, bool) {
	if len(o.items) != 1 {
		return "", false
	}
	for id := range o.items {
		return id, true
	}
	return "", false
}

// Lines returns the order sorted by display name so summaries are stable.
func (o *Order) Lines(m *menu.Snapshot) []Line {
	out := make([]Line, 0, len(o.items))
	for id, qty := range o.items {
		name := id
		if m != nil {
			name = m.DisplayName(id)
		}
		out = append(out, Line{ItemID: id, Name: name, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summary renders the spoken order summary.
func (o *Order) Summary(m *menu.Snapshot, lang string) string {
	lines := o.Lines(m)
	if len(lines) == 0 {
		if lang == "nl" {
			return "Uw bestelling is nog leeg."
		}
		return "Your order is empty so far."
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d x %s", l.Qty, l.Name))
	}
	joined := strings.Join(parts, ", ")
	if lang == "nl" {
		return "U heeft nu: " + joined + "."
	}
	return "You currently have: " + joined + "."
}

// State is the per-session dialogue state. The engine owns it and guards it
// with its own mutex.
type State struct {
	Lang  string
	Phase Phase
	Order *Order
	Slot  Slot

	OfferedItemID string
	OfferedLabel  string
	OfferedAt     time.Time

	LangCandidate string
	LangStreak    int

	CustomerName    string
	FulfillmentMode string

	LastCategory      string
	LastCategoryItems []string

	SpiceNotes        map[string]string
	offeredCategories map[string]bool
}

// NewState returns a fresh ordering-phase state in the given language.
func NewState(lang string) *State {
	if lang == "" {
		lang = "en"
	}
	return &State{
		Lang:              lang,
		Phase:             PhaseOrdering,
		Order:             NewOrder(),
		SpiceNotes:        make(map[string]string),
		offeredCategories: make(map[string]bool),
	}
}

// ArmSlot replaces the active micro-flow.
func (s *State) ArmSlot(slot Slot) { s.Slot = slot }

// ClearSlot disarms the active micro-flow.
func (s *State) ClearSlot() { s.Slot = Slot{} }

// ClearOffer forgets a pending upsell offer.
func (s *State) ClearOffer() {
	s.OfferedItemID = ""
	s.OfferedLabel = ""
	s.OfferedAt = time.Time{}
}

// Reply is what the engine wants spoken back to the caller.
type Reply struct {
	Text    string
	Lang    string
	EndCall bool
	Source  string
}
