package dialog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ordervox/ordervox/pkg/core/menu"
	"github.com/ordervox/ordervox/pkg/core/route"
)

var checkoutMarkers = []string{
	"thats all", "thats it", "that is all", "that will be all", "nothing else", "im done",
	"dat was het", "dat is alles", "meer niet", "verder niets", "klaar",
}

const (
	// correctionWindow bounds how long a quantity correction may bind to
	// the last added line.
	correctionWindow = 30 * time.Second

	// offerTTL expires a pending upsell offer, so a stray "yes" minutes
	// later does not add the item.
	offerTTL = 90 * time.Second
)

// Engine runs one session's dialogue. A turn goes through a fixed priority
// chain: guards, quantity corrections, the armed micro-flow, deterministic
// routing, and only then the agent fallback. All state access is serialized
// behind the engine mutex.
type Engine struct {
	mu     sync.Mutex
	state  *State
	menu   *menu.Snapshot
	router *route.Orchestrator
	chat   ChatClient

	tenantName string
	langTuning LanguageTuning

	onDebug  func(category, message string)
	onRouted func(source string, elapsedMs float64)
}

// NewEngine builds an engine over a menu snapshot. chat may be nil, in which
// case the fallback degrades to a clarifying question. m may be nil when the
// catalogue is unavailable; the session then runs in reduced mode. An empty
// lang opens the session in language selection.
func NewEngine(m *menu.Snapshot, chat ChatClient, tenantName, lang string) *Engine {
	if m == nil {
		m = menu.BuildSnapshot("", lang, nil)
	}
	st := NewState(lang)
	if lang == "" {
		st.Phase = PhaseLanguageSelect
		st.ArmSlot(Slot{Kind: SlotLanguage})
	}
	return &Engine{
		state:      st,
		menu:       m,
		router:     route.NewOrchestrator(route.NewParser(m)),
		chat:       chat,
		tenantName: tenantName,
		langTuning: DefaultLanguageTuning(),
	}
}

// SetLanguageTuning overrides the hysteresis thresholds.
func (e *Engine) SetLanguageTuning(tuning LanguageTuning) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.langTuning = tuning
}

// SetCallbacks wires the debug and routing observers.
func (e *Engine) SetCallbacks(onDebug func(category, message string), onRouted func(source string, elapsedMs float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDebug = onDebug
	e.onRouted = onRouted
}

// Language returns the current reply language.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Lang
}

// SetLanguage forces the reply language, as from an explicit client pick.
// Resets any detection streak so hysteresis does not fight the choice.
func (e *Engine) SetLanguage(lang string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Lang = lang
	e.state.LangCandidate = ""
	e.state.LangStreak = 0
}

// Busy reports whether a micro-flow or offer currently holds the dialogue
// open. The liveness supervisor skips idle prompts while this is true.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Slot.Armed() || e.state.OfferedItemID != ""
}

// Greeting returns the session opening line.
func (e *Engine) Greeting() Reply {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase == PhaseLanguageSelect {
		return Reply{Text: LanguageSelectPrompt(e.tenantName), Lang: e.state.Lang, Source: "policy"}
	}
	return Reply{Text: Greeting(e.state.Lang, e.tenantName), Lang: e.state.Lang, Source: "policy"}
}

// IdlePrompt returns the nth liveness reprompt.
func (e *Engine) IdlePrompt(n int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return IdlePrompt(e.state.Lang, n)
}

// Goodbye returns the hangup line.
func (e *Engine) Goodbye() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Goodbye(e.state.Lang)
}

// OrderLines returns the current order for external consumers.
func (e *Engine) OrderLines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Order.Lines(e.menu)
}

// Process runs one user turn through the priority chain.
func (e *Engine) Process(ctx context.Context, text string) (Reply, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Reply{Lang: st.Lang, Source: "guard"}, nil
	}
	if LooksLikePromptDump(trimmed) {
		e.debug("GUARD", "dropped prompt dump transcript")
		return Reply{Lang: st.Lang, Source: "guard"}, nil
	}

	if lang, ok := DetectExplicitLanguagePick(trimmed); ok {
		st.Lang = lang
		st.LangCandidate = ""
		st.LangStreak = 0
		if st.Phase == PhaseLanguageSelect {
			st.Phase = PhaseOrdering
			st.ClearSlot()
			return e.reply("policy", Greeting(lang, e.tenantName)), nil
		}
		if lang == "nl" {
			return e.reply("policy", "Prima, we gaan verder in het Nederlands."), nil
		}
		return e.reply("policy", "Sure, switching to English."), nil
	}

	// Quantity corrections apply to the most recent line. They also settle
	// any open confirmation question about it.
	if qty, ok := ParseQuantityChange(trimmed); ok {
		if target, found := e.quantityTarget(); found {
			if st.Slot.Kind == SlotCartConfirm || st.Slot.Kind == SlotCheckoutConfirm {
				st.ClearSlot()
			}
			st.Order.SetQty(target, qty)
			name := e.menu.DisplayName(target)
			if st.Lang == "nl" {
				return e.reply("slot", fmt.Sprintf("Prima, %d x %s.", qty, name)), nil
			}
			return e.reply("slot", fmt.Sprintf("Done, %d x %s.", qty, name)), nil
		}
	}

	if r, handled := e.handleOffer(trimmed); handled {
		return r, nil
	}
	if r, handled, err := e.handleSlot(trimmed); handled {
		return r, err
	}

	if lang, changed := MaybeUpdateLanguage(st, e.langTuning, trimmed); changed {
		e.debug("LANG", "reply language switched to "+lang)
	}

	if isCheckoutIntent(trimmed) {
		if st.FulfillmentMode == "" {
			st.ArmSlot(Slot{Kind: SlotFulfillment})
			if st.Lang == "nl" {
				return e.reply("slot", "Wordt het afhalen of bezorgen?"), nil
			}
			return e.reply("slot", "Will that be pickup or delivery?"), nil
		}
		if st.CustomerName == "" {
			st.ArmSlot(Slot{Kind: SlotName})
			if st.Lang == "nl" {
				return e.reply("slot", "Op welke naam mag de bestelling?"), nil
			}
			return e.reply("slot", "What name should I put the order under?"), nil
		}
		return e.askCheckoutConfirm(), nil
	}

	if DetectExplicitRemove(trimmed) {
		if r, ok := e.removeFromOrder(trimmed); ok {
			return r, nil
		}
		// Removal asked but nothing resolved; let the agent clarify.
		return e.agentFallback(ctx, trimmed)
	}

	if DetectOrderSummary(trimmed) {
		return e.reply("deterministic", st.Order.Summary(e.menu, st.Lang)), nil
	}

	if cat, ok := DetectCategoryRequest(trimmed); ok {
		if r, handled := e.listCategory(cat); handled {
			return r, nil
		}
	}

	if IsRecommendationAsk(trimmed) {
		if text, ok := StickyRecommendation(st, e.menu); ok {
			return e.reply("policy", text), nil
		}
		return e.agentFallback(ctx, trimmed)
	}

	// A generic naan opens the variant micro-flow, but only for the naan:
	// every other item resolved in the same utterance lands in the cart
	// first.
	if DetectGenericNaanRequest(trimmed) {
		qty := 0
		var added []Line
		for _, sp := range e.menu.ResolveSpans(trimmed) {
			if menu.IsGenericNaanAlias(sp.Alias) {
				qty = sp.Qty
				continue
			}
			st.Order.Add(sp.ItemID, sp.Qty)
			added = append(added, Line{ItemID: sp.ItemID, Name: e.menu.DisplayName(sp.ItemID), Qty: sp.Qty})
		}
		if qty < 1 {
			qty = 1
			if len(added) == 0 {
				if n, ok := menu.FindQuantity(menu.Tokens(trimmed)); ok {
					qty = n
				}
			}
		}
		st.ArmSlot(Slot{Kind: SlotNaanVariant, Qty: qty})
		short := len(added) == 0 && len(menu.Tokens(trimmed)) <= 4
		prompt := naanOptionsPrompt(e.menu, st.Lang, short)
		if len(added) > 0 {
			parts := make([]string, 0, len(added))
			for _, l := range added {
				parts = append(parts, fmt.Sprintf("%d x %s", l.Qty, l.Name))
			}
			if st.Lang == "nl" {
				prompt = "Toegevoegd: " + strings.Join(parts, ", ") + ". " + prompt
			} else {
				prompt = "Added " + strings.Join(parts, ", ") + ". " + prompt
			}
		}
		return e.reply("slot", prompt), nil
	}

	decision := e.router.Decide(trimmed, false)
	e.routed(string(decision.Route), decision.Result.ElapsedMs)
	if decision.Route == route.RouteDeterministic {
		if r, handled := e.applyDeterministic(decision.Result); handled {
			return r, nil
		}
	}

	return e.agentFallback(ctx, trimmed)
}

func (e *Engine) quantityTarget() (string, bool) {
	if id, _, ok := e.state.Order.RecentDelta(correctionWindow); ok {
		return id, true
	}
	return e.state.Order.SoleItem()
}

func (e *Engine) handleOffer(text string) (Reply, bool) {
	st := e.state
	if st.OfferedItemID == "" {
		return Reply{}, false
	}
	if !st.OfferedAt.IsZero() && time.Since(st.OfferedAt) > offerTTL {
		st.ClearOffer()
		return Reply{}, false
	}
	if IsAffirmative(text) {
		id, label := st.OfferedItemID, st.OfferedLabel
		st.ClearOffer()
		st.Order.Add(id, 1)
		if st.Lang == "nl" {
			return e.reply("slot", fmt.Sprintf("Prima, een %s erbij. Nog iets anders?", label)), true
		}
		return e.reply("slot", fmt.Sprintf("Great, added a %s. Anything else?", label)), true
	}
	if IsNegative(text) {
		st.ClearOffer()
		if st.Lang == "nl" {
			return e.reply("slot", "Geen probleem. Nog iets anders?"), true
		}
		return e.reply("slot", "No problem. Anything else?"), true
	}
	// Any other utterance abandons the offer and flows on.
	st.ClearOffer()
	return Reply{}, false
}

func (e *Engine) handleSlot(text string) (Reply, bool, error) {
	st := e.state
	switch st.Slot.Kind {
	case SlotSpice:
		if pref, ok := ParseSpice(text); ok {
			itemID, label := st.Slot.ItemID, st.Slot.Label
			st.SpiceNotes[itemID] = pref
			st.ClearSlot()
			if st.Lang == "nl" {
				return e.reply("slot", fmt.Sprintf("Genoteerd, %s %s.", label, pref)), true, nil
			}
			return e.reply("slot", fmt.Sprintf("Noted, %s %s.", label, pref)), true, nil
		}
		st.ClearSlot()
		return Reply{}, false, nil

	case SlotFulfillment:
		if mode, ok := ParseFulfillment(text); ok {
			st.FulfillmentMode = mode
			st.ClearSlot()
			if st.CustomerName == "" {
				st.ArmSlot(Slot{Kind: SlotName})
				if st.Lang == "nl" {
					return e.reply("slot", "Op welke naam mag de bestelling?"), true, nil
				}
				return e.reply("slot", "What name should I put the order under?"), true, nil
			}
			return e.askCheckoutConfirm(), true, nil
		}
		st.Slot.Attempts++
		if st.Slot.Attempts < 2 {
			if st.Lang == "nl" {
				return e.reply("slot", "Sorry, wordt het afhalen of bezorgen?"), true, nil
			}
			return e.reply("slot", "Sorry, is that pickup or delivery?"), true, nil
		}
		st.ClearSlot()
		return Reply{}, false, nil

	case SlotName:
		if name, ok := ExtractCustomerName(text); ok {
			st.CustomerName = name
			st.ClearSlot()
			if st.FulfillmentMode != "" {
				return e.askCheckoutConfirm(), true, nil
			}
			if st.Lang == "nl" {
				return e.reply("slot", fmt.Sprintf("Dank u, %s. Nog iets anders?", name)), true, nil
			}
			return e.reply("slot", fmt.Sprintf("Thank you, %s. Anything else?", name)), true, nil
		}
		st.Slot.Attempts++
		if st.Slot.Attempts < 2 {
			if st.Lang == "nl" {
				return e.reply("slot", "Sorry, welke naam mag ik noteren?"), true, nil
			}
			return e.reply("slot", "Sorry, what name should I note down?"), true, nil
		}
		st.ClearSlot()
		return Reply{}, false, nil

	case SlotNaanVariant:
		if isSpicyQuestion(text) || looksLikeQuestion(text) {
			return e.reply("slot", naanSpicyAnswer(st.Lang)+" "+naanOptionsPrompt(e.menu, st.Lang, true)), true, nil
		}
		if variant, ok := ExtractNaanVariant(text); ok {
			if choice, found := naanVariantItem(e.menu, variant); found {
				qty := st.Slot.Qty
				if qty < 1 {
					qty = 1
				}
				st.ClearSlot()
				st.Order.Add(choice.ItemID, qty)
				st.ArmSlot(Slot{Kind: SlotCartConfirm, ItemID: choice.ItemID, Label: choice.Name, Qty: qty})
				if st.Lang == "nl" {
					return e.reply("slot", fmt.Sprintf("Toegevoegd: %d x %s. Klopt dat?", qty, choice.Name)), true, nil
				}
				return e.reply("slot", fmt.Sprintf("Added %d x %s. Is that right?", qty, choice.Name)), true, nil
			}
		}
		st.ClearSlot()
		return Reply{}, false, nil

	case SlotCartConfirm:
		id, label, qty := st.Slot.ItemID, st.Slot.Label, st.Slot.Qty
		if IsAffirmative(text) {
			st.ClearSlot()
			if st.Lang == "nl" {
				return e.afterCartChange("Prima."), true, nil
			}
			return e.afterCartChange("Great."), true, nil
		}
		if e.hasActionableIntent(text) {
			// New intent exits the latch; the confirmed add stays.
			st.ClearSlot()
			return Reply{}, false, nil
		}
		if IsNegative(text) {
			st.ClearSlot()
			st.Order.SetQty(id, st.Order.Qty(id)-qty)
			if st.Lang == "nl" {
				return e.reply("slot", fmt.Sprintf("Geen probleem, de %s is weer verwijderd. Wat wilt u in plaats daarvan?", label)), true, nil
			}
			return e.reply("slot", fmt.Sprintf("No problem, I took the %s off again. What would you like instead?", label)), true, nil
		}
		st.Slot.Attempts++
		if st.Slot.Attempts < 2 {
			if st.Lang == "nl" {
				return e.reply("slot", fmt.Sprintf("Klopt %d x %s zo?", qty, label)), true, nil
			}
			return e.reply("slot", fmt.Sprintf("Just to check, %d x %s, is that right?", qty, label)), true, nil
		}
		// Retries exhausted; keep the add and move on.
		st.ClearSlot()
		if st.Lang == "nl" {
			return e.reply("slot", fmt.Sprintf("Ik houd %d x %s aan. Nog iets anders?", qty, label)), true, nil
		}
		return e.reply("slot", fmt.Sprintf("I'll keep %d x %s. Anything else?", qty, label)), true, nil

	case SlotCheckoutConfirm:
		if IsAffirmative(text) {
			st.ClearSlot()
			return e.finishOrder(), true, nil
		}
		if e.hasActionableIntent(text) {
			st.ClearSlot()
			return Reply{}, false, nil
		}
		if IsNegative(text) {
			st.ClearSlot()
			if st.Lang == "nl" {
				return e.reply("slot", "Geen probleem. Wat wilt u aanpassen?"), true, nil
			}
			return e.reply("slot", "No problem. What would you like to change?"), true, nil
		}
		st.Slot.Attempts++
		if st.Slot.Attempts < 2 {
			if st.Lang == "nl" {
				return e.reply("slot", "Zal ik de bestelling zo doorzetten?"), true, nil
			}
			return e.reply("slot", "Shall I place the order as it is?"), true, nil
		}
		// Retries exhausted; proceed rather than loop.
		st.ClearSlot()
		return e.finishOrder(), true, nil

	case SlotLanguage:
		// Explicit picks were handled above; anything else reprompts once.
		st.Slot.Attempts++
		if st.Slot.Attempts < 2 {
			return e.reply("slot", "Would you like English or Nederlands?"), true, nil
		}
		st.ClearSlot()
		st.Phase = PhaseOrdering
		return Reply{}, false, nil
	}
	return Reply{}, false, nil
}

// hasActionableIntent reports whether an utterance carries a concrete cart
// instruction, which releases an open confirmation latch.
func (e *Engine) hasActionableIntent(text string) bool {
	if DetectExplicitRemove(text) {
		return true
	}
	if _, ok := ParseQuantityChange(text); ok {
		return true
	}
	return len(e.menu.ResolveSpans(text)) > 0
}

// applyDeterministic turns a parser match into cart mutations and a reply.
func (e *Engine) applyDeterministic(res route.Result) (Reply, bool) {
	st := e.state
	switch res.MatchedKind {
	case route.KindIntent:
		switch res.MatchedValue {
		case "order_summary":
			return e.reply("deterministic", st.Order.Summary(e.menu, st.Lang)), true
		case "end_call":
			return e.askCheckoutConfirm(), true
		}
		return Reply{}, false
	case route.KindValue:
		if res.MatchedValue == "pickup" || res.MatchedValue == "delivery" {
			st.FulfillmentMode = res.MatchedValue
			if st.Lang == "nl" {
				mode := "afhalen"
				if res.MatchedValue == "delivery" {
					mode = "bezorgen"
				}
				return e.reply("deterministic", fmt.Sprintf("Prima, %s dus.", mode)), true
			}
			return e.reply("deterministic", fmt.Sprintf("Got it, %s.", res.MatchedValue)), true
		}
		return Reply{}, false
	case route.KindItem:
		if len(res.Spans) == 0 {
			return Reply{}, false
		}
		added := make([]Line, 0, len(res.Spans))
		for _, sp := range res.Spans {
			st.Order.Add(sp.ItemID, sp.Qty)
			added = append(added, Line{ItemID: sp.ItemID, Name: e.menu.DisplayName(sp.ItemID), Qty: sp.Qty})
		}
		return e.confirmAdded(added), true
	}
	return Reply{}, false
}

// confirmAdded phrases an add confirmation and arms the next micro-flow:
// a spice question for curries, otherwise a single upsell offer.
func (e *Engine) confirmAdded(added []Line) Reply {
	st := e.state
	parts := make([]string, 0, len(added))
	for _, l := range added {
		parts = append(parts, fmt.Sprintf("%d x %s", l.Qty, l.Name))
	}
	var text string
	if st.Lang == "nl" {
		text = "Toegevoegd: " + strings.Join(parts, ", ") + "."
	} else {
		text = "Added " + strings.Join(parts, ", ") + "."
	}

	first := added[0]
	if it, ok := e.menu.Items[first.ItemID]; ok && strings.EqualFold(it.Category, "curry") && st.SpiceNotes[first.ItemID] == "" {
		st.ArmSlot(Slot{Kind: SlotSpice, ItemID: first.ItemID, Label: first.Name, Qty: first.Qty})
		if st.Lang == "nl" {
			return e.reply("deterministic", text+" Hoe pittig wilt u de "+first.Name+": mild, medium of heet?")
		}
		return e.reply("deterministic", text+" How spicy would you like the "+first.Name+": mild, medium or hot?")
	}

	if id, label, ok := FollowupOffer(st, e.menu); ok {
		st.OfferedItemID = id
		st.OfferedLabel = label
		st.OfferedAt = time.Now()
		return e.reply("deterministic", text+" "+offerPrompt(st.Lang, label))
	}
	if st.Lang == "nl" {
		return e.reply("deterministic", text+" Nog iets anders?")
	}
	return e.reply("deterministic", text+" Anything else?")
}

// afterCartChange continues the flow after a confirmed cart change, arming
// the next upsell offer when one is available.
func (e *Engine) afterCartChange(prefix string) Reply {
	st := e.state
	if id, label, ok := FollowupOffer(st, e.menu); ok {
		st.OfferedItemID = id
		st.OfferedLabel = label
		st.OfferedAt = time.Now()
		return e.reply("slot", prefix+" "+offerPrompt(st.Lang, label))
	}
	if st.Lang == "nl" {
		return e.reply("slot", prefix+" Nog iets anders?")
	}
	return e.reply("slot", prefix+" Anything else?")
}

func (e *Engine) removeFromOrder(text string) (Reply, bool) {
	st := e.state
	spans := e.menu.ResolveSpans(text)
	removed := make([]string, 0, len(spans))
	for _, sp := range spans {
		if st.Order.Qty(sp.ItemID) > 0 {
			st.Order.Remove(sp.ItemID)
			removed = append(removed, e.menu.DisplayName(sp.ItemID))
		}
	}
	if len(removed) == 0 {
		return Reply{}, false
	}
	joined := strings.Join(removed, ", ")
	if st.Lang == "nl" {
		return e.reply("deterministic", fmt.Sprintf("Verwijderd: %s. %s", joined, st.Order.Summary(e.menu, st.Lang))), true
	}
	return e.reply("deterministic", fmt.Sprintf("Removed %s. %s", joined, st.Order.Summary(e.menu, st.Lang))), true
}

func (e *Engine) listCategory(category string) (Reply, bool) {
	st := e.state
	names := e.menu.ByCategory(category)
	if len(names) == 0 {
		return Reply{}, false
	}
	if len(names) > 4 {
		names = names[:4]
	}
	st.LastCategory = category
	st.LastCategoryItems = names
	joined := strings.Join(names, ", ")
	if st.Lang == "nl" {
		return e.reply("deterministic", fmt.Sprintf("We hebben bijvoorbeeld %s. Zegt een van deze u iets?", joined)), true
	}
	return e.reply("deterministic", fmt.Sprintf("We have a few great options like %s. Do any of those sound good?", joined)), true
}

// askCheckoutConfirm reads the order back and latches the final yes/no
// before anything is placed. An empty order has nothing to confirm.
func (e *Engine) askCheckoutConfirm() Reply {
	st := e.state
	if st.Order.IsEmpty() {
		return e.finishOrder()
	}
	st.ArmSlot(Slot{Kind: SlotCheckoutConfirm})
	summary := st.Order.Summary(e.menu, st.Lang)
	if st.Lang == "nl" {
		return e.reply("slot", summary+" Zal ik de bestelling zo doorzetten?")
	}
	return e.reply("slot", summary+" Shall I place the order?")
}

func (e *Engine) finishOrder() Reply {
	st := e.state
	summary := st.Order.Summary(e.menu, st.Lang)
	r := e.reply("deterministic", summary+" "+Goodbye(st.Lang))
	r.EndCall = true
	return r
}

func (e *Engine) agentFallback(ctx context.Context, text string) (Reply, error) {
	st := e.state
	if e.chat == nil {
		if st.Lang == "nl" {
			return e.reply("agent", "Sorry, dat heb ik niet goed verstaan. Wat wilt u bestellen?"), nil
		}
		return e.reply("agent", "Sorry, I did not quite catch that. What would you like to order?"), nil
	}

	system := SystemGuard(st, e.menu)
	raw, err := e.chat.Complete(ctx, system, text)
	if err != nil {
		return Reply{}, fmt.Errorf("agent fallback: %w", err)
	}
	parsed, err := ParseAgentReply(raw)
	if err != nil {
		e.debug("AGENT", err.Error())
		if st.Lang == "nl" {
			return e.reply("agent", "Sorry, kunt u dat anders zeggen?"), nil
		}
		return e.reply("agent", "Sorry, could you say that differently?"), nil
	}
	parsed = sanitizeAgentReply(parsed, text)

	for _, add := range parsed.Add {
		if id, ok := e.menu.Lookup(menu.Normalize(add.Name)); ok {
			st.Order.Add(id, add.Qty)
		} else if spans := e.menu.ResolveSpans(add.Name); len(spans) == 1 {
			st.Order.Add(spans[0].ItemID, add.Qty)
		}
	}
	for _, rem := range parsed.Remove {
		if id, ok := e.menu.Lookup(menu.Normalize(rem)); ok {
			st.Order.Remove(id)
		}
	}
	e.routed("agent", 0)
	return e.reply("agent", parsed.Reply), nil
}

func (e *Engine) reply(source, text string) Reply {
	return Reply{Text: text, Lang: e.state.Lang, Source: source}
}

func (e *Engine) debug(category, message string) {
	if e.onDebug != nil {
		e.onDebug(category, message)
	}
}

func (e *Engine) routed(source string, elapsedMs float64) {
	if e.onRouted != nil {
		e.onRouted(source, elapsedMs)
	}
}

func isCheckoutIntent(text string) bool {
	n := menu.Normalize(text)
	for _, m := range checkoutMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

func isSpicyQuestion(text string) bool {
	n := menu.Normalize(text)
	for _, m := range []string{"spicy", "hot", "heet", "pittig"} {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

func looksLikeQuestion(text string) bool {
	raw := strings.TrimSpace(text)
	if strings.Contains(raw, "?") {
		return true
	}
	n := menu.Normalize(raw)
	for _, m := range []string{"which", "what", "welke", "wat", "hoe", "variety", "soorten"} {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}
