package route

import (
	"strings"
	"time"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// Status reports whether the parser produced a usable match.
type Status string

const (
	StatusMatch   Status = "MATCH"
	StatusNoMatch Status = "NO_MATCH"
)

// Reason explains the status.
type Reason string

const (
	ReasonOK         Reason = "OK"
	ReasonEmptyInput Reason = "EMPTY_INPUT"
	ReasonNoAlias    Reason = "NO_ALIAS"
)

// Kind classifies what an alias resolved to.
type Kind string

const (
	KindItem   Kind = "item"
	KindIntent Kind = "intent"
	KindValue  Kind = "value"
)

// Payload prefixes for non-item alias targets.
const (
	intentPrefix = "__INTENT__:"
	valuePrefix  = "__VALUE__:"
)

// Result is the outcome of one deterministic parse attempt.
type Result struct {
	Status       Status
	Reason       Reason
	MatchedKind  Kind
	MatchedValue string
	Spans        []menu.Span
	ElapsedMs    float64
}

// Matched reports whether the result carries a usable match.
func (r Result) Matched() bool { return r.Status == StatusMatch }

// Parser resolves utterances against a pre-normalized alias table in O(1)
// per alias. It never guesses: no exact alias, no match.
type Parser struct {
	snapshot *menu.Snapshot
}

// NewParser builds a parser over a menu snapshot.
func NewParser(snapshot *menu.Snapshot) *Parser {
	return &Parser{snapshot: snapshot}
}

// Parse resolves text. Whole-utterance intent and value aliases are checked
// first, then item spans.
func (p *Parser) Parse(text string) Result {
	start := time.Now()
	done := func(r Result) Result {
		r.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000.0
		return r
	}

	norm := menu.Normalize(text)
	if norm == "" {
		return done(Result{Status: StatusNoMatch, Reason: ReasonEmptyInput})
	}

	if p.snapshot != nil {
		if target, ok := p.snapshot.Lookup(norm); ok {
			if kind, value, special := classify(target); special {
				return done(Result{Status: StatusMatch, Reason: ReasonOK, MatchedKind: kind, MatchedValue: value})
			}
		}
		if spans := p.snapshot.ResolveSpans(norm); len(spans) > 0 {
			items := spans[:0:0]
			for _, sp := range spans {
				if kind, value, special := classify(sp.ItemID); special {
					// An embedded intent or value alias owns the whole turn.
					return done(Result{Status: StatusMatch, Reason: ReasonOK, MatchedKind: kind, MatchedValue: value})
				}
				items = append(items, sp)
			}
			return done(Result{Status: StatusMatch, Reason: ReasonOK, MatchedKind: KindItem, Spans: items})
		}
	}
	return done(Result{Status: StatusNoMatch, Reason: ReasonNoAlias})
}

// classify splits intent and value payloads out of an alias target.
func classify(target string) (Kind, string, bool) {
	if strings.HasPrefix(target, intentPrefix) {
		return KindIntent, strings.TrimPrefix(target, intentPrefix), true
	}
	if strings.HasPrefix(target, valuePrefix) {
		return KindValue, strings.TrimPrefix(target, valuePrefix), true
	}
	return KindItem, target, false
}
