package route

// Route says which engine handles the utterance.
type Route string

const (
	RouteDeterministic Route = "deterministic"
	RouteAgent         Route = "agent"
)

// Decision is the routing verdict for one utterance.
type Decision struct {
	Route  Route
	Result Result
	Why    string
}

// Orchestrator decides between the deterministic parser and the agent
// fallback. The deterministic path wins whenever the parser has an exact
// match and no dialogue slot owns the utterance.
type Orchestrator struct {
	parser *Parser
}

// NewOrchestrator wraps a parser.
func NewOrchestrator(parser *Parser) *Orchestrator {
	return &Orchestrator{parser: parser}
}

// Decide routes one utterance. slotArmed means an open micro-flow (spice,
// fulfillment, name, variant, language) currently owns user input.
func (o *Orchestrator) Decide(text string, slotArmed bool) Decision {
	if slotArmed {
		return Decision{Route: RouteAgent, Why: "slot_armed"}
	}
	res := o.parser.Parse(text)
	if res.Matched() {
		return Decision{Route: RouteDeterministic, Result: res, Why: "exact_alias"}
	}
	return Decision{Route: RouteAgent, Result: res, Why: string(res.Reason)}
}
