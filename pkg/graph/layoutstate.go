package graph

// LayoutPhase is the lifecycle phase of the host's layout driver.
type LayoutPhase string

// Layout lifecycle phases.
const (
	PhaseInitial   LayoutPhase = "initial"
	PhaseLayingOut LayoutPhase = "laying_out"
	PhaseReady     LayoutPhase = "ready"
	PhaseError     LayoutPhase = "error"
)

// LayoutState tracks the layout lifecycle for one graph: a monotonic pass
// counter, the current phase, and the last failure message. The core never
// drives layout itself; the host's layout driver calls the transitions below,
// and the smart-collapse selector reads LayoutCount for its one-shot
// eligibility check.
type LayoutState struct {
	LayoutCount int         `json:"layout_count"`
	Phase       LayoutPhase `json:"phase"`
	LastError   string      `json:"last_error,omitempty"`
}

// LayoutState returns a copy of the current layout state.
func (g *Graph) LayoutState() LayoutState {
	return g.layout
}

// IsFirstLayout reports whether no layout pass has completed yet.
func (g *Graph) IsFirstLayout() bool {
	return g.layout.LayoutCount == 0
}

// BeginLayout marks the start of a layout pass.
func (g *Graph) BeginLayout() {
	g.layout.Phase = PhaseLayingOut
	g.layout.LastError = ""
}

// CompleteLayout marks a successful layout pass, incrementing the monotonic
// pass counter. After the first completion the smart-collapse heuristic is
// permanently out of its cold-start window.
func (g *Graph) CompleteLayout() {
	g.layout.LayoutCount++
	g.layout.Phase = PhaseReady
	g.layout.LastError = ""
}

// FailLayout records a failed layout pass. The counter is not incremented:
// a failed pass does not consume the smart-collapse cold-start window.
func (g *Graph) FailLayout(msg string) {
	g.layout.Phase = PhaseError
	g.layout.LastError = msg
}
