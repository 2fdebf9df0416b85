package domain

// Action enumerates supported animation actions.
type Action string

const (
	ActionTurn Action = "turn"
	ActionWave Action = "wave"
	ActionWalk Action = "walk"
)

// ValidAction reports whether a is one of the recognized actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionTurn, ActionWave, ActionWalk:
		return true
	}
	return false
}

// RequestKind enumerates generation request categories.
type RequestKind string

const (
	KindAnimate RequestKind = "animate"
	KindCompose RequestKind = "compose"
	KindTryon   RequestKind = "tryon"
)

// Request is a validated generation request. The HTTP boundary guarantees
// that Actions holds recognized values and DurationSeconds is within [3,6]
// before a Request reaches the pipeline; requests are immutable once
// submitted.
type Request struct {
	Kind            RequestKind
	SubjectID       string
	InputRef        string
	OverlayRef      string // garment reference, try-on only
	Actions         []Action
	DurationSeconds int
	AspectRatio     string
}

// PrimaryAction returns the first action of the request, or ActionTurn when
// none is set.
func (r Request) PrimaryAction() Action {
	if len(r.Actions) == 0 {
		return ActionTurn
	}
	return r.Actions[0]
}

// MetricAction is the action label used for telemetry. Multi-action and
// try-on requests aggregate under their kind rather than a single action.
func (r Request) MetricAction() string {
	switch r.Kind {
	case KindCompose, KindTryon:
		return string(r.Kind)
	}
	return string(r.PrimaryAction())
}
