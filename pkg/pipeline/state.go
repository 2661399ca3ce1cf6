package pipeline

// RunState is the orchestrator's lifecycle state.
type RunState int

const (
	StateIdle RunState = iota
	StateCapturing
	StateEncoding
	StateDone
	StateFailed
)

// String returns the lower-case state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions happen in this run.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Stage labels reported alongside progress percentages.
const (
	LabelPreparing = "preparing"
	LabelCapturing = "capturing frames"
	LabelEncoding  = "encoding APNG"
	LabelDone      = "done"
)
