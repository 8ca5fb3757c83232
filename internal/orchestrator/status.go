// internal/orchestrator/status.go
package orchestrator

// Phase is the pipeline's externally visible state. Modeling busy+message as
// one tagged value keeps impossible combinations (busy with no message, idle
// with a stale message) unrepresentable.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThinking
	PhaseCrafting
)

// Status pairs a phase with its human-readable message.
type Status struct {
	Phase   Phase
	Message string
}

// Idle is the quiescent status.
func Idle() Status {
	return Status{Phase: PhaseIdle}
}

// Thinking covers the conversational round trip.
func Thinking() Status {
	return Status{Phase: PhaseThinking, Message: "Thinking..."}
}

// Crafting covers story generation.
func Crafting() Status {
	return Status{Phase: PhaseCrafting, Message: "Crafting your story..."}
}

// Busy reports whether a pipeline run is in flight.
func (s Status) Busy() bool {
	return s.Phase != PhaseIdle
}
