// Package status defines the workflow audit trail: the ordered set of
// enrichment steps and the events appended while a product moves
// through them.
package status

import "time"

// Step identifies one stage of the enrichment workflow.
type Step string

const (
	StepIngest    Step = "ingest"
	StepExtract   Step = "extract"
	StepValidate  Step = "validate"
	StepCopywrite Step = "copywrite"
	StepLocalize  Step = "localize"
	StepPublish   Step = "publish"
)

// WorkflowSteps lists the canonical steps in execution order.
var WorkflowSteps = []Step{
	StepIngest,
	StepExtract,
	StepValidate,
	StepCopywrite,
	StepLocalize,
	StepPublish,
}

// WorkflowEvent is a single append-only audit record for one product's
// run. Events are created once and never mutated; append order is
// chronological order.
type WorkflowEvent struct {
	Step      Step           `json:"step"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(step Step, message string, payload map[string]any) WorkflowEvent {
	return WorkflowEvent{
		Step:      step,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
