package pipeline

import "strings"

// ValidationError reports required product fields that are missing or
// blank. It is fatal for that product's run: the pipeline aborts at
// the validate stage and produces no enriched output. The batch
// processor catches it, logs, and moves on to the next record.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
