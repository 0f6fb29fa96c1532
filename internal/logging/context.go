package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for check run identifiers.
	FieldRunID = "run_id"
	// FieldPath is the standardized structured logging key for the file under decision.
	FieldPath = "path"
	// FieldAction is the standardized structured logging key for decision engine actions.
	FieldAction = "action"
	// FieldStatus is the standardized structured logging key for verdicts.
	FieldStatus = "status"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
