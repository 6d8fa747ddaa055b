package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags log records with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested operator next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSignal is the structured logging key for signal marker kinds.
	FieldSignal = "signal"
	// FieldBackend is the structured logging key for synthesis/summarizer backend names.
	FieldBackend = "backend"
	// FieldVoice is the structured logging key for voice identifiers.
	FieldVoice = "voice"
	// FieldRequestID is the structured logging key for announcement correlation identifiers.
	FieldRequestID = "request_id"
)
