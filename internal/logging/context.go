package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. history_save_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldItemID is the standardized key for history item identifiers.
	FieldItemID = "item_id"
	// FieldStorageKey is the standardized key for substrate keys.
	FieldStorageKey = "storage_key"
	// FieldBytes is the standardized key for byte counts.
	FieldBytes = "bytes"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
