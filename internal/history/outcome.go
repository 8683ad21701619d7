package history

// Status classifies how a best-effort store operation ended.
type Status int

const (
	// StatusOK means the operation did what was asked.
	StatusOK Status = iota
	// StatusSkipped means the input was ineligible and nothing was written.
	StatusSkipped
	// StatusHealed means corrupt or malformed persisted data was cleaned up.
	StatusHealed
	// StatusRecovered means a save only succeeded after dropping older items.
	StatusRecovered
	// StatusFailed means the substrate refused the operation.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusHealed:
		return "healed"
	case StatusRecovered:
		return "recovered"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports the result of a store operation. Err holds the absorbed
// cause for StatusFailed and StatusRecovered.
type Outcome struct {
	Status Status
	Err    error
}

// Failed reports whether the operation could not be completed.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

func ok() Outcome { return Outcome{Status: StatusOK} }

func failed(err error) Outcome { return Outcome{Status: StatusFailed, Err: err} }
