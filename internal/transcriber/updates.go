package transcriber

import "github.com/jcllobet/mother-in-law-decoder/internal/session"

// Kind discriminates display updates.
type Kind int

const (
	// KindTokens carries new recognized text.
	KindTokens Kind = iota
	// KindStatus reports a pipeline state change.
	KindStatus
	// KindError reports a transient, non-fatal problem.
	KindError
	// KindFatal reports the error that ended the run.
	KindFatal
	// KindDone is the last update before the channel closes.
	KindDone
)

// Status values carried by KindStatus updates.
const (
	StatusLive         = "live"
	StatusReconnecting = "reconnecting"
	StatusDraining     = "draining"
)

// Update is one message from the engine to the display layer.
type Update struct {
	Kind Kind

	// Tokens payload.
	Finals   []session.Event
	Interims []session.Event
	Total    int
	Dropped  uint64

	// Status payload.
	Status  string
	Attempt int

	// Error payload.
	Err error
}
