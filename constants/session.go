package constants

// SessionState is the canonical state of one import session.
type SessionState string

// Stable values.
const (
	SessionIdle             SessionState = "IDLE"              // no dialog open
	SessionAwaitingDocument SessionState = "AWAITING_DOCUMENT" // dialog open, no file yet
	SessionExtracting       SessionState = "EXTRACTING"        // extraction call in flight
	SessionStaged           SessionState = "STAGED"            // candidates under review
	SessionCommitted        SessionState = "COMMITTED"         // batch merged into the table
)
