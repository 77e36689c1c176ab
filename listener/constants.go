package listener

// Default values used by Listener.
const (
	// DefaultPort is the port Competitive Companion pushes to by default.
	DefaultPort = 10046

	// DefaultRecordBuffer is the buffer size for the record channel between
	// the accept loop and the session runner. Pushes beyond this number
	// queue inside the HTTP handler until the runner catches up.
	DefaultRecordBuffer = 16
)
