// Package listener implements the Competitive Companion receive protocol:
// a single-port loopback HTTP receiver that accepts an unbounded sequence of
// POSTed problem payloads and decides, from payload content alone, when a
// logical group of pushes is complete.
//
// The extension never sends a "done" signal. Instead each payload declares
// the batch it belongs to (an opaque id) and the total number of payloads
// that batch will contain. A Listener accumulates records and applies one of
// three completion policies to terminate the session:
//
//	FixedCount(n)   exactly n records, no idle detection
//	FixedBatches(b) at least b distinct batches, all of them satisfied
//	UntilIdle(t)    one mandatory record, then stop at the first gap of t
//
// A session binds the port once and runs a single accept loop feeding an
// internal channel; the session runner consumes records one at a time, so no
// two receives are ever in flight concurrently and the batch ledger needs no
// locking.
//
// Basic usage:
//
//	l := listener.New(listener.DefaultPort)
//	records, err := l.ListenBatches(ctx, 1)
//	if err != nil {
//		// BindError: port busy; PayloadError: a body was not valid JSON
//	}
//	for _, rec := range records {
//		// rec.Body holds the raw payload for downstream processing
//	}
package listener
