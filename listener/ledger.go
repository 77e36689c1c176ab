package listener

import "fmt"

// ledgerEntry tracks one batch within a session.
type ledgerEntry struct {
	remaining int
	total     int
}

// ledger is the session-scoped batch bookkeeping: a mapping from batch id
// to (remaining, total). An entry is created on first sighting of its id
// with remaining = total-1, because the creating record already counts, and
// is satisfied when remaining reaches 0. Invariant: 0 <= remaining <= total.
//
// The ledger is discarded with its session and never persisted. It requires
// no locking; the session runner observes records strictly one at a time.
type ledger struct {
	entries map[string]*ledgerEntry
}

func newLedger() *ledger {
	return &ledger{entries: make(map[string]*ledgerEntry)}
}

// ledgerEvent describes what a single observe call did.
type ledgerEvent struct {
	// opened is set when the sighting created the batch's entry.
	opened bool

	// completed is set when the sighting brought remaining to 0. It fires
	// at most once per batch.
	completed bool
}

// observe records one sighting of a batch id. The declared size is consulted
// only when the sighting opens the batch; later records' declarations are
// ignored, whatever they claim. Opening a batch with a size below 1 fails
// with ErrInvalidBatchSize rather than underflowing the remaining counter.
//
// Records delivered beyond a batch's declared total clamp remaining at 0
// instead of going negative, so an over-delivering batch can never block
// completion of the session.
func (l *ledger) observe(id string, size int) (ledgerEvent, error) {
	e, ok := l.entries[id]
	if !ok {
		if size < 1 {
			return ledgerEvent{}, fmt.Errorf("%w: batch %q declared size %d", ErrInvalidBatchSize, id, size)
		}
		l.entries[id] = &ledgerEntry{remaining: size - 1, total: size}
		return ledgerEvent{opened: true, completed: size == 1}, nil
	}

	if e.remaining > 0 {
		e.remaining--
		return ledgerEvent{completed: e.remaining == 0}, nil
	}
	return ledgerEvent{}, nil
}

// distinct returns the number of batch ids seen so far.
func (l *ledger) distinct() int {
	return len(l.entries)
}

// satisfied reports whether every batch seen so far is complete.
func (l *ledger) satisfied() bool {
	for _, e := range l.entries {
		if e.remaining > 0 {
			return false
		}
	}
	return true
}
