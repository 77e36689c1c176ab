package listener

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how a listening session decides it is complete.
type Mode int

const (
	// ModeFixedCount stops after exactly Count records. There is no idle
	// detection: a session that asks for more records than will ever
	// arrive blocks until its context is canceled.
	ModeFixedCount Mode = iota

	// ModeFixedBatches stops once at least Batches distinct batch ids have
	// been seen and every batch seen so far is satisfied. The session may
	// run past Batches distinct ids while an earlier batch is still open;
	// interleaved batches are tolerated, not rejected.
	ModeFixedBatches

	// ModeUntilIdle performs one mandatory blocking receive, then stops at
	// the first receive that stays silent for IdleTimeout.
	ModeUntilIdle
)

// String returns the mode name for logs.
func (m Mode) String() string {
	switch m {
	case ModeFixedCount:
		return "fixed-count"
	case ModeFixedBatches:
		return "fixed-batches"
	case ModeUntilIdle:
		return "until-idle"
	default:
		return "unknown"
	}
}

// Policy is the tagged completion policy consumed by the session runner.
// Construct one with FixedCount, FixedBatches, UntilIdle or Default.
type Policy struct {
	Mode        Mode
	Count       int
	Batches     int
	IdleTimeout time.Duration
}

// FixedCount returns a policy that collects exactly n records.
func FixedCount(n int) Policy {
	return Policy{Mode: ModeFixedCount, Count: n}
}

// FixedBatches returns a policy that collects until b distinct batches have
// been seen and all of them are satisfied.
func FixedBatches(b int) Policy {
	return Policy{Mode: ModeFixedBatches, Batches: b}
}

// UntilIdle returns a policy that collects until no record arrives for t.
func UntilIdle(t time.Duration) Policy {
	return Policy{Mode: ModeUntilIdle, IdleTimeout: t}
}

// Default is the no-argument policy: a single batch.
func Default() Policy {
	return FixedBatches(1)
}

// normalize validates the policy and fills in usable values. A batch count
// below 1 falls back to 1; a negative record count or a non-positive idle
// timeout cannot be given a meaning and is rejected.
func (p Policy) normalize() (Policy, error) {
	switch p.Mode {
	case ModeFixedCount:
		if p.Count < 0 {
			return p, fmt.Errorf("listener: fixed-count policy with negative count %d", p.Count)
		}
	case ModeFixedBatches:
		if p.Batches < 1 {
			p.Batches = 1
		}
	case ModeUntilIdle:
		if p.IdleTimeout <= 0 {
			return p, fmt.Errorf("listener: until-idle policy with non-positive timeout %v", p.IdleTimeout)
		}
	default:
		return p, errors.New("listener: unknown policy mode")
	}
	return p, nil
}
