package listener

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Listener owns a single loopback port and assembles POSTed payloads into a
// result sequence whose composition matches the caller's completion policy.
//
// A Listener is reusable: each Listen call binds the port, runs one session
// and releases the port on return, so two sequential sessions on the same
// port both succeed. Only one session may be active at a time.
type Listener struct {
	addr         string
	logger       *zap.Logger
	stats        StatsCollector
	recordBuffer int

	mu        sync.Mutex
	running   bool
	boundAddr string
}

// New creates a Listener for the given loopback port. Port 0 binds an
// ephemeral port; use Addr to discover it while a session is active.
func New(port int) *Listener {
	return &Listener{
		addr:         fmt.Sprintf("127.0.0.1:%d", port),
		recordBuffer: DefaultRecordBuffer,
	}
}

// WithLogger sets the logger for subsequent sessions. If not set, logging
// is discarded.
//
// Panics if called while a session is active.
func (l *Listener) WithLogger(logger *zap.Logger) *Listener {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		panic("listener: WithLogger cannot be called during an active session")
	}

	l.logger = logger
	return l
}

// WithStats sets the stats collector for subsequent sessions. If not set,
// no statistics are collected.
//
// Panics if called while a session is active.
func (l *Listener) WithStats(stats StatsCollector) *Listener {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		panic("listener: WithStats cannot be called during an active session")
	}

	l.stats = stats
	return l
}

// Addr returns the address the listener is bound to, or "" when no session
// is active.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.boundAddr
}

// ListenFixedCount collects exactly n records in arrival order. There is no
// idle detection: if fewer than n records ever arrive, the call blocks until
// ctx is canceled.
func (l *Listener) ListenFixedCount(ctx context.Context, n int) ([]Record, error) {
	return l.Listen(ctx, FixedCount(n))
}

// ListenBatches collects records until at least b distinct batches have been
// seen and every batch seen so far is satisfied.
func (l *Listener) ListenBatches(ctx context.Context, b int) ([]Record, error) {
	return l.Listen(ctx, FixedBatches(b))
}

// ListenUntilIdle collects one record unconditionally, then keeps collecting
// until no record arrives for t.
func (l *Listener) ListenUntilIdle(ctx context.Context, t time.Duration) ([]Record, error) {
	return l.Listen(ctx, UntilIdle(t))
}

// session carries the channels between the accept loop and the runner.
type session struct {
	records chan Record
	errs    chan error
	done    chan struct{}
}

// Listen runs one listening session under the given policy and returns the
// collected records in arrival order.
//
// The port is bound once at session start and released on return. A bind
// failure returns a BindError; a request body that is not valid JSON aborts
// the session with a PayloadError and no records. Fatal conditions are never
// retried.
//
// Listen must not be called while another session is active; doing so
// panics.
func (l *Listener) Listen(ctx context.Context, p Policy) ([]Record, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		panic("listener: concurrent listening sessions are not allowed")
	}
	l.running = true
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.stats == nil {
		l.stats = &NoOpStatsCollector{}
	}
	l.mu.Unlock()

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		return nil, &BindError{Addr: l.addr, Err: err}
	}

	logger := l.logger.With(
		zap.String("session", uuid.NewString()),
		zap.Stringer("policy", p.Mode),
		zap.String("addr", ln.Addr().String()),
	)

	sess := &session{
		records: make(chan Record, l.recordBuffer),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	srv := &http.Server{Handler: l.newHandler(sess, logger)}
	go func() {
		// Serve returns with ErrServerClosed (or a closed-listener error)
		// once the session shuts the server down.
		_ = srv.Serve(ln)
	}()

	l.mu.Lock()
	l.boundAddr = ln.Addr().String()
	l.mu.Unlock()

	logger.Info("session started")
	start := time.Now()

	records, err := l.collect(ctx, p, sess)

	close(sess.done)
	_ = srv.Close()

	l.stats.RecordSessionComplete(len(records), time.Since(start))
	l.mu.Lock()
	l.boundAddr = ""
	l.running = false
	l.mu.Unlock()

	if err != nil {
		logger.Warn("session aborted", zap.Error(err))
		return nil, err
	}

	logger.Info("session complete",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return records, nil
}

// newHandler builds the HTTP handler feeding one session. Every accepted
// request is answered 200 with an empty body before its record is handed to
// the runner; a body that fails to parse is answered 400 and aborts the
// session.
func (l *Listener) newHandler(sess *session, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST is accepted", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err == nil {
			var rec Record
			rec, err = parseRecord(body)
			if err == nil {
				w.WriteHeader(http.StatusOK)
				select {
				case sess.records <- rec:
				case <-sess.done:
				}
				return
			}
		}

		l.stats.RecordPayloadError()
		logger.Warn("rejecting request", zap.Error(err))
		http.Error(w, "malformed payload", http.StatusBadRequest)
		if _, ok := err.(*PayloadError); !ok {
			err = &PayloadError{Err: err}
		}
		select {
		case sess.errs <- err:
		default:
			// A fatal error is already queued; the session is over anyway.
		}
	})
}

// next performs one bounded receive. It returns ok=false with a nil error
// when no data is available: either the idle timeout elapsed or the record
// stream closed. Timeout 0 blocks until a record, an error or cancellation.
func (l *Listener) next(ctx context.Context, sess *session, timeout time.Duration) (Record, bool, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case rec, ok := <-sess.records:
		if !ok {
			return Record{}, false, nil
		}
		l.stats.RecordReceived()
		return rec, true, nil
	case err := <-sess.errs:
		return Record{}, false, err
	case <-timer:
		return Record{}, false, nil
	case <-ctx.Done():
		return Record{}, false, ctx.Err()
	}
}

// collect runs the policy loop for one session.
func (l *Listener) collect(ctx context.Context, p Policy, sess *session) ([]Record, error) {
	switch p.Mode {
	case ModeFixedCount:
		return l.collectFixedCount(ctx, p.Count, sess)
	case ModeFixedBatches:
		return l.collectBatches(ctx, p.Batches, sess)
	default:
		return l.collectUntilIdle(ctx, p.IdleTimeout, sess)
	}
}

func (l *Listener) collectFixedCount(ctx context.Context, n int, sess *session) ([]Record, error) {
	out := make([]Record, 0, n)
	for len(out) < n {
		rec, ok, err := l.next(ctx, sess, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Listener) collectBatches(ctx context.Context, b int, sess *session) ([]Record, error) {
	led := newLedger()
	var out []Record
	for {
		rec, ok, err := l.next(ctx, sess, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The stream closed under us; return what was collected.
			return out, nil
		}

		out = append(out, rec)
		ev, err := led.observe(rec.BatchID, rec.BatchSize)
		if err != nil {
			return nil, err
		}
		if ev.opened {
			l.stats.RecordBatchOpened()
		}
		if ev.completed {
			l.stats.RecordBatchSatisfied()
		}

		if led.distinct() >= b && led.satisfied() {
			return out, nil
		}
	}
}

func (l *Listener) collectUntilIdle(ctx context.Context, t time.Duration, sess *session) ([]Record, error) {
	// The first receive blocks unconditionally so the session always yields
	// at least one record before idle detection starts.
	rec, ok, err := l.next(ctx, sess, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	out := []Record{rec}
	for {
		rec, ok, err := l.next(ctx, sess, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}
