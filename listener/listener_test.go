package listener_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ccfetch/ccfetch/listener"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testClient disables keep-alives so each post tears its connection down
// and sessions leave no lingering goroutines behind.
var testClient = &http.Client{
	Transport: &http.Transport{DisableKeepAlives: true},
}

type sessionResult struct {
	records []listener.Record
	err     error
}

// startSession runs Listen in the background and returns its result channel.
func startSession(t *testing.T, l *listener.Listener, p listener.Policy) <-chan sessionResult {
	t.Helper()
	res := make(chan sessionResult, 1)
	go func() {
		records, err := l.Listen(context.Background(), p)
		res <- sessionResult{records: records, err: err}
	}()
	return res
}

// waitAddr blocks until the listener has bound its port.
func waitAddr(t *testing.T, l *listener.Listener) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if addr := l.Addr(); addr != "" {
			return addr
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("listener never bound its port")
	return ""
}

func payload(name, batchID string, batchSize int) string {
	return fmt.Sprintf(`{
		"name": %q,
		"group": "Codeforces - Round 1",
		"url": "https://example.com/p",
		"timeLimit": 2000,
		"memoryLimit": 256,
		"batch": {"id": %q, "size": %d},
		"tests": [{"input": "1\n", "output": "1\n"}]
	}`, name, batchID, batchSize)
}

func post(t *testing.T, addr, body string) *http.Response {
	t.Helper()
	resp, err := testClient.Post("http://"+addr+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp
}

func postOK(t *testing.T, addr, body string) {
	t.Helper()
	resp := post(t, addr, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// recordName digs the problem name back out of a record body.
func recordName(t *testing.T, rec listener.Record) string {
	t.Helper()
	var v struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body, &v))
	return v.Name
}

func TestListenFixedCount(t *testing.T) {
	t.Run("returns n records in arrival order", func(t *testing.T) {
		l := listener.New(0)
		res := startSession(t, l, listener.FixedCount(3))
		addr := waitAddr(t, l)

		postOK(t, addr, payload("first", "a", 3))
		postOK(t, addr, payload("second", "a", 3))
		postOK(t, addr, payload("third", "a", 3))

		r := <-res
		require.NoError(t, r.err)
		require.Len(t, r.records, 3)
		assert.Equal(t, "first", recordName(t, r.records[0]))
		assert.Equal(t, "second", recordName(t, r.records[1]))
		assert.Equal(t, "third", recordName(t, r.records[2]))
	})

	t.Run("count of zero returns immediately", func(t *testing.T) {
		l := listener.New(0)
		records, err := l.ListenFixedCount(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("cancellation unblocks a starved session", func(t *testing.T) {
		l := listener.New(0)
		ctx, cancel := context.WithCancel(context.Background())
		res := make(chan sessionResult, 1)
		go func() {
			records, err := l.ListenFixedCount(ctx, 5)
			res <- sessionResult{records: records, err: err}
		}()
		addr := waitAddr(t, l)

		postOK(t, addr, payload("only", "a", 1))
		cancel()

		r := <-res
		require.ErrorIs(t, r.err, context.Canceled)
	})
}

func TestListenBatches(t *testing.T) {
	t.Run("interleaved batches complete on the final record", func(t *testing.T) {
		l := listener.New(0)
		stats := listener.NewBasicStatsCollector()
		l.WithStats(stats)

		res := startSession(t, l, listener.FixedBatches(1))
		addr := waitAddr(t, l)

		// Batch x declares two records, batch y one. Completion requires
		// both ledger entries satisfied, even though only one batch was
		// requested.
		postOK(t, addr, payload("x1", "x", 2))
		postOK(t, addr, payload("y1", "y", 1))
		postOK(t, addr, payload("x2", "x", 2))

		r := <-res
		require.NoError(t, r.err)
		require.Len(t, r.records, 3)
		assert.Equal(t, "x1", recordName(t, r.records[0]))
		assert.Equal(t, "y1", recordName(t, r.records[1]))
		assert.Equal(t, "x2", recordName(t, r.records[2]))

		s := stats.GetStats()
		assert.Equal(t, uint64(3), s.RecordsReceived)
		assert.Equal(t, uint64(2), s.BatchesOpened)
		assert.Equal(t, uint64(2), s.BatchesSatisfied)
		assert.Equal(t, uint64(1), s.SessionsRun)
	})

	t.Run("ledger is built from the first sighting only", func(t *testing.T) {
		l := listener.New(0)
		res := startSession(t, l, listener.FixedBatches(1))
		addr := waitAddr(t, l)

		postOK(t, addr, payload("x1", "x", 2))
		// The second record claims the batch is far larger; the session
		// must still complete here.
		postOK(t, addr, payload("x2", "x", 99))

		r := <-res
		require.NoError(t, r.err)
		require.Len(t, r.records, 2)
	})

	t.Run("invalid declared size aborts the session", func(t *testing.T) {
		l := listener.New(0)
		res := startSession(t, l, listener.FixedBatches(1))
		addr := waitAddr(t, l)

		postOK(t, addr, payload("bad", "x", 0))

		r := <-res
		require.ErrorIs(t, r.err, listener.ErrInvalidBatchSize)
		assert.Nil(t, r.records)
	})
}

func TestListenUntilIdle(t *testing.T) {
	t.Run("returns after the first silent gap", func(t *testing.T) {
		l := listener.New(0)
		res := startSession(t, l, listener.UntilIdle(200*time.Millisecond))
		addr := waitAddr(t, l)

		start := time.Now()
		postOK(t, addr, payload("only", "a", 1))

		r := <-res
		require.NoError(t, r.err)
		require.Len(t, r.records, 1)
		assert.Less(t, time.Since(start), 3*time.Second,
			"session should end shortly after the idle timeout")
	})

	t.Run("collects everything before the gap", func(t *testing.T) {
		l := listener.New(0)
		res := startSession(t, l, listener.UntilIdle(300*time.Millisecond))
		addr := waitAddr(t, l)

		postOK(t, addr, payload("one", "a", 2))
		postOK(t, addr, payload("two", "a", 2))

		r := <-res
		require.NoError(t, r.err)
		require.Len(t, r.records, 2)
	})
}

func TestMalformedPayload(t *testing.T) {
	l := listener.New(0)
	res := startSession(t, l, listener.FixedCount(1))
	addr := waitAddr(t, l)

	resp := post(t, addr, "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r := <-res
	var payloadErr *listener.PayloadError
	require.ErrorAs(t, r.err, &payloadErr)
	assert.Nil(t, r.records)
}

func TestSequentialSessionsShareThePort(t *testing.T) {
	l := listener.New(0)
	res := startSession(t, l, listener.FixedCount(1))
	addr := waitAddr(t, l)
	postOK(t, addr, payload("first session", "a", 1))
	r := <-res
	require.NoError(t, r.err)

	// Rebind the exact same port for a second session.
	var port int
	_, err := fmt.Sscanf(addr, "127.0.0.1:%d", &port)
	require.NoError(t, err)

	l2 := listener.New(port)
	res2 := startSession(t, l2, listener.FixedCount(1))
	addr2 := waitAddr(t, l2)
	require.Equal(t, addr, addr2)
	postOK(t, addr2, payload("second session", "a", 1))
	r2 := <-res2
	require.NoError(t, r2.err)
	require.Len(t, r2.records, 1)
}

func TestBindConflict(t *testing.T) {
	l := listener.New(0)
	res := startSession(t, l, listener.FixedCount(1))
	addr := waitAddr(t, l)

	var port int
	_, err := fmt.Sscanf(addr, "127.0.0.1:%d", &port)
	require.NoError(t, err)

	_, err = listener.New(port).ListenFixedCount(context.Background(), 1)
	var bindErr *listener.BindError
	require.ErrorAs(t, err, &bindErr)

	postOK(t, addr, payload("done", "a", 1))
	r := <-res
	require.NoError(t, r.err)
}

func TestNonPostRejected(t *testing.T) {
	l := listener.New(0)
	res := startSession(t, l, listener.FixedCount(1))
	addr := waitAddr(t, l)

	resp, err := testClient.Get("http://" + addr + "/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	postOK(t, addr, payload("done", "a", 1))
	r := <-res
	require.NoError(t, r.err)
	require.Len(t, r.records, 1)
}
