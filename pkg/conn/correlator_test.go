package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func newResponse(t *testing.T, cseq rtsp.CSeq, status rtsp.StatusCode) *rtsp.Response {
	t.Helper()
	resp := rtsp.NewResponse(status)
	resp.Header.SetCSeq(cseq)
	return resp
}

func TestCorrelatorDeliversFinalResponse(t *testing.T) {
	responses := make(chan *rtsp.Response)
	updates := make(chan pendingUpdate)
	go runCorrelator(responses, updates)
	defer close(updates)

	ch := make(chan outcome, 1)
	updates <- pendingUpdate{add: true, cseq: 1, ch: ch}
	responses <- newResponse(t, 1, rtsp.OK)

	select {
	case o := <-ch:
		require.NotNil(t, o.response)
		assert.Equal(t, rtsp.OK, o.response.StatusCode)
	case <-time.After(time.Second):
		t.Fatal("expected a final outcome")
	}
}

func TestCorrelatorChainsContinueResponses(t *testing.T) {
	responses := make(chan *rtsp.Response)
	updates := make(chan pendingUpdate)
	go runCorrelator(responses, updates)
	defer close(updates)

	ch := make(chan outcome, 1)
	updates <- pendingUpdate{add: true, cseq: 9, ch: ch}
	responses <- newResponse(t, 9, rtsp.Continue)

	var next chan outcome
	select {
	case o := <-ch:
		require.NotNil(t, o.cont)
		next = o.cont
	case <-time.After(time.Second):
		t.Fatal("expected a 100 Continue outcome")
	}

	responses <- newResponse(t, 9, rtsp.OK)
	select {
	case o := <-next:
		require.NotNil(t, o.response)
		assert.Equal(t, rtsp.OK, o.response.StatusCode)
	case <-time.After(time.Second):
		t.Fatal("expected the final response on the continuation channel")
	}
}

func TestCorrelatorIgnoresResponseForUnknownCSeq(t *testing.T) {
	responses := make(chan *rtsp.Response)
	updates := make(chan pendingUpdate)
	go runCorrelator(responses, updates)
	defer close(updates)

	// Should not panic or block; there is simply no pending waiter.
	responses <- newResponse(t, 404, rtsp.OK)
	time.Sleep(20 * time.Millisecond)
}

func TestCorrelatorNotifiesPendingWhenResponsesEnd(t *testing.T) {
	responses := make(chan *rtsp.Response)
	updates := make(chan pendingUpdate)
	done := make(chan struct{})
	go func() {
		runCorrelator(responses, updates)
		close(done)
	}()

	ch := make(chan outcome, 1)
	updates <- pendingUpdate{add: true, cseq: 1, ch: ch}
	close(responses)

	select {
	case o := <-ch:
		assert.True(t, o.none)
	case <-time.After(time.Second):
		t.Fatal("expected a cancellation outcome")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("correlator did not exit after responses closed")
	}
}

func TestCorrelatorExitsWhenUpdatesCloseAndEmpty(t *testing.T) {
	responses := make(chan *rtsp.Response)
	updates := make(chan pendingUpdate)
	done := make(chan struct{})
	go func() {
		runCorrelator(responses, updates)
		close(done)
	}()

	close(updates)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("correlator did not exit when updates closed with nothing pending")
	}
}
