package conn

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func TestFanInMergesAllSources(t *testing.T) {
	a := make(chan rtsp.Message, 1)
	b := make(chan rtsp.Message, 1)
	c := make(chan rtsp.Message, 1)

	merged := fanIn([]<-chan rtsp.Message{a, b, c})

	a <- rtsp.Message{Request: newTestRequest(t, 1)}
	b <- rtsp.Message{Request: newTestRequest(t, 2)}
	c <- rtsp.Message{Request: newTestRequest(t, 3)}
	close(a)
	close(b)
	close(c)

	seen := map[rtsp.CSeq]bool{}
	for i := 0; i < 3; i++ {
		select {
		case msg, ok := <-merged:
			require.True(t, ok)
			cseq, err := msg.Request.Header.CSeq()
			require.NoError(t, err)
			seen[cseq] = true
		case <-time.After(time.Second):
			t.Fatal("fanIn did not deliver all messages")
		}
	}
	assert.Len(t, seen, 3)

	_, ok := <-merged
	assert.False(t, ok, "fanIn output should close once every source closes")
}

func TestRunSenderWritesAllowedMessages(t *testing.T) {
	state := newProtocolState()
	source := make(chan rtsp.Message, 1)

	var mu sync.Mutex
	var written []rtsp.Message
	sink := func(m rtsp.Message) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, m)
		return nil
	}

	done := make(chan struct{})
	go func() {
		runSender(state, []<-chan rtsp.Message{source}, sink)
		close(done)
	}()

	resp := rtsp.NewResponse(rtsp.OK)
	source <- rtsp.Message{Response: resp}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(written) == 1
	}, time.Second, 5*time.Millisecond)

	close(source)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not exit when its source closed")
	}
	assert.True(t, state.snapshot().Write.IsNone())
}

func TestRunSenderDropsDisallowedMessages(t *testing.T) {
	state := newProtocolState()
	state.updateWriteState(writeResponse()) // requests no longer allowed
	source := make(chan rtsp.Message, 1)

	var mu sync.Mutex
	var written []rtsp.Message
	sink := func(m rtsp.Message) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, m)
		return nil
	}

	go runSender(state, []<-chan rtsp.Message{source}, sink)

	source <- rtsp.Message{Request: newTestRequest(t, 1)}
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, written)
}

func TestRunSenderRecordsSinkError(t *testing.T) {
	state := newProtocolState()
	source := make(chan rtsp.Message, 1)
	sinkErr := errors.New("write failed")
	sink := func(m rtsp.Message) error { return sinkErr }

	done := make(chan struct{})
	go func() {
		runSender(state, []<-chan rtsp.Message{source}, sink)
		close(done)
	}()

	source <- rtsp.Message{Response: rtsp.NewResponse(rtsp.OK)}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not exit on sink error")
	}

	snap := state.snapshot()
	assert.True(t, snap.Write.IsError())
}
