package conn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func TestDriverStampsCSeqWhenHandlerOmitsIt(t *testing.T) {
	ordered := make(chan *rtsp.Request, 1)
	outgoing := make(chan rtsp.Message, 1)

	svc := ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NewResponse(rtsp.OK), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runDriver(ctx, svc, ordered, outgoing)

	ordered <- newTestRequest(t, 5)

	select {
	case msg := <-outgoing:
		require.NotNil(t, msg.Response)
		cseq, err := msg.Response.Header.CSeq()
		require.NoError(t, err)
		assert.Equal(t, rtsp.CSeq(5), cseq)
	case <-time.After(time.Second):
		t.Fatal("expected a response")
	}
}

func TestDriverSynthesizesInternalServerErrorOnHandlerFailure(t *testing.T) {
	ordered := make(chan *rtsp.Request, 1)
	outgoing := make(chan rtsp.Message, 1)

	svc := ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return nil, errors.New("handler exploded")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runDriver(ctx, svc, ordered, outgoing)

	ordered <- newTestRequest(t, 2)

	select {
	case msg := <-outgoing:
		require.NotNil(t, msg.Response)
		assert.Equal(t, rtsp.InternalServerError, msg.Response.StatusCode)
		cseq, err := msg.Response.Header.CSeq()
		require.NoError(t, err)
		assert.Equal(t, rtsp.CSeq(2), cseq)
	case <-time.After(time.Second):
		t.Fatal("expected a synthesized 500 response")
	}
}

func TestDriverClosesOutgoingOnInputClose(t *testing.T) {
	ordered := make(chan *rtsp.Request)
	outgoing := make(chan rtsp.Message, 1)
	svc := ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NewResponse(rtsp.OK), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		runDriver(ctx, svc, ordered, outgoing)
		close(done)
	}()

	close(ordered)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not exit on input close")
	}

	_, ok := <-outgoing
	assert.False(t, ok)
}

func TestDriverStopsOnPollReadyError(t *testing.T) {
	ordered := make(chan *rtsp.Request, 1)
	outgoing := make(chan rtsp.Message, 1)

	calls := 0
	svc := pollFailingService{
		pollReady: func(ctx context.Context) error {
			calls++
			return errors.New("backend unavailable")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		runDriver(ctx, svc, ordered, outgoing)
		close(done)
	}()

	ordered <- newTestRequest(t, 1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not exit when PollReady failed")
	}
	assert.Equal(t, 1, calls)
}

type pollFailingService struct {
	pollReady func(ctx context.Context) error
}

func (s pollFailingService) PollReady(ctx context.Context) error { return s.pollReady(ctx) }
func (s pollFailingService) Call(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
	return rtsp.NewResponse(rtsp.OK), nil
}
