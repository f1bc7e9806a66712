package conn

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ethan/rtsp2-conn/pkg/logger"
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// runOrderer reorders inbound requests by CSeq within a bounded window and
// forwards them in strictly increasing order. A request whose CSeq is too
// far ahead of the expected value is shed with a (rate-limited) 503
// Service Unavailable rather than buffered, bounding memory use against a
// peer sending wildly out-of-range sequence numbers.
//
// Grounded on create_request_handler_task: the expected sequence number is
// seeded lazily from the first request actually observed, not a fixed 0 or
// 1, and the buffer is a plain map keyed by CSeq that is drained in order
// every time a request arrives.
func runOrderer(
	ctx context.Context,
	state *protocolState,
	bufferSize int,
	shedLimiter *rate.Limiter,
	incoming <-chan *rtsp.Request,
	ordered chan<- *rtsp.Request,
	outgoing chan<- rtsp.Message,
) {
	defer close(ordered)

	var expected rtsp.CSeq
	haveExpected := false
	buffered := make(map[rtsp.CSeq]*rtsp.Request, bufferSize)

	for req := range incoming {
		cseq, err := req.Header.CSeq()
		if err != nil {
			if state.snapshot().Write.ResponsesAllowed() {
				if !trySendMessageCtx(ctx, outgoing, rtsp.Message{Response: rtsp.BadRequestResponse()}) {
					return
				}
			}
			continue
		}

		if !haveExpected {
			expected = cseq
			haveExpected = true
		}

		if cseq.Distance(expected) > uint32(bufferSize) {
			logger.Default().DebugCSeqDecision("shed", cseq)
			if state.snapshot().Write.ResponsesAllowed() && shedLimiter.Allow() {
				if !trySendMessageCtx(ctx, outgoing, rtsp.Message{Response: rtsp.ServiceUnavailableResponse(cseq, true)}) {
					return
				}
			}
			continue
		}

		if cseq != expected {
			logger.Default().DebugCSeqDecision("buffered", cseq)
		}
		buffered[cseq] = req
		for {
			next, ok := buffered[expected]
			if !ok {
				break
			}
			delete(buffered, expected)
			nextCSeq, _ := next.Header.CSeq()
			logger.Default().DebugCSeqDecision("forwarded", nextCSeq)
			select {
			case ordered <- next:
			case <-ctx.Done():
				return
			}
			expected = expected.Next()
		}
	}
}

// trySendMessageCtx sends an outgoing message, aborting early if ctx is
// done so a shutting-down connection does not hang the orderer trying to
// emit an error response nobody will read.
func trySendMessageCtx(ctx context.Context, ch chan<- rtsp.Message, m rtsp.Message) bool {
	select {
	case ch <- m:
		return true
	case <-ctx.Done():
		return false
	}
}
