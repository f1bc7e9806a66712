package conn

import (
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// runSplitter consumes the codec's decoded-message stream and routes each
// item onto the request or response channel, synthesizing 400 Bad Request
// for a recoverably invalid request and dropping an invalid response
// outright (its pending request, if any, will simply time out). It owns
// outRequests and outResponses and closes both on every exit path, which
// is what lets the Orderer and Correlator downstream notice the read half
// has ended and wind themselves down in turn.
//
// Grounded on create_split_messages_task. A state-change notification that
// narrows read state past what this task still has open stops forwarding
// to the corresponding target for the remainder of the connection, mirror
// of the original task reacting to "the request/response channel receiver
// has been dropped" — in this translation the direction of causality is
// reversed (this task's own close is what the downstream task reacts to),
// but the net effect on ProtocolState is identical.
func runSplitter(
	state *protocolState,
	decoded <-chan decodeItem,
	outRequests chan<- *rtsp.Request,
	outResponses chan<- *rtsp.Response,
	outgoing chan<- rtsp.Message,
) {
	stateChanges := state.subscribe()

	requestsOpen := true
	responsesOpen := true
	defer func() {
		if requestsOpen {
			close(outRequests)
		}
		if responsesOpen {
			close(outResponses)
		}
	}()

	// applyStateChange folds one state-change notification into
	// requestsOpen/responsesOpen, closing whichever output the new state
	// forbids. Returns true once the splitter has nothing left to do.
	// Shared between the main select's stateChanges case and the nested
	// selects guarding each forward below, so a downstream consumer that
	// stopped reading (e.g. the orderer exiting on context cancellation)
	// can never wedge this goroutine on a full channel send.
	applyStateChange := func(pair StatePair) (done bool) {
		switch {
		case pair.Read.IsNone() || pair.Read.IsError():
			state.updateWriteState(writeResponse())
			return true
		case pair.Read.kind == stateRequest && responsesOpen:
			state.updateWriteState(writeResponse())
			close(outResponses)
			responsesOpen = false
		case requestsOpen && (pair.Read.kind == stateResponse ||
			pair.Write.IsNone() || pair.Write.IsError() || pair.Write.kind == stateResponse):
			close(outRequests)
			requestsOpen = false
		}
		return false
	}

	for {
		select {
		case item, ok := <-decoded:
			if !ok {
				state.updateState(readNone(), writeResponse())
				return
			}

			if item.err != nil {
				state.updateState(readError(wrapDecodeError(item.err)), writeResponse())
				return
			}

			switch {
			case item.result.Message != nil && item.result.Message.Request != nil:
				if requestsOpen {
					select {
					case outRequests <- item.result.Message.Request:
					case pair, ok := <-stateChanges:
						if !ok {
							return
						}
						if applyStateChange(pair) {
							return
						}
					}
				}

			case item.result.Message != nil && item.result.Message.Response != nil:
				if responsesOpen {
					select {
					case outResponses <- item.result.Message.Response:
					case pair, ok := <-stateChanges:
						if !ok {
							return
						}
						if applyStateChange(pair) {
							return
						}
					}
				}

			case item.result.Invalid != nil && item.result.Invalid.Request:
				if state.snapshot().Write.ResponsesAllowed() {
					sendMessageBestEffort(outgoing, rtsp.Message{Response: rtsp.BadRequestResponse()})
				}

			case item.result.Invalid != nil && !item.result.Invalid.Request:
				// An invalid response cannot be corrected; the pending
				// request it would have answered simply times out.
			}

		case pair, ok := <-stateChanges:
			if !ok {
				return
			}
			if applyStateChange(pair) {
				return
			}
		}
	}
}

// decodeItem is one unit of work off a codec's decode loop: either a
// DecodeResult or a terminal transport error.
type decodeItem struct {
	result rtsp.DecodeResult
	err    error
}

// sendMessageBestEffort is used for synthesized error responses where a
// full-channel sender would otherwise stall message splitting on a
// congested outgoing queue; losing one under true backpressure is
// preferable to blocking decode entirely.
func sendMessageBestEffort(ch chan<- rtsp.Message, m rtsp.Message) {
	select {
	case ch <- m:
	default:
	}
}
