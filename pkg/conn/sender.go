package conn

import (
	"github.com/ethan/rtsp2-conn/pkg/logger"
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// fanIn merges several message channels into one, fairly, using the
// balanced pairwise-merge construction from select_all in the original
// implementation: channels are pushed onto a stack of "levels" tagged with
// a height; whenever the top of the stack has the same height as the
// incoming channel, the two are merged by a two-way select goroutine and
// the result re-pushed at height+1. The result is a merge tree of depth
// O(log N) rather than a single N-way select, which keeps any individual
// source from being starved by round-robin bias toward earlier arguments
// (a risk with a naive left-to-right merge chain).
func fanIn(channels []<-chan rtsp.Message) <-chan rtsp.Message {
	type level struct {
		height int
		ch     <-chan rtsp.Message
	}

	var stack []level
	for _, ch := range channels {
		cur := level{height: 0, ch: ch}
		for len(stack) > 0 && stack[len(stack)-1].height == cur.height {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cur = level{height: top.height + 1, ch: merge2(top.ch, cur.ch)}
		}
		stack = append(stack, cur)
	}

	if len(stack) == 0 {
		out := make(chan rtsp.Message)
		close(out)
		return out
	}

	tree := stack[len(stack)-1].ch
	for i := len(stack) - 2; i >= 0; i-- {
		tree = merge2(tree, stack[i].ch)
	}
	return tree
}

// merge2 fans two channels into one, closing the output once both inputs
// are closed.
func merge2(a, b <-chan rtsp.Message) <-chan rtsp.Message {
	out := make(chan rtsp.Message)
	go func() {
		defer close(out)
		for a != nil || b != nil {
			select {
			case v, ok := <-a:
				if !ok {
					a = nil
					continue
				}
				out <- v
			case v, ok := <-b:
				if !ok {
					b = nil
					continue
				}
				out <- v
			}
		}
	}()
	return out
}

// runSender merges outgoingSources into the codec sink, filtering each
// message against the current write state so a source that races a state
// transition cannot put a disallowed message on the wire. It ends when
// every source channel closes, when the sink returns a write error, or
// when a state change narrows the write half past usefulness.
//
// Grounded on create_send_messages_task.
func runSender(
	state *protocolState,
	outgoingSources []<-chan rtsp.Message,
	sink func(rtsp.Message) error,
) {
	merged := fanIn(outgoingSources)
	stateChanges := state.subscribe()

	for {
		select {
		case msg, ok := <-merged:
			if !ok {
				state.updateState(readResponse(), writeNone())
				return
			}

			allowed := true
			if msg.IsRequest() {
				allowed = state.snapshot().Write.RequestsAllowed()
			} else {
				allowed = state.snapshot().Write.ResponsesAllowed()
			}
			if !allowed {
				continue
			}

			if err := sink(msg); err != nil {
				state.updateState(readResponse(), writeError(wrapSinkError(err)))
				return
			}
			logger.Default().DebugSend("message written", "request", msg.IsRequest())

		case pair, ok := <-stateChanges:
			if !ok {
				return
			}
			if pair.Write.IsNone() || pair.Write.IsError() {
				state.updateReadState(readResponse())
				return
			}
		}
	}
}
