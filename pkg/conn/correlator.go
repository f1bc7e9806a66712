package conn

import (
	"container/list"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// outcome is delivered on a pending request's one-shot channel: exactly
// one of its fields is set.
type outcome struct {
	response *rtsp.Response
	cont     chan outcome
	none     bool
}

// pendingUpdate is sent to the correlator to register or deregister a
// pending outbound request.
type pendingUpdate struct {
	add      bool
	cseq     rtsp.CSeq
	ch       chan outcome
	removeOf rtsp.CSeq
}

// orderedPending is the Go stand-in for the Rust source's
// `LinkedHashMap<CSeq, ...>`: a map for O(1) lookup plus a doubly linked
// list that preserves insertion order, needed only when the inbound
// response stream ends and every still-pending request must be notified
// in the order it was registered.
type orderedPending struct {
	index map[rtsp.CSeq]*list.Element
	order *list.List
}

type pendingEntry struct {
	cseq rtsp.CSeq
	ch   chan outcome
}

func newOrderedPending() *orderedPending {
	return &orderedPending{index: make(map[rtsp.CSeq]*list.Element), order: list.New()}
}

func (p *orderedPending) insert(cseq rtsp.CSeq, ch chan outcome) {
	if el, ok := p.index[cseq]; ok {
		p.order.Remove(el)
	}
	p.index[cseq] = p.order.PushBack(&pendingEntry{cseq: cseq, ch: ch})
}

func (p *orderedPending) get(cseq rtsp.CSeq) (chan outcome, bool) {
	el, ok := p.index[cseq]
	if !ok {
		return nil, false
	}
	return el.Value.(*pendingEntry).ch, true
}

func (p *orderedPending) remove(cseq rtsp.CSeq) (chan outcome, bool) {
	el, ok := p.index[cseq]
	if !ok {
		return nil, false
	}
	delete(p.index, cseq)
	p.order.Remove(el)
	return el.Value.(*pendingEntry).ch, true
}

func (p *orderedPending) replace(cseq rtsp.CSeq, ch chan outcome) {
	if el, ok := p.index[cseq]; ok {
		el.Value.(*pendingEntry).ch = ch
	}
}

func (p *orderedPending) len() int { return p.order.Len() }

// forEachInOrder walks entries oldest-registered first, matching the
// correlator's FIFO-notification-on-shutdown guarantee.
func (p *orderedPending) forEachInOrder(fn func(ch chan outcome)) {
	for el := p.order.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*pendingEntry).ch)
	}
}

// runCorrelator maps inbound responses to pending outbound requests by
// CSeq, honoring 100 Continue chains: a Continue replaces the waiter's
// channel with a fresh one and keeps the entry pending rather than
// completing it.
//
// Grounded on create_response_handler_task. Like the Orderer, the
// Correlator does not narrow any state itself when its input streams end:
// it simply notifies every still-pending waiter with outcome{none: true}
// and returns, leaving state transitions to the Splitter and Sender that
// own those streams.
func runCorrelator(
	responses <-chan *rtsp.Response,
	updates <-chan pendingUpdate,
) {
	pending := newOrderedPending()
	updatesOpen := true

	notifyAllGone := func() {
		pending.forEachInOrder(func(ch chan outcome) {
			select {
			case ch <- outcome{none: true}:
			default:
			}
		})
	}

	for {
		activeUpdates := updates
		if !updatesOpen {
			activeUpdates = nil
			if pending.len() == 0 {
				return
			}
		}

		select {
		case resp, ok := <-responses:
			if !ok {
				notifyAllGone()
				return
			}
			handleResponse(resp, pending)

		case upd, ok := <-activeUpdates:
			if !ok {
				updatesOpen = false
				continue
			}
			if upd.add {
				pending.insert(upd.cseq, upd.ch)
			} else {
				pending.remove(upd.removeOf)
			}
		}
	}
}

func handleResponse(resp *rtsp.Response, pending *orderedPending) {
	cseq, err := resp.Header.CSeq()
	if err != nil {
		return
	}

	if resp.StatusCode == rtsp.Continue {
		ch, ok := pending.get(cseq)
		if !ok {
			return
		}
		next := make(chan outcome, 1)
		select {
		case ch <- outcome{cont: next}:
			pending.replace(cseq, next)
		default:
			pending.remove(cseq)
		}
		return
	}

	ch, ok := pending.remove(cseq)
	if !ok {
		return
	}
	select {
	case ch <- outcome{response: resp}:
	default:
	}
}
