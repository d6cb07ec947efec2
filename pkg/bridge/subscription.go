package bridge

import "sync"

// Subscription is the at-most-one push-delivery channel representing a live
// executor connection.
type Subscription struct {
	ch        chan BridgeRequest
	done      chan struct{}
	closeOnce sync.Once
}

// Requests is the stream of BridgeRequests for the executor to perform.
func (s *Subscription) Requests() <-chan BridgeRequest {
	return s.ch
}

// Done is closed when the subscription is replaced or torn down. The data
// channel itself is never closed, so a sender racing the teardown cannot
// panic; consumers must select on Done alongside Requests.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// close is safe to call more than once.
func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Subscribe installs a fresh delivery channel as the sole subscription,
// evicting any previous one. Eviction is last-writer-wins: the replaced
// executor's stream simply ends, and requests already buffered in its
// channel are not re-queued. The backlog is drained into the new channel in
// FIFO order before Subscribe returns, so a reconnecting executor first
// receives everything that queued up while it was absent, then new requests
// live, all in submission order.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ch:   make(chan BridgeRequest, h.streamBuffer),
		done: make(chan struct{}),
	}

	h.subMu.Lock()
	prev := h.sub
	h.sub = sub
	h.flushBacklogLocked(sub)
	h.subMu.Unlock()

	if prev != nil {
		prev.close()
		h.log.Infof("previous subscription evicted by new subscriber")
	}
	h.log.Debugf("executor subscribed, stream buffer %d", h.streamBuffer)
	return sub
}

// Unsubscribe tears down sub and, if it is still the installed subscription,
// clears it so new requests fall back to waiters and the backlog. Called by
// the service layer when the executor's stream connection ends.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.subMu.Lock()
	if h.sub == sub {
		h.sub = nil
	}
	h.subMu.Unlock()

	sub.close()
	h.log.Debugf("executor unsubscribed")
}

// HasSubscriber reports whether an executor is currently connected through
// Subscribe.
func (h *Hub) HasSubscriber() bool {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	return h.sub != nil
}

// flushBacklogLocked moves backlogged requests into sub's channel in FIFO
// order. Sends are non-blocking so holding subMu here cannot suspend;
// whatever does not fit stays at the head of the backlog. Callers hold subMu.
func (h *Hub) flushBacklogLocked(sub *Subscription) {
	h.backlogMu.Lock()
	defer h.backlogMu.Unlock()
	for len(h.backlog) > 0 {
		select {
		case sub.ch <- h.backlog[0]:
			h.backlog = h.backlog[1:]
		default:
			return
		}
	}
}
