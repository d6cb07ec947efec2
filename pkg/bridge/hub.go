package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/bridge/pkg/logging"
)

const (
	// defaultStreamBuffer is the capacity of a subscription's delivery
	// channel. Once full, sends suspend until the executor drains it; this
	// is the only backpressure mechanism.
	defaultStreamBuffer = 32

	// defaultBacklogLimit caps how many requests may queue while no
	// executor is connected.
	defaultBacklogLimit = 1024
)

// Hub relays backend capability requests to the single connected remote
// executor and correlates its asynchronous completions back to the original
// callers. One Hub is constructed at startup and shared by every RPC handler
// and executor-facing endpoint; it lives for the process lifetime.
//
// Four pieces of state are guarded by independent locks so that a channel
// send, which can suspend, never happens while holding a lock another
// operation needs: the current subscription, the pending reply slots, the
// parked long-poll waiters, and the backlog of undelivered requests.
type Hub struct {
	subMu sync.Mutex
	sub   *Subscription

	pendingMu sync.Mutex
	pending   map[string]chan CompleteRequest

	waitersMu sync.Mutex
	waiters   []*waiter

	backlogMu sync.Mutex
	backlog   []BridgeRequest

	streamBuffer int
	backlogLimit int

	log *logging.Logger
}

// waiter is a parked PollNext caller awaiting direct delivery of the next
// request.
type waiter struct {
	ch chan BridgeRequest
}

// Option configures a Hub.
type Option func(*Hub)

// WithStreamBuffer sets the capacity of subscription delivery channels.
func WithStreamBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.streamBuffer = n
		}
	}
}

// WithBacklogLimit caps the number of requests that may queue while no
// executor is connected. Requests beyond the limit fail with ErrBacklogFull.
// Zero means unbounded.
func WithBacklogLimit(n int) Option {
	return func(h *Hub) {
		if n >= 0 {
			h.backlogLimit = n
		}
	}
}

// NewHub creates a Hub ready to relay requests.
func NewHub(opts ...Option) *Hub {
	logger, _ := logging.NewLogger("bridge")

	h := &Hub{
		pending:      make(map[string]chan CompleteRequest),
		streamBuffer: defaultStreamBuffer,
		backlogLimit: defaultBacklogLimit,
		log:          logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Request relays one capability invocation to the executor and waits for its
// completion. args defaults to "{}" when empty. Exactly one outcome occurs
// per call: the executor's CompleteRequest returned unchanged, ErrTimeout
// once timeout elapses, ErrCancelled if ctx is cancelled first, or
// ErrBacklogFull when no executor is available and the backlog is full.
func (h *Hub) Request(ctx context.Context, method, args string, timeout time.Duration) (CompleteRequest, error) {
	if args == "" {
		args = emptyArgs
	}

	id := uuid.New().String()
	slot := make(chan CompleteRequest, 1)

	h.pendingMu.Lock()
	h.pending[id] = slot
	h.pendingMu.Unlock()

	req := BridgeRequest{
		ID:             id,
		Method:         method,
		Args:           args,
		DeadlineUnixMS: deadlineFor(time.Now(), timeout),
	}

	h.log.Debugf("enqueue id=%s method=%s args_len=%d timeout_ms=%d", id, method, len(args), timeout.Milliseconds())

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if err := h.deliver(ctx, req, timer); err != nil {
		h.abandon(id)
		return CompleteRequest{}, err
	}

	select {
	case done := <-slot:
		return done, nil
	case <-timer.C:
		h.abandon(id)
		return CompleteRequest{}, ErrTimeout
	case <-ctx.Done():
		h.abandon(id)
		return CompleteRequest{}, ErrCancelled
	}
}

// Complete resolves the reply slot for msg.ID and reports whether a waiting
// caller existed to receive it. Late or duplicate completions, and unknown
// ids, find nothing and report false with no side effects.
func (h *Hub) Complete(msg CompleteRequest) bool {
	h.pendingMu.Lock()
	slot, ok := h.pending[msg.ID]
	if ok {
		delete(h.pending, msg.ID)
	}
	h.pendingMu.Unlock()

	if !ok {
		h.log.Debugf("complete id=%s not accepted (no pending entry)", msg.ID)
		return false
	}

	h.log.Debugf("complete id=%s success=%t result_len=%d", msg.ID, msg.Success, len(msg.Result))

	// Capacity 1 and the slot was just claimed from the map, so this never
	// blocks even if the requester gave up in the same instant.
	slot <- msg
	return true
}

// PollNext returns the oldest backlogged request, or parks until a Request
// call delivers one directly. The wait is cancellable: on ctx cancellation
// the waiter is removed from the queue, and a request that was delivered in
// the same instant is re-dispatched rather than lost.
func (h *Hub) PollNext(ctx context.Context) (BridgeRequest, error) {
	if req, ok := h.popBacklog(); ok {
		return req, nil
	}

	w := &waiter{ch: make(chan BridgeRequest, 1)}
	h.waitersMu.Lock()
	h.waiters = append(h.waiters, w)
	h.waitersMu.Unlock()

	select {
	case req := <-w.ch:
		return req, nil
	case <-ctx.Done():
		if !h.removeWaiter(w) {
			// A Request already popped this waiter, so its delivery is
			// imminent; collect it and put it back in play.
			req := <-w.ch
			h.redispatch(req)
		}
		return BridgeRequest{}, ErrCancelled
	}
}

// BacklogLen reports how many requests are queued awaiting a consumer.
func (h *Hub) BacklogLen() int {
	h.backlogMu.Lock()
	defer h.backlogMu.Unlock()
	return len(h.backlog)
}

// PendingLen reports how many requests are awaiting completion.
func (h *Hub) PendingLen() int {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	return len(h.pending)
}

// deliver hands req to exactly one of the three delivery paths, evaluated in
// priority order at call time: the live subscription, the oldest parked
// waiter, or the backlog. The request never appears in two places at once.
func (h *Hub) deliver(ctx context.Context, req BridgeRequest, timer *time.Timer) error {
	for {
		h.subMu.Lock()
		sub := h.sub
		drained := true
		if sub != nil {
			// Move any backlog leftovers ahead of req so stream order
			// matches submission order.
			h.flushBacklogLocked(sub)
			drained = h.BacklogLen() == 0
		}
		h.subMu.Unlock()

		if sub == nil {
			break
		}
		if !drained {
			// Older requests are still queued behind a full channel; keep
			// FIFO by queueing behind them.
			return h.pushBacklog(req)
		}

		select {
		case sub.ch <- req:
			return nil
		case <-sub.done:
			// Subscription replaced or torn down mid-send; re-evaluate.
			continue
		case <-timer.C:
			return ErrTimeout
		case <-ctx.Done():
			return ErrCancelled
		}
	}

	if w := h.popWaiter(); w != nil {
		w.ch <- req // capacity 1, sole producer once popped
		return nil
	}
	return h.pushBacklog(req)
}

// redispatch re-routes a request whose chosen consumer disappeared before
// reading it. Sends are best-effort and never block; the backlog is the
// fallback. If even the backlog is full the request is dropped and its
// caller times out normally.
func (h *Hub) redispatch(req BridgeRequest) {
	h.subMu.Lock()
	sub := h.sub
	sent := false
	if sub != nil {
		select {
		case sub.ch <- req:
			sent = true
		default:
		}
	}
	h.subMu.Unlock()

	if sent {
		return
	}
	if w := h.popWaiter(); w != nil {
		w.ch <- req
		return
	}
	if err := h.pushBacklog(req); err != nil {
		h.log.Warnf("dropping request id=%s on redispatch: %v", req.ID, err)
	}
}

// abandon removes every trace of an unresolved request: its reply slot and,
// if it is still sitting undelivered, its backlog entry. A subsequent
// Complete for the id finds nothing and reports accepted=false.
func (h *Hub) abandon(id string) {
	h.pendingMu.Lock()
	delete(h.pending, id)
	h.pendingMu.Unlock()

	h.backlogMu.Lock()
	for i, queued := range h.backlog {
		if queued.ID == id {
			h.backlog = append(h.backlog[:i], h.backlog[i+1:]...)
			break
		}
	}
	h.backlogMu.Unlock()
}

func (h *Hub) pushBacklog(req BridgeRequest) error {
	h.backlogMu.Lock()
	defer h.backlogMu.Unlock()
	if h.backlogLimit > 0 && len(h.backlog) >= h.backlogLimit {
		return ErrBacklogFull
	}
	h.backlog = append(h.backlog, req)
	return nil
}

func (h *Hub) popBacklog() (BridgeRequest, bool) {
	h.backlogMu.Lock()
	defer h.backlogMu.Unlock()
	if len(h.backlog) == 0 {
		return BridgeRequest{}, false
	}
	req := h.backlog[0]
	h.backlog = h.backlog[1:]
	return req, true
}

func (h *Hub) popWaiter() *waiter {
	h.waitersMu.Lock()
	defer h.waitersMu.Unlock()
	if len(h.waiters) == 0 {
		return nil
	}
	w := h.waiters[0]
	h.waiters = h.waiters[1:]
	return w
}

// removeWaiter unparks w and reports whether it was still queued. False
// means a Request already popped it for direct delivery.
func (h *Hub) removeWaiter(w *waiter) bool {
	h.waitersMu.Lock()
	defer h.waitersMu.Unlock()
	for i, parked := range h.waiters {
		if parked == w {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return true
		}
	}
	return false
}
