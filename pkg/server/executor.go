package server

import (
	"encoding/json"
	"net/http"

	"github.com/entrhq/bridge/pkg/bridge"
)

// handleSubscribeRequests installs the caller as the executor's push-delivery
// channel and streams BridgeRequests as newline-delimited JSON. A new
// subscriber replaces any previous one; the replaced stream simply ends.
func (s *Server) handleSubscribeRequests(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Debugf("executor subscribed to requests stream")

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			// Evicted by a newer subscriber or torn down.
			return
		case req := <-sub.Requests():
			if err := enc.Encode(req); err != nil {
				s.log.Warnf("stream write failed: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

// handleWaitForRequest is the single-shot long-poll alternative for
// executors that cannot hold a stream open. It blocks until a request is
// available or the poll is abandoned client-side.
func (s *Server) handleWaitForRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.hub.PollNext(r.Context())
	if err != nil {
		// Poll abandoned; nothing to deliver.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

type completeResponse struct {
	Accepted bool `json:"accepted"`
}

// handleComplete records the executor's outcome for one request. accepted is
// false when the id is unknown or the original caller already timed out or
// was cancelled.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var msg bridge.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg.ID == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	accepted := s.hub.Complete(msg)
	s.writeJSON(w, http.StatusOK, completeResponse{Accepted: accepted})
}
