package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/entrhq/bridge/pkg/bridge"
	"github.com/entrhq/bridge/pkg/capability"
	"github.com/entrhq/bridge/pkg/capability/browser"
	"github.com/entrhq/bridge/pkg/capability/browserinfo"
)

type invokeRequest struct {
	Method    string `json:"method"`
	Args      string `json:"args_json"`
	TimeoutMS int64  `json:"timeout_ms"`
}

type invokeResponse struct {
	Success      bool   `json:"success"`
	Result       string `json:"result_json,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleInvoke is the generic capability entry used by the sandboxed script
// runtime: callers name the method directly, so the configured glob
// allowlist is enforced here before anything reaches the Hub.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var in invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Method == "" {
		s.writeError(w, http.StatusBadRequest, "method is required")
		return
	}
	if !s.matcher.IsAllowed(in.Method) {
		s.log.Warnf("method %s rejected by allowlist", in.Method)
		s.writeError(w, http.StatusForbidden, "method not allowed")
		return
	}

	timeout := s.cfg.Capabilities.Timeout
	if in.TimeoutMS > 0 {
		timeout = time.Duration(in.TimeoutMS) * time.Millisecond
	}

	completed, err := s.hub.Request(r.Context(), in.Method, in.Args, timeout)
	switch {
	case errors.Is(err, bridge.ErrTimeout):
		s.writeJSON(w, http.StatusGatewayTimeout, invokeResponse{ErrorMessage: capability.MsgTimeout})
		return
	case errors.Is(err, bridge.ErrCancelled):
		// Caller is gone; nothing useful to write.
		return
	case errors.Is(err, bridge.ErrBacklogFull):
		s.writeJSON(w, http.StatusServiceUnavailable, invokeResponse{ErrorMessage: err.Error()})
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, invokeResponse{
		Success:      completed.Success,
		Result:       completed.Result,
		ErrorMessage: completed.ErrorMessage,
	})
}

type contextDataRequest struct {
	Params *browserinfo.ContextDataParams `json:"params,omitempty"`
}

func (s *Server) handleContextData(w http.ResponseWriter, r *http.Request) {
	var in contextDataRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.browserInfo.GetAllContextData(r.Context(), &browserinfo.ContextDataRequest{Params: in.Params})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var in browser.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.browser.Navigate(r.Context(), &in)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtractContent(w http.ResponseWriter, r *http.Request) {
	var in browser.ExtractContentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.browser.ExtractContent(r.Context(), &in)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
