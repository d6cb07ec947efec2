// Package browserinfo exposes read-only browser state capabilities performed
// by the remote executor.
package browserinfo

import (
	"context"
	"time"

	"github.com/entrhq/bridge/pkg/capability"
)

// methodGetAllContextData is the executor-side handler name.
const methodGetAllContextData = "browser_info.getAllContextData"

// ContextDataParams bounds how much history the executor collects.
type ContextDataParams struct {
	HistoryLimit  int `json:"historyLimit"`
	DownloadLimit int `json:"downloadLimit"`
}

// ContextDataRequest asks the executor for a snapshot of browser context
// data (open tabs, history, downloads).
type ContextDataRequest struct {
	Params *ContextDataParams
}

// ContextDataResponse carries the snapshot, or the reason it is missing.
type ContextDataResponse struct {
	// ContextData is the serialized snapshot, present only on success.
	ContextData string `json:"context_data,omitempty"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Service is the typed adapter for browser-info capabilities.
type Service struct {
	inv     capability.Invoker
	timeout time.Duration
}

// NewService creates a browser-info adapter over the given bridge.
func NewService(inv capability.Invoker, timeout time.Duration) *Service {
	return &Service{inv: inv, timeout: timeout}
}

// contextDataArgs is the argument shape the executor-side handler expects.
type contextDataArgs struct {
	Params *ContextDataParams `json:"params,omitempty"`
}

// GetAllContextData fetches a browser context snapshot through the bridge.
// Executor failures, empty results, and bridge timeouts all come back as an
// unsuccessful response, never as an error.
func (s *Service) GetAllContextData(ctx context.Context, req *ContextDataRequest) (*ContextDataResponse, error) {
	var args any
	if req != nil && req.Params != nil {
		args = contextDataArgs{Params: req.Params}
	}

	outcome, err := capability.Call(ctx, s.inv, methodGetAllContextData, args, s.timeout)
	if err != nil {
		return nil, err
	}
	if !outcome.OK {
		return &ContextDataResponse{ErrorMessage: outcome.ErrorMessage}, nil
	}

	return &ContextDataResponse{
		ContextData: outcome.Result,
		Success:     true,
	}, nil
}
