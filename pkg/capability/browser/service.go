// Package browser exposes typed adapters for browser interaction
// capabilities performed by the remote executor. One file per capability;
// each translates its typed request into the executor's generic
// (method, args) shape and decodes the opaque result.
package browser

import (
	"context"
	"time"

	"github.com/entrhq/bridge/pkg/capability"
)

// Executor-side handler names.
const (
	methodNavigate       = "browser.navigate"
	methodExtractContent = "browser.extractContent"
)

// Service is the typed adapter for browser interaction capabilities.
type Service struct {
	inv     capability.Invoker
	timeout time.Duration
}

// NewService creates a browser adapter over the given bridge.
func NewService(inv capability.Invoker, timeout time.Duration) *Service {
	return &Service{inv: inv, timeout: timeout}
}

func (s *Service) call(ctx context.Context, method string, args any) (capability.Outcome, error) {
	return capability.Call(ctx, s.inv, method, args, s.timeout)
}
