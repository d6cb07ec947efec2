// Package capability provides the shared plumbing for typed capability
// adapters layered over the bridge Hub.
//
// Every adapter follows the same shape: translate a typed request into a
// (method, args) pair, relay it through the Hub, and decode the opaque
// result back into a typed response. Failures of any kind, including bridge
// timeouts and cancellations, surface as typed failure responses rather
// than faults, so the process keeps running regardless of executor
// behavior. Adding a capability never requires changing the Hub.
package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/bridge/pkg/bridge"
)

// Fallback messages used when the executor gives no reason of its own.
const (
	MsgNoData   = "executor returned no data"
	MsgTimeout  = "bridge timeout"
	MsgCanceled = "bridge canceled"
)

// Invoker is the bridge operation adapters run against. *bridge.Hub
// satisfies it; tests substitute fakes.
type Invoker interface {
	Request(ctx context.Context, method, args string, timeout time.Duration) (bridge.CompleteRequest, error)
}

// Outcome is the normalized result of one capability invocation.
type Outcome struct {
	// Result is the raw serialized payload from the executor. Empty unless
	// OK is true.
	Result string

	// ErrorMessage explains the failure when OK is false.
	ErrorMessage string

	// OK is true when the executor succeeded and returned a payload.
	OK bool
}

// Call relays one capability invocation through inv and normalizes the
// outcome. args is marshalled to JSON; nil encodes as an empty object. A
// whitespace-only result payload is treated as absent, matching executor
// implementations that report success with no data.
func Call(ctx context.Context, inv Invoker, method string, args any, timeout time.Duration) (Outcome, error) {
	argsJSON := ""
	if args != nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to encode args for %s: %w", method, err)
		}
		argsJSON = string(encoded)
	}

	completed, err := inv.Request(ctx, method, argsJSON, timeout)
	switch {
	case errors.Is(err, bridge.ErrTimeout):
		return Outcome{ErrorMessage: MsgTimeout}, nil
	case errors.Is(err, bridge.ErrCancelled):
		return Outcome{ErrorMessage: MsgCanceled}, nil
	case err != nil:
		return Outcome{ErrorMessage: err.Error()}, nil
	}

	result := strings.TrimSpace(completed.Result)
	if completed.Success && result != "" {
		return Outcome{OK: true, Result: result}, nil
	}

	msg := completed.ErrorMessage
	if msg == "" {
		msg = MsgNoData
	}
	return Outcome{ErrorMessage: msg}, nil
}
