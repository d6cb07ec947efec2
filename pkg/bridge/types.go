// Package bridge implements the relay between backend capability calls and
// the remote executor that performs them. A single Hub correlates outstanding
// requests with the asynchronous completions the executor reports back.
//
// The Hub is capability-agnostic: Method names and argument payloads are
// opaque to it. Typed capabilities are layered on top via the adapters in
// pkg/capability.
package bridge

import "time"

// emptyArgs is the encoding used when a request carries no arguments.
const emptyArgs = "{}"

// BridgeRequest is one outstanding ask to the remote executor.
type BridgeRequest struct {
	// ID is the correlation id linking this request to its completion.
	// Assigned at creation, globally unique, immutable.
	ID string `json:"id"`

	// Method names the capability to invoke. Opaque to the Hub.
	Method string `json:"method"`

	// Args is the serialized argument payload. Defaults to "{}".
	Args string `json:"args_json"`

	// DeadlineUnixMS is the absolute instant (epoch milliseconds) by which
	// the caller expects a reply. Informational for the executor; the Hub
	// enforces its own timeout independently.
	DeadlineUnixMS int64 `json:"deadline_unix_ms"`
}

// CompleteRequest is the executor's report for one BridgeRequest.
type CompleteRequest struct {
	// ID must match an outstanding BridgeRequest.ID.
	ID string `json:"id"`

	// Success indicates whether the executor performed the capability.
	Success bool `json:"success"`

	// Result is the serialized result payload, present only on success.
	Result string `json:"result_json,omitempty"`

	// ErrorMessage is a human-readable failure reason, if any.
	ErrorMessage string `json:"error_message,omitempty"`
}

// deadlineFor computes the informational deadline carried on a request.
func deadlineFor(now time.Time, timeout time.Duration) int64 {
	return now.Add(timeout).UnixMilli()
}
