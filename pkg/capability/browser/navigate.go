package browser

import (
	"context"
	"encoding/json"
	"fmt"
)

// NavigateRequest asks the executor to load a URL in the active tab.
type NavigateRequest struct {
	// URL must include the protocol, e.g. https://example.com.
	URL string `json:"url"`

	// WaitUntil specifies when navigation counts as complete: "load"
	// (default), "domcontentloaded", or "networkidle".
	WaitUntil string `json:"wait_until,omitempty"`
}

// NavigateResponse reports the loaded page, or the reason navigation failed.
type NavigateResponse struct {
	// URL is the final URL after redirects.
	URL string `json:"url,omitempty"`

	// Title is the loaded page's title.
	Title string `json:"title,omitempty"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

var validWaitStates = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
}

// Navigate loads a URL through the bridge. Executor failures and bridge
// timeouts come back as an unsuccessful response, never as an error; an
// error return means the request itself was malformed.
func (s *Service) Navigate(ctx context.Context, req *NavigateRequest) (*NavigateResponse, error) {
	if req == nil || req.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}

	waitUntil := req.WaitUntil
	if waitUntil == "" {
		waitUntil = "load"
	}
	if !validWaitStates[waitUntil] {
		return nil, fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', or 'networkidle')", waitUntil)
	}

	args := NavigateRequest{URL: req.URL, WaitUntil: waitUntil}

	outcome, err := s.call(ctx, methodNavigate, args)
	if err != nil {
		return nil, err
	}
	if !outcome.OK {
		return &NavigateResponse{ErrorMessage: outcome.ErrorMessage}, nil
	}

	var resp NavigateResponse
	if err := json.Unmarshal([]byte(outcome.Result), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode navigate result: %w", err)
	}
	resp.Success = true
	resp.ErrorMessage = ""
	return &resp, nil
}
