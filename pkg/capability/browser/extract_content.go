package browser

import (
	"context"
	"fmt"
)

// ExtractFormat specifies the format for content extraction.
type ExtractFormat string

const (
	// FormatMarkdown extracts content as Markdown (default).
	FormatMarkdown ExtractFormat = "markdown"

	// FormatText extracts plain text only.
	FormatText ExtractFormat = "text"

	// FormatStructured extracts content as structured JSON.
	FormatStructured ExtractFormat = "structured"
)

// ExtractContentRequest asks the executor for the current page's content.
type ExtractContentRequest struct {
	// Format selects the extraction format; defaults to markdown.
	Format ExtractFormat `json:"format,omitempty"`

	// Selector optionally narrows extraction to a CSS selector.
	Selector string `json:"selector,omitempty"`
}

// ExtractContentResponse carries the extracted content, or the reason it is
// missing.
type ExtractContentResponse struct {
	// Content is the extracted payload in the requested format.
	Content string `json:"content,omitempty"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ExtractContent pulls page content through the bridge. The raw executor
// payload is returned as-is; interpreting it is the caller's concern.
func (s *Service) ExtractContent(ctx context.Context, req *ExtractContentRequest) (*ExtractContentResponse, error) {
	format := FormatMarkdown
	selector := ""
	if req != nil {
		if req.Format != "" {
			format = req.Format
		}
		selector = req.Selector
	}

	switch format {
	case FormatMarkdown, FormatText, FormatStructured:
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'markdown', 'text', or 'structured')", format)
	}

	args := ExtractContentRequest{Format: format, Selector: selector}

	outcome, err := s.call(ctx, methodExtractContent, args)
	if err != nil {
		return nil, err
	}
	if !outcome.OK {
		return &ExtractContentResponse{ErrorMessage: outcome.ErrorMessage}, nil
	}

	return &ExtractContentResponse{
		Content: outcome.Result,
		Success: true,
	}, nil
}
