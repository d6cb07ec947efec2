package browserinfo

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/bridge/pkg/bridge"
)

type fakeInvoker struct {
	method string
	args   string

	resp bridge.CompleteRequest
	err  error
}

func (f *fakeInvoker) Request(ctx context.Context, method, args string, timeout time.Duration) (bridge.CompleteRequest, error) {
	f.method = method
	f.args = args
	return f.resp, f.err
}

func TestGetAllContextData_Success(t *testing.T) {
	inv := &fakeInvoker{resp: bridge.CompleteRequest{Success: true, Result: `{"history":[]}`}}
	svc := NewService(inv, time.Second)

	resp, err := svc.GetAllContextData(context.Background(), &ContextDataRequest{
		Params: &ContextDataParams{HistoryLimit: 50, DownloadLimit: 10},
	})
	if err != nil {
		t.Fatalf("GetAllContextData() error = %v", err)
	}

	if !resp.Success {
		t.Errorf("Success = false, want true: %s", resp.ErrorMessage)
	}
	if resp.ContextData != `{"history":[]}` {
		t.Errorf("ContextData = %q, want executor payload", resp.ContextData)
	}
	if inv.method != "browser_info.getAllContextData" {
		t.Errorf("method = %q, want browser_info.getAllContextData", inv.method)
	}
	if inv.args != `{"params":{"historyLimit":50,"downloadLimit":10}}` {
		t.Errorf("args = %q, want wrapped params", inv.args)
	}
}

func TestGetAllContextData_NoParams(t *testing.T) {
	inv := &fakeInvoker{resp: bridge.CompleteRequest{Success: true, Result: "{}"}}
	svc := NewService(inv, time.Second)

	if _, err := svc.GetAllContextData(context.Background(), &ContextDataRequest{}); err != nil {
		t.Fatalf("GetAllContextData() error = %v", err)
	}
	if inv.args != "" {
		t.Errorf("args = %q, want empty so the hub applies its default", inv.args)
	}
}

func TestGetAllContextData_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    bridge.CompleteRequest
		err     error
		wantMsg string
	}{
		{
			name:    "executor failure with reason",
			resp:    bridge.CompleteRequest{Success: false, ErrorMessage: "no window"},
			wantMsg: "no window",
		},
		{
			name:    "empty result falls back",
			resp:    bridge.CompleteRequest{Success: true, Result: "  "},
			wantMsg: "executor returned no data",
		},
		{
			name:    "bridge timeout",
			err:     bridge.ErrTimeout,
			wantMsg: "bridge timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{resp: tt.resp, err: tt.err}
			svc := NewService(inv, time.Second)

			resp, err := svc.GetAllContextData(context.Background(), &ContextDataRequest{})
			if err != nil {
				t.Fatalf("GetAllContextData() error = %v", err)
			}
			if resp.Success {
				t.Error("Success = true, want false")
			}
			if resp.ErrorMessage != tt.wantMsg {
				t.Errorf("ErrorMessage = %q, want %q", resp.ErrorMessage, tt.wantMsg)
			}
			if resp.ContextData != "" {
				t.Errorf("ContextData = %q, want empty on failure", resp.ContextData)
			}
		})
	}
}
