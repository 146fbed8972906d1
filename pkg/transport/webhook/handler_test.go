package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/session"
)

type fakeHandler struct {
	events []session.Event
	result *session.Result
	err    error
}

func (h *fakeHandler) Handle(ctx context.Context, ev session.Event) (*session.Result, error) {
	h.events = append(h.events, ev)
	if h.err != nil {
		return nil, h.err
	}
	if h.result != nil {
		return h.result, nil
	}
	return &session.Result{Outcome: session.OutcomeReplied, Reply: "echo: " + ev.Text, RecordID: "r1"}, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body)))
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) MessageResponse {
	t.Helper()
	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandler_Message(t *testing.T) {
	fh := &fakeHandler{}
	h := New(Config{}, fh)

	rec := post(t, h, `{"conversation_id":"c1","principal_id":"u1","display_name":"Ada","text":"Where is Paris?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Outcome != session.OutcomeReplied || resp.Reply != "echo: Where is Paris?" || resp.RecordID != "r1" {
		t.Errorf("response = %+v", resp)
	}
	if len(fh.events) != 1 || fh.events[0].DisplayName != "Ada" || fh.events[0].Command != session.CommandNone {
		t.Errorf("events = %+v", fh.events)
	}
}

func TestHandler_Commands(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCommand session.Command
		wantUnknown bool
	}{
		{name: "slash text", body: `{"conversation_id":"c1","text":"/toggle"}`, wantCommand: session.CommandToggle},
		{name: "explicit field", body: `{"conversation_id":"c1","command":"status"}`, wantCommand: session.CommandStatus},
		{name: "start", body: `{"conversation_id":"c1","text":"/start"}`, wantUnknown: true},
		{name: "unknown", body: `{"conversation_id":"c1","command":"weather"}`, wantUnknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fh := &fakeHandler{result: &session.Result{Outcome: session.OutcomeStatus, Reply: "ok"}}
			h := New(Config{UnknownCommandReply: "I AM ERROR"}, fh)

			rec := post(t, h, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			resp := decodeResponse(t, rec)
			if tt.wantUnknown {
				if len(fh.events) != 0 || resp.Outcome != OutcomeUnknownCommand || resp.Reply != "I AM ERROR" {
					t.Errorf("events = %+v, response = %+v", fh.events, resp)
				}
				return
			}
			if len(fh.events) != 1 || fh.events[0].Command != tt.wantCommand {
				t.Errorf("events = %+v", fh.events)
			}
		})
	}
}

func TestHandler_ProviderFailure(t *testing.T) {
	fh := &fakeHandler{result: &session.Result{
		Outcome: session.OutcomeFailed,
		Reply:   "Sorry",
		Failure: &session.ProviderFailure{Kind: session.FailureTimeout, Cause: context.DeadlineExceeded},
	}}
	rec := post(t, New(Config{}, fh), `{"conversation_id":"c1","text":"hi"}`)

	resp := decodeResponse(t, rec)
	if resp.Outcome != session.OutcomeFailed || resp.FailureKind != "timeout" || resp.Reply != "Sorry" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandler_LedgerFailure(t *testing.T) {
	fh := &fakeHandler{result: &session.Result{
		Outcome:   session.OutcomeReplied,
		Reply:     "hello",
		LedgerErr: errors.New("disk full"),
	}}
	resp := decodeResponse(t, post(t, New(Config{}, fh), `{"conversation_id":"c1","text":"hi"}`))
	if resp.Reply != "hello" || !resp.Unrecorded {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		handlerErr error
		maxBody    int64
		wantStatus int
	}{
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"conversation_id":"c1","text":"x","extra":1}`, wantStatus: http.StatusBadRequest},
		{name: "no conversation", body: `{"text":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "empty text", body: `{"conversation_id":"c1","text":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "too large", body: `{"conversation_id":"c1","text":"` + strings.Repeat("x", 200) + `"}`, maxBody: 64, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "busy", body: `{"conversation_id":"c1","text":"x"}`, handlerErr: session.ErrConversationBusy, wantStatus: http.StatusConflict},
		{name: "abandoned", body: `{"conversation_id":"c1","text":"x"}`, handlerErr: context.Canceled, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{MaxBodyBytes: tt.maxBody, BusyReply: "busy"}, &fakeHandler{err: tt.handlerErr})
			rec := post(t, h, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, &fakeHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}
