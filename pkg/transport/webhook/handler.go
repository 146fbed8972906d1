package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mercator-hq/relay/pkg/server"
	"mercator-hq/relay/pkg/session"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/transport"
)

// Path is where events are posted.
const Path = "/v1/messages"

// OutcomeUnknownCommand marks a request answered with the fallback reply.
const OutcomeUnknownCommand session.Outcome = "unknown_command"

// Config configures the webhook transport.
type Config struct {
	// MaxBodyBytes limits request bodies. Default: 64 KiB
	MaxBodyBytes int64

	// UnknownCommandReply answers unrecognized commands.
	UnknownCommandReply string

	// BusyReply accompanies 409 responses under the reject policy.
	BusyReply string
}

// MessageRequest is one inbound event. A text starting with "/" is a
// command unless Command is set explicitly.
type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	PrincipalID    string `json:"principal_id,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
	Username       string `json:"username,omitempty"`
	Text           string `json:"text"`
	Command        string `json:"command,omitempty"`
}

// MessageResponse is the handled event.
type MessageResponse struct {
	Outcome     session.Outcome `json:"outcome"`
	Reply       string          `json:"reply,omitempty"`
	Enabled     bool            `json:"enabled"`
	RecordID    string          `json:"record_id,omitempty"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Unrecorded  bool            `json:"unrecorded,omitempty"`
}

// BusyResponse is returned with 409 Conflict.
type BusyResponse struct {
	Error string `json:"error"`
	Reply string `json:"reply,omitempty"`
}

// Handler accepts events over HTTP and answers synchronously.
type Handler struct {
	handler transport.Handler
	cfg     Config
	logger  *slog.Logger
}

// New returns a webhook handler.
func New(cfg Config, handler transport.Handler) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Handler{
		handler: handler,
		cfg:     cfg,
		logger:  slog.Default().With("component", "transport.webhook"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		server.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ev, unknown, err := h.decode(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			server.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := logging.WithFields(r.Context(), slog.String("conversation_id", ev.ConversationID))

	if unknown {
		h.logger.DebugContext(ctx, "unknown command")
		server.WriteJSON(w, http.StatusOK, MessageResponse{
			Outcome: OutcomeUnknownCommand,
			Reply:   h.cfg.UnknownCommandReply,
		})
		return
	}

	result, err := h.handler.Handle(ctx, ev)
	switch {
	case errors.Is(err, session.ErrConversationBusy):
		server.WriteJSON(w, http.StatusConflict, BusyResponse{Error: err.Error(), Reply: h.cfg.BusyReply})
		return
	case errors.Is(err, session.ErrInvalidEvent):
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// The request context ended while the event was queued.
		h.logger.WarnContext(ctx, "event not handled", "error", err)
		server.WriteError(w, http.StatusServiceUnavailable, "event not handled")
		return
	}

	resp := MessageResponse{
		Outcome:    result.Outcome,
		Reply:      result.Reply,
		Enabled:    result.Enabled,
		RecordID:   result.RecordID,
		Unrecorded: result.LedgerErr != nil,
	}
	if result.Failure != nil {
		resp.FailureKind = string(result.Failure.Kind)
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (session.Event, bool, error) {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req MessageRequest
	if err := dec.Decode(&req); err != nil {
		return session.Event{}, false, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return session.Event{}, false, errors.New("conversation_id is required")
	}

	ev := session.Event{
		ConversationID: req.ConversationID,
		PrincipalID:    req.PrincipalID,
		DisplayName:    req.DisplayName,
		Username:       req.Username,
		Text:           req.Text,
		ReceivedAt:     time.Now(),
	}

	name := req.Command
	if name == "" && strings.HasPrefix(strings.TrimSpace(req.Text), "/") {
		name, _, _ = strings.Cut(strings.TrimSpace(req.Text), " ")
	}
	if name != "" {
		cmd, ok := session.ParseCommand(name)
		if !ok {
			return ev, true, nil
		}
		ev.Command = cmd
		return ev, false, nil
	}

	if strings.TrimSpace(req.Text) == "" {
		return session.Event{}, false, errors.New("text is required")
	}
	return ev, false, nil
}
