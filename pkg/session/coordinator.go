package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relay/internal/keylock"
	"mercator-hq/relay/pkg/ledger"
	"mercator-hq/relay/pkg/providers"
)

// State is a conversation's processing state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
)

// BusyPolicy decides what happens to an event for a conversation that is
// already processing one.
type BusyPolicy string

const (
	// BusyQueue waits for the conversation to become idle.
	BusyQueue BusyPolicy = "queue"

	// BusyReject fails immediately with ErrConversationBusy.
	BusyReject BusyPolicy = "reject"
)

// ParseBusyPolicy parses a policy name. The empty string selects BusyQueue.
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch BusyPolicy(s) {
	case "", BusyQueue:
		return BusyQueue, nil
	case BusyReject:
		return BusyReject, nil
	default:
		return "", fmt.Errorf("unknown busy policy %q (expected queue or reject)", s)
	}
}

// Replies are the fixed texts the coordinator answers with.
type Replies struct {
	Failure        string
	Enabled        string
	Disabled       string
	StatusEnabled  string
	StatusDisabled string
	GateFailure    string
}

// DefaultReplies returns the built-in reply texts.
func DefaultReplies() Replies {
	return Replies{
		Failure:        "Sorry, I could not process that.",
		Enabled:        "Automated replies are now enabled.",
		Disabled:       "Automated replies are now disabled.",
		StatusEnabled:  "Automated replies are currently enabled.",
		StatusDisabled: "Automated replies are currently disabled.",
		GateFailure:    "Could not change the reply setting, please try again.",
	}
}

func (r Replies) withDefaults() Replies {
	d := DefaultReplies()
	if r.Failure == "" {
		r.Failure = d.Failure
	}
	if r.Enabled == "" {
		r.Enabled = d.Enabled
	}
	if r.Disabled == "" {
		r.Disabled = d.Disabled
	}
	if r.StatusEnabled == "" {
		r.StatusEnabled = d.StatusEnabled
	}
	if r.StatusDisabled == "" {
		r.StatusDisabled = d.StatusDisabled
	}
	if r.GateFailure == "" {
		r.GateFailure = d.GateFailure
	}
	return r
}

// DefaultLedgerWriteTimeout bounds one ledger append.
const DefaultLedgerWriteTimeout = 5 * time.Second

// CompletionInvoker produces a reply for an assembled prompt.
type CompletionInvoker interface {
	Complete(ctx context.Context, messages []providers.Message) (*Completion, error)
}

// Config configures a Coordinator.
type Config struct {
	// WindowSize is the per-conversation turn capacity. Must be even.
	// Default: 10
	WindowSize int

	// BusyPolicy applies to events for a conversation already processing.
	// Default: queue
	BusyPolicy BusyPolicy

	// LedgerWriteTimeout bounds each ledger append. Default: 5s
	LedgerWriteTimeout time.Duration

	// Replies overrides the built-in reply texts field by field.
	Replies Replies

	// Observer receives metrics signals. Optional.
	Observer Observer

	// Tracer creates spans. Default: the global otel tracer provider.
	Tracer trace.Tracer

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Coordinator runs every inbound event through the gate, the context window,
// the provider and the ledger. Events for one conversation are processed one
// at a time; different conversations run in parallel.
type Coordinator struct {
	cfg       Config
	replies   Replies
	gate      Gate
	assembler *Assembler
	invoker   CompletionInvoker
	turnLog   ledger.TurnLog
	observer  Observer
	tracer    trace.Tracer
	logger    *slog.Logger

	locks *keylock.Map

	mu      sync.Mutex
	windows map[string]*Window
}

// NewCoordinator validates cfg and wires the collaborators.
func NewCoordinator(cfg Config, gate Gate, assembler *Assembler, invoker CompletionInvoker, turnLog ledger.TurnLog) (*Coordinator, error) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if err := ValidateWindowSize(cfg.WindowSize); err != nil {
		return nil, err
	}
	policy, err := ParseBusyPolicy(string(cfg.BusyPolicy))
	if err != nil {
		return nil, err
	}
	cfg.BusyPolicy = policy
	if cfg.LedgerWriteTimeout <= 0 {
		cfg.LedgerWriteTimeout = DefaultLedgerWriteTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	switch {
	case gate == nil:
		return nil, errors.New("session: gate is required")
	case assembler == nil:
		return nil, errors.New("session: assembler is required")
	case invoker == nil:
		return nil, errors.New("session: invoker is required")
	case turnLog == nil:
		return nil, errors.New("session: turn log is required")
	}

	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("mercator-hq/relay/pkg/session")
	}

	return &Coordinator{
		cfg:       cfg,
		replies:   cfg.Replies.withDefaults(),
		gate:      gate,
		assembler: assembler,
		invoker:   invoker,
		turnLog:   turnLog,
		observer:  observer,
		tracer:    tracer,
		logger:    slog.Default().With("component", "session.coordinator"),
		locks:     keylock.New(),
		windows:   make(map[string]*Window),
	}, nil
}

// Handle processes one event and returns what to send back. The returned
// error is non-nil only when the event was not processed at all: an invalid
// event, ErrConversationBusy, or ctx ending while queued. Once processing
// starts it runs to completion even if ctx is cancelled; the provider and
// ledger deadlines still apply.
func (c *Coordinator) Handle(ctx context.Context, ev Event) (*Result, error) {
	if ev.ConversationID == "" {
		return nil, ErrInvalidEvent
	}

	unlock, err := c.acquire(ctx, ev.ConversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c.observer.ProcessingChanged(1)
	defer c.observer.ProcessingChanged(-1)

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "session.Handle",
		trace.WithAttributes(
			attribute.String("relay.conversation_id", ev.ConversationID),
			attribute.String("relay.command", string(ev.Command)),
		),
	)
	defer span.End()

	result := c.process(ctx, ev)

	span.SetAttributes(attribute.String("relay.outcome", string(result.Outcome)))
	switch {
	case result.Failure != nil:
		span.RecordError(result.Failure)
		span.SetStatus(codes.Error, string(result.Failure.Kind))
	case result.LedgerErr != nil:
		span.RecordError(result.LedgerErr)
	}

	c.observer.EventHandled(result.Outcome, time.Since(start))
	return result, nil
}

func (c *Coordinator) acquire(ctx context.Context, conversationID string) (func(), error) {
	if c.cfg.BusyPolicy == BusyReject {
		unlock, ok := c.locks.TryLock(conversationID)
		if !ok {
			return nil, ErrConversationBusy
		}
		return unlock, nil
	}
	return c.locks.Lock(ctx, conversationID)
}

func (c *Coordinator) process(ctx context.Context, ev Event) *Result {
	key := c.gate.KeyFor(ev.ConversationID, ev.PrincipalID)
	logger := c.logger.With("conversation_id", ev.ConversationID, "gate_key", key)

	switch {
	case ev.Command.IsGateCommand():
		return c.changeGate(ctx, logger, ev.Command, key)
	case ev.Command == CommandStatus:
		enabled := c.gate.Query(ctx, key)
		reply := c.replies.StatusDisabled
		if enabled {
			reply = c.replies.StatusEnabled
		}
		return &Result{Outcome: OutcomeStatus, Reply: reply, Enabled: enabled}
	}

	if !c.gate.Query(ctx, key) {
		logger.DebugContext(ctx, "replies disabled, ignoring message")
		return &Result{Outcome: OutcomeGated}
	}

	window := c.window(ev.ConversationID)
	receivedAt := ev.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = c.cfg.Now()
	}

	evicted := window.Append(Turn{
		Role:           RoleUser,
		Text:           ev.Text,
		ConversationID: ev.ConversationID,
		At:             receivedAt,
	})
	if evicted > 0 {
		c.observer.WindowEvicted(evicted)
	}

	// The newest turn is the one just appended; it is passed separately.
	snapshot := window.Snapshot()
	history := snapshot[:len(snapshot)-1]
	messages := c.assembler.Build(displayName(ev), history, ev.Text)

	callStart := time.Now()
	completion, err := c.invoker.Complete(ctx, messages)
	if err != nil {
		failure := asFailure(err)
		c.observer.CompletionFinished(failure.Kind, time.Since(callStart))
		logger.WarnContext(ctx, "completion failed", "kind", failure.Kind, "error", failure.Cause)
		return &Result{Outcome: OutcomeFailed, Reply: c.replies.Failure, Failure: failure}
	}
	c.observer.CompletionFinished("", completion.Latency)

	repliedAt := c.cfg.Now()
	if evicted := window.Append(Turn{
		Role:           RoleAssistant,
		Text:           completion.Text,
		ConversationID: ev.ConversationID,
		At:             repliedAt,
	}); evicted > 0 {
		c.observer.WindowEvicted(evicted)
	}

	record := ledger.NewRecord(ev.ConversationID, ev.PrincipalID, repliedAt)
	record.DisplayName = ev.DisplayName
	record.Username = ev.Username
	record.UserText = ev.Text
	record.AssistantText = completion.Text
	record.Model = completion.Model
	record.PromptTokens = completion.PromptTokens
	record.CompletionTokens = completion.CompletionTokens

	result := &Result{Outcome: OutcomeReplied, Reply: completion.Text, Enabled: true, RecordID: record.ID}

	writeCtx, cancel := context.WithTimeout(ctx, c.cfg.LedgerWriteTimeout)
	defer cancel()
	if err := c.turnLog.AppendRecord(writeCtx, record); err != nil {
		result.LedgerErr = &LedgerWriteError{
			RecordID:       record.ID,
			ConversationID: ev.ConversationID,
			Cause:          err,
		}
		c.observer.LedgerWriteFailed()
		logger.ErrorContext(ctx, "exchange not recorded, reply still delivered",
			"record_id", record.ID,
			"error", err,
		)
	}

	logger.DebugContext(ctx, "exchange completed",
		"record_id", record.ID,
		"model", completion.Model,
		"latency", completion.Latency,
		"window_len", window.Len(),
	)
	return result
}

func (c *Coordinator) changeGate(ctx context.Context, logger *slog.Logger, cmd Command, key string) *Result {
	var (
		enabled bool
		err     error
	)
	switch cmd {
	case CommandEnable:
		enabled, err = c.gate.Set(ctx, key, true)
	case CommandDisable:
		enabled, err = c.gate.Set(ctx, key, false)
	default:
		enabled, err = c.gate.Toggle(ctx, key)
	}

	if err != nil {
		logger.ErrorContext(ctx, "reply switch not changed", "command", cmd, "error", err)
		return &Result{Outcome: OutcomeFailed, Reply: c.replies.GateFailure, Enabled: enabled}
	}

	reply := c.replies.Disabled
	if enabled {
		reply = c.replies.Enabled
	}
	return &Result{Outcome: OutcomeToggled, Reply: reply, Enabled: enabled}
}

// window returns the conversation's window, creating it on first use.
func (c *Coordinator) window(conversationID string) *Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[conversationID]
	if !ok {
		// WindowSize was validated in NewCoordinator.
		w, _ = NewWindow(c.cfg.WindowSize)
		c.windows[conversationID] = w
	}
	return w
}

// Window returns a copy of a conversation's turns, oldest first.
func (c *Coordinator) Window(conversationID string) []Turn {
	c.mu.Lock()
	w, ok := c.windows[conversationID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return w.Snapshot()
}

// State reports whether a conversation is processing an event.
func (c *Coordinator) State(conversationID string) State {
	if c.locks.Held(conversationID) {
		return StateProcessing
	}
	return StateIdle
}

// Conversations returns the number of conversations with a window.
func (c *Coordinator) Conversations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

func asFailure(err error) *ProviderFailure {
	var failure *ProviderFailure
	if errors.As(err, &failure) {
		return failure
	}
	return &ProviderFailure{Kind: FailureUnavailable, Cause: err}
}

// displayName picks the name used to personalise the prompt.
func displayName(ev Event) string {
	switch {
	case ev.DisplayName != "":
		return ev.DisplayName
	case ev.Username != "":
		return ev.Username
	default:
		return "friend"
	}
}
