package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mercator-hq/relay/pkg/session"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	updates chan tgbotapi.Update

	mu      sync.Mutex
	sent    []sentMessage
	stopped bool
	sendErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: msg.ChatID, text: msg.Text})
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeHandler struct {
	mu     sync.Mutex
	events []session.Event
	result *session.Result
	err    error
}

func (h *fakeHandler) Handle(ctx context.Context, ev session.Event) (*session.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	if h.err != nil {
		return nil, h.err
	}
	if h.result != nil {
		return h.result, nil
	}
	return &session.Result{Outcome: session.OutcomeReplied, Reply: "echo: " + ev.Text}, nil
}

func (h *fakeHandler) Events() []session.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]session.Event(nil), h.events...)
}

func textUpdate(chatID, userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Date:      int(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Unix()),
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		From:      &tgbotapi.User{ID: userID, FirstName: "Ada", UserName: "ada"},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

// runBot feeds updates and stops the bot once every update is handled.
func runBot(t *testing.T, h *fakeHandler, api *fakeAPI, updates ...tgbotapi.Update) {
	t.Helper()
	bot := newBot(api, Config{UnknownCommandReply: "I AM ERROR", BusyReply: "busy"}, h)

	for _, u := range updates {
		api.updates <- u
	}
	close(api.updates)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestBot_RelaysText(t *testing.T) {
	api, h := newFakeAPI(), &fakeHandler{}
	runBot(t, h, api, textUpdate(42, 7, "Where is Paris?"))

	events := h.Events()
	if len(events) != 1 {
		t.Fatalf("handled %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.ConversationID != "42" || ev.PrincipalID != "7" || ev.DisplayName != "Ada" || ev.Username != "ada" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Command != session.CommandNone || ev.ReceivedAt.IsZero() {
		t.Errorf("event = %+v", ev)
	}

	sent := api.Sent()
	if len(sent) != 1 || sent[0] != (sentMessage{chatID: 42, text: "echo: Where is Paris?"}) {
		t.Errorf("sent = %+v", sent)
	}
}

func TestBot_Commands(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantCommand session.Command
		wantHandled bool
		wantReply   string
	}{
		{name: "toggle", text: "/toggle", wantCommand: session.CommandToggle, wantHandled: true},
		{name: "status with bot suffix", text: "/status@relay_bot", wantCommand: session.CommandStatus, wantHandled: true},
		{name: "start is unknown", text: "/start", wantReply: "I AM ERROR"},
		{name: "unknown", text: "/weather now", wantReply: "I AM ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			h := &fakeHandler{result: &session.Result{Outcome: session.OutcomeStatus, Reply: "ok"}}
			runBot(t, h, api, textUpdate(1, 1, tt.text))

			events := h.Events()
			if tt.wantHandled {
				if len(events) != 1 || events[0].Command != tt.wantCommand {
					t.Fatalf("events = %+v", events)
				}
				return
			}
			if len(events) != 0 {
				t.Fatalf("unknown command reached the handler: %+v", events)
			}
			if sent := api.Sent(); len(sent) != 1 || sent[0].text != tt.wantReply {
				t.Errorf("sent = %+v", sent)
			}
		})
	}
}

func TestBot_EmptyReplySendsNothing(t *testing.T) {
	api := newFakeAPI()
	h := &fakeHandler{result: &session.Result{Outcome: session.OutcomeGated}}
	runBot(t, h, api, textUpdate(1, 1, "hello"))

	if len(h.Events()) != 1 {
		t.Fatal("event not handled")
	}
	if sent := api.Sent(); len(sent) != 0 {
		t.Errorf("sent = %+v, want nothing", sent)
	}
}

func TestBot_Busy(t *testing.T) {
	api := newFakeAPI()
	h := &fakeHandler{err: session.ErrConversationBusy}
	runBot(t, h, api, textUpdate(5, 1, "hello"))

	if sent := api.Sent(); len(sent) != 1 || sent[0].text != "busy" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestBot_HandlerErrorSendsNothing(t *testing.T) {
	api := newFakeAPI()
	h := &fakeHandler{err: errors.New("boom")}
	runBot(t, h, api, textUpdate(5, 1, "hello"))

	if sent := api.Sent(); len(sent) != 0 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestBot_IgnoresNonText(t *testing.T) {
	api, h := newFakeAPI(), &fakeHandler{}
	photo := textUpdate(1, 1, "")
	runBot(t, h, api, photo, tgbotapi.Update{UpdateID: 2})

	if len(h.Events()) != 0 || len(api.Sent()) != 0 {
		t.Error("non-text updates were handled")
	}
}

func TestBot_StopsOnCancel(t *testing.T) {
	api, h := newFakeAPI(), &fakeHandler{}
	bot := newBot(api, Config{}, h)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- textUpdate(1, 1, "hi")
	deadline := time.Now().Add(2 * time.Second)
	for len(api.Sent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("message not answered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("StopReceivingUpdates not called")
	}
}

func TestBot_SameChatInArrivalOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		api, h := newFakeAPI(), &fakeHandler{}
		runBot(t, h, api,
			textUpdate(42, 7, "A"),
			textUpdate(43, 8, "x"),
			textUpdate(42, 7, "B"),
			textUpdate(42, 7, "C"),
		)

		var got []string
		for _, ev := range h.Events() {
			if ev.ConversationID == "42" {
				got = append(got, ev.Text)
			}
		}
		if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
			t.Fatalf("iteration %d: chat 42 handled as %v, want [A B C]", i, got)
		}
		if n := len(h.Events()); n != 4 {
			t.Fatalf("iteration %d: handled %d events, want 4", i, n)
		}
	}
}

// blockingHandler holds the first event until release is closed.
type blockingHandler struct {
	fakeHandler
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *blockingHandler) Handle(ctx context.Context, ev session.Event) (*session.Result, error) {
	h.once.Do(func() {
		close(h.started)
		<-h.release
	})
	return h.fakeHandler.Handle(ctx, ev)
}

func TestBot_RejectWhileBusy(t *testing.T) {
	api := newFakeAPI()
	h := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	bot := newBot(api, Config{BusyReply: "busy", RejectWhileBusy: true}, h)

	done := make(chan error, 1)
	go func() { done <- bot.Run(context.Background()) }()

	api.updates <- textUpdate(42, 7, "first")
	<-h.started
	api.updates <- textUpdate(42, 7, "second")

	deadline := time.Now().Add(2 * time.Second)
	for len(api.Sent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("busy reply not sent")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(h.release)
	close(api.updates)
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sent := api.Sent()
	if len(sent) != 2 || sent[0].text != "busy" || sent[1].text != "echo: first" {
		t.Errorf("sent = %+v", sent)
	}
	if events := h.Events(); len(events) != 1 || events[0].Text != "first" {
		t.Errorf("events = %+v", events)
	}
}
