package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mercator-hq/relay/pkg/session"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/transport"
)

// Config configures the Telegram transport.
type Config struct {
	// Token is the bot token.
	Token string

	// PollTimeout is the getUpdates long-poll timeout.
	PollTimeout time.Duration

	// UnknownCommandReply answers /start and unrecognized commands.
	UnknownCommandReply string

	// BusyReply answers messages rejected because the conversation is busy.
	BusyReply string

	// RejectWhileBusy answers a message with BusyReply instead of queuing it
	// when its chat is still being handled.
	RejectWhileBusy bool

	// Debug logs Telegram API traffic.
	Debug bool
}

// botAPI is the subset of *tgbotapi.BotAPI the transport uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot long-polls Telegram and relays messages to a Handler.
type Bot struct {
	api     botAPI
	handler transport.Handler
	cfg     Config
	logger  *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chatQueue
	wg    sync.WaitGroup
}

// New connects to the Bot API with cfg.Token.
func New(cfg Config, handler transport.Handler) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is required")
	}

	logger := slog.Default().With("component", "transport.telegram")
	// tgbotapi logs request URLs, which embed the token; route them through
	// slog so the redactor masks it.
	_ = tgbotapi.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return newBot(api, cfg, handler), nil
}

func newBot(api botAPI, cfg Config, handler transport.Handler) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60 * time.Second
	}
	return &Bot{
		api:     api,
		handler: handler,
		cfg:     cfg,
		logger:  slog.Default().With("component", "transport.telegram"),
		chats:   make(map[int64]*chatQueue),
	}
}

// Run polls for updates until ctx is cancelled. Each chat's messages are
// handled one at a time in arrival order; chats run in parallel. Run returns
// after in-flight messages have been answered.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.cfg.PollTimeout / time.Second)

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram transport started", "poll_timeout", b.cfg.PollTimeout)

	defer func() {
		b.api.StopReceivingUpdates()
		b.wg.Wait()
		b.logger.Info("telegram transport stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ev := eventFromMessage(msg)
	ctx = logging.WithFields(ctx, slog.String("conversation_id", ev.ConversationID))

	if msg.IsCommand() {
		cmd, ok := session.ParseCommand(msg.Command())
		if !ok {
			b.logger.DebugContext(ctx, "unknown command", "command", msg.Command())
			b.send(ctx, msg.Chat.ID, b.cfg.UnknownCommandReply)
			return
		}
		ev.Command = cmd
	}

	result, err := b.handler.Handle(ctx, ev)
	switch {
	case errors.Is(err, session.ErrConversationBusy):
		b.send(ctx, msg.Chat.ID, b.cfg.BusyReply)
		return
	case err != nil:
		b.logger.WarnContext(ctx, "event not handled", "error", err)
		return
	}

	if result.Reply != "" {
		b.send(ctx, msg.Chat.ID, result.Reply)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.ErrorContext(ctx, "failed to send reply", "error", err)
	}
}

// eventFromMessage maps a Telegram message to a session event. The chat is
// the conversation and the sender is the principal.
func eventFromMessage(msg *tgbotapi.Message) session.Event {
	ev := session.Event{
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:           msg.Text,
		ReceivedAt:     msg.Time(),
	}
	if msg.From != nil {
		ev.PrincipalID = strconv.FormatInt(msg.From.ID, 10)
		ev.DisplayName = msg.From.FirstName
		ev.Username = msg.From.UserName
	}
	return ev
}
