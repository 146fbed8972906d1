package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatQueue holds messages waiting behind the one a chat's worker is
// handling. A chat has a queue exactly while its worker runs.
type chatQueue struct {
	pending []*tgbotapi.Message
}

// dispatch hands msg to its chat's worker, starting one if the chat is idle.
// It runs on the polling goroutine, so messages of one chat are handled in
// the order Telegram delivered them while different chats run in parallel.
func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	chatID := msg.Chat.ID

	b.mu.Lock()
	if q, busy := b.chats[chatID]; busy {
		if b.cfg.RejectWhileBusy {
			b.mu.Unlock()
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.send(ctx, chatID, b.cfg.BusyReply)
			}()
			return
		}
		q.pending = append(q.pending, msg)
		b.mu.Unlock()
		return
	}
	b.chats[chatID] = &chatQueue{}
	b.mu.Unlock()

	b.wg.Add(1)
	go b.drain(ctx, chatID, msg)
}

// drain handles msg and then every message queued for the chat behind it.
func (b *Bot) drain(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	defer b.wg.Done()

	for {
		b.handleMessage(ctx, msg)

		b.mu.Lock()
		q := b.chats[chatID]
		if len(q.pending) == 0 || ctx.Err() != nil {
			if dropped := len(q.pending); dropped > 0 {
				b.logger.Warn("shutting down, queued messages dropped", "chat_id", chatID, "count", dropped)
			}
			delete(b.chats, chatID)
			b.mu.Unlock()
			return
		}
		msg = q.pending[0]
		q.pending = q.pending[1:]
		b.mu.Unlock()
	}
}
