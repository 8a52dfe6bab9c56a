// Package telegram is the chat transport: long-polls for updates, enforces
// the user allowlist, shows a processing notice while work runs, and chunks
// long replies under the Telegram message limit.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tcb-dev/claudebridge/internal/bridge"
	"github.com/tcb-dev/claudebridge/internal/urldetect"
)

// Telegram rejects messages over 4096 characters; stay under with margin.
const maxMessageRunes = 4000

type Bot struct {
	api    *tgbotapi.BotAPI
	bridge *bridge.Bridge
}

func NewBot(token string, b *bridge.Bridge) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Printf("authorized on telegram account @%s", api.Self.UserName)
	return &Bot{api: api, bridge: b}, nil
}

// Run long-polls for updates until ctx is cancelled. Each update is handled
// on its own goroutine; the bridge serializes Claude executions itself.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := msg.Text

	if !b.bridge.IsAuthorized(userID) {
		log.Printf("rejected message from unauthorized user %d", userID)
		b.send(chatID, fmt.Sprintf("⛔ Not authorized. Your user ID: %d", userID))
		return
	}

	// Commands answer quickly; only plain messages get a processing notice.
	var noticeID int
	if !strings.HasPrefix(text, "/") {
		notice := "🤔 Claude is processing..."
		if len(urldetect.Detect(text)) > 0 {
			notice = "🔗 Link detected, fetching content..."
		}
		noticeID = b.send(chatID, notice)
	}

	reply, urlStatus := b.bridge.HandleMessage(ctx, chatID, text)

	if noticeID != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, noticeID)); err != nil {
			log.Printf("delete processing notice: %v", err)
		}
	}

	if urlStatus != "" {
		b.send(chatID, urlStatus)
	}
	if reply != "" {
		b.sendChunked(chatID, reply)
	}
}

// sendChunked splits replies that exceed the Telegram limit into numbered
// parts delivered in order.
func (b *Bot) sendChunked(chatID int64, text string) {
	chunks := splitChunks(text, maxMessageRunes)
	if len(chunks) == 1 {
		b.send(chatID, chunks[0])
		return
	}
	for i, chunk := range chunks {
		b.send(chatID, fmt.Sprintf("[%d/%d]\n%s", i+1, len(chunks), chunk))
	}
}

func splitChunks(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(runes) > 0 {
		n := limit
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

func (b *Bot) send(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("send telegram message: %v", err)
		return 0
	}
	return sent.MessageID
}
