// Package bridge is the conversation core: it routes bot commands, enriches
// link-bearing messages, replays rolling history into the prompt, and runs
// the Claude CLI for the final response.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tcb-dev/claudebridge/internal/config"
	"github.com/tcb-dev/claudebridge/internal/history"
	"github.com/tcb-dev/claudebridge/internal/models"
	"github.com/tcb-dev/claudebridge/internal/urldetect"
)

const historyPreviewRunes = 500

// Executor runs one prompt to completion.
type Executor interface {
	Execute(ctx context.Context, prompt string) (string, error)
}

// Enricher preprocesses message text and performs single-URL deep fetches.
type Enricher interface {
	Preprocess(ctx context.Context, text string) (string, []string)
	EnrichURL(ctx context.Context, rawURL string) (string, string, bool)
}

// ArtifactSaver persists fetched content to a durable markdown file.
type ArtifactSaver interface {
	Save(sourceURL, fetchedContent, assistantResponse, userNote string) (string, error)
}

// Extractor backs the /extract command.
type Extractor interface {
	Available() bool
	Extract(ctx context.Context, text string) (*models.Extraction, error)
}

// Capabilities records which optional features got configured at startup.
type Capabilities struct {
	Vision     bool
	Extraction bool
}

// Bridge ties the pipeline stages to per-chat conversations. One Claude
// execution runs at a time; concurrent requests get a busy notice.
type Bridge struct {
	cfg       *config.Config
	store     *history.Store
	runner    Executor
	enricher  Enricher
	artifacts ArtifactSaver
	extractor Extractor
	caps      Capabilities

	busy      atomic.Bool
	startTime time.Time
}

func New(cfg *config.Config, store *history.Store, runner Executor, enricher Enricher, artifacts ArtifactSaver, extractor Extractor, caps Capabilities) *Bridge {
	return &Bridge{
		cfg:       cfg,
		store:     store,
		runner:    runner,
		enricher:  enricher,
		artifacts: artifacts,
		extractor: extractor,
		caps:      caps,
		startTime: time.Now(),
	}
}

// IsAuthorized reports whether the user may talk to the bot. An empty
// allowlist admits everyone; main logs a warning for that mode at startup.
func (b *Bridge) IsAuthorized(userID int64) bool {
	if len(b.cfg.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HandleMessage processes one incoming message and returns the reply text
// plus an optional per-URL status line for the chat.
func (b *Bridge) HandleMessage(ctx context.Context, chatID int64, text string) (reply, urlStatus string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, chatID, text)
	}
	return b.handleChat(ctx, chatID, text)
}

func (b *Bridge) handleCommand(ctx context.Context, chatID int64, text string) (string, string) {
	command, args := splitCommand(text)

	switch command {
	case "/start":
		return startText, ""
	case "/help":
		return helpText, ""
	case "/clear":
		if err := b.store.Clear(ctx, sessionID(chatID)); err != nil {
			log.Printf("clear history for chat %d: %v", chatID, err)
			return "Failed to clear history: " + err.Error(), ""
		}
		return "🗑 Conversation history cleared.", ""
	case "/history":
		return b.handleHistory(ctx, chatID), ""
	case "/status":
		return b.handleStatus(ctx, chatID), ""
	case "/fetch":
		return b.handleFetch(ctx, chatID, args)
	case "/extract":
		return b.handleExtract(ctx, chatID, args), ""
	default:
		return "Unknown command. Use /help for available commands.", ""
	}
}

func (b *Bridge) handleChat(ctx context.Context, chatID int64, text string) (string, string) {
	if !b.busy.CompareAndSwap(false, true) {
		return "⏳ A previous task is still running. Please wait for it to finish.", ""
	}
	defer b.busy.Store(false)

	session := sessionID(chatID)

	enrichCtx, cancel := context.WithTimeout(ctx, b.cfg.EnrichTimeout)
	enriched, summaries := b.enricher.Preprocess(enrichCtx, text)
	cancel()
	urlStatus := strings.Join(summaries, "\n")

	turns, err := b.store.Read(ctx, session)
	if err != nil {
		log.Printf("read history for chat %d: %v", chatID, err)
		turns = nil
	}

	if err := b.store.Append(ctx, session, models.RoleUser, text); err != nil {
		log.Printf("append user turn for chat %d: %v", chatID, err)
		warning := "⚠️ History could not be saved; this exchange will be forgotten."
		if urlStatus != "" {
			urlStatus = warning + "\n" + urlStatus
		} else {
			urlStatus = warning
		}
	}

	prompt := buildPrompt(turns, enriched)
	response, err := b.runner.Execute(ctx, prompt)
	if err != nil {
		return executionErrorText(err, b.cfg.ClaudeTimeout), urlStatus
	}

	if err := b.store.Append(ctx, session, models.RoleAssistant, response); err != nil {
		log.Printf("append assistant turn for chat %d: %v", chatID, err)
	}

	if detected := urldetect.Detect(text); len(detected) > 0 && b.artifacts != nil {
		if path, err := b.artifacts.Save(detected[0].URL, enriched, response, text); err != nil {
			log.Printf("save artifact for chat %d: %v", chatID, err)
		} else {
			log.Printf("saved fetch artifact: %s", path)
		}
	}

	return response, urlStatus
}

func (b *Bridge) handleHistory(ctx context.Context, chatID int64) string {
	turns, err := b.store.Read(ctx, sessionID(chatID))
	if err != nil {
		return "Failed to read history: " + err.Error()
	}
	if len(turns) == 0 {
		return "No conversation history yet."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 Conversation history (%d turns):\n", len(turns)))
	for i, turn := range turns {
		label := "User"
		if turn.Role == models.RoleAssistant {
			label = "Claude"
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, label, preview(turn.Content, 100)))
	}
	return sb.String()
}

func (b *Bridge) handleStatus(ctx context.Context, chatID int64) string {
	turnCount, err := b.store.Len(ctx, sessionID(chatID))
	if err != nil {
		log.Printf("count history for chat %d: %v", chatID, err)
	}

	state := "idle"
	if b.busy.Load() {
		state = "busy"
	}

	return fmt.Sprintf(`🤖 Bot status
State: %s
Uptime: %s
History turns (this chat): %d of %d max
Image analysis: %s
Structured extraction: %s`,
		state,
		time.Since(b.startTime).Round(time.Second),
		turnCount, b.cfg.MaxHistoryRounds*2,
		onOff(b.caps.Vision),
		onOff(b.caps.Extraction))
}

func (b *Bridge) handleFetch(ctx context.Context, chatID int64, args string) (string, string) {
	rawURL := firstURL(args)
	if rawURL == "" {
		rawURL = b.lastUserURL(ctx, chatID)
	}
	if rawURL == "" {
		return "Usage: /fetch <url> (or send a message containing a link first)", ""
	}

	if !b.busy.CompareAndSwap(false, true) {
		return "⏳ A previous task is still running. Please wait for it to finish.", ""
	}
	defer b.busy.Store(false)

	enrichCtx, cancel := context.WithTimeout(ctx, b.cfg.EnrichTimeout)
	block, method, ok := b.enricher.EnrichURL(enrichCtx, rawURL)
	cancel()
	if !ok {
		return fmt.Sprintf("⚠️ %s → fetch failed", rawURL), ""
	}
	urlStatus := fmt.Sprintf("✅ %s → %s", rawURL, method)

	prompt := "Summarize and analyze the following fetched web content. Point out the key facts and anything notable.\n\n" + block
	response, err := b.runner.Execute(ctx, prompt)
	if err != nil {
		return executionErrorText(err, b.cfg.ClaudeTimeout), urlStatus
	}

	if b.artifacts != nil {
		if path, err := b.artifacts.Save(rawURL, block, response, "/fetch "+rawURL); err != nil {
			log.Printf("save artifact for chat %d: %v", chatID, err)
		} else {
			response += "\n\n💾 Saved: " + path
		}
	}
	return response, urlStatus
}

func (b *Bridge) handleExtract(ctx context.Context, chatID int64, args string) string {
	if b.extractor == nil || !b.extractor.Available() {
		return "Structured extraction is not configured (set OPENAI_API_KEY)."
	}

	source := strings.TrimSpace(args)
	if rawURL := firstURL(args); rawURL != "" {
		enrichCtx, cancel := context.WithTimeout(ctx, b.cfg.EnrichTimeout)
		block, _, ok := b.enricher.EnrichURL(enrichCtx, rawURL)
		cancel()
		if !ok {
			return fmt.Sprintf("⚠️ %s → fetch failed", rawURL)
		}
		source = block
	} else if source == "" {
		source = b.lastAssistantReply(ctx, chatID)
	}
	if source == "" {
		return "Usage: /extract <url or text> (or run after a conversation)"
	}

	extraction, err := b.extractor.Extract(ctx, source)
	if err != nil {
		return "Extraction failed: " + err.Error()
	}
	return formatExtraction(extraction)
}

func (b *Bridge) lastUserURL(ctx context.Context, chatID int64) string {
	turns, err := b.store.Read(ctx, sessionID(chatID))
	if err != nil {
		return ""
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != models.RoleUser {
			continue
		}
		if detected := urldetect.Detect(turns[i].Content); len(detected) > 0 {
			return detected[0].URL
		}
	}
	return ""
}

func (b *Bridge) lastAssistantReply(ctx context.Context, chatID int64) string {
	turns, err := b.store.Read(ctx, sessionID(chatID))
	if err != nil {
		return ""
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}

// buildPrompt replays prior turns as a labeled context block ahead of the
// current request. Long turns are previewed so the prompt stays bounded.
func buildPrompt(turns []models.HistoryTurn, current string) string {
	if len(turns) == 0 {
		return current
	}

	var sb strings.Builder
	sb.WriteString("=== Conversation History ===\n")
	for _, turn := range turns {
		label := "User"
		if turn.Role == models.RoleAssistant {
			label = "Claude"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(preview(turn.Content, historyPreviewRunes))
		sb.WriteString("\n")
	}
	sb.WriteString("\n=== Current Request ===\n")
	sb.WriteString(current)
	return sb.String()
}

func executionErrorText(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("⏱ Execution timeout (%s). Try a simpler request or raise CLAUDE_TIMEOUT.", timeout)
	}
	return "Error: " + err.Error()
}

func formatExtraction(extraction *models.Extraction) string {
	var lines []string
	lines = append(lines, "🔎 Extracted structure:")
	if extraction.Topic != "" {
		lines = append(lines, "Topic: "+extraction.Topic)
	}
	if len(extraction.KeyData) > 0 {
		lines = append(lines, "Key data: "+strings.Join(extraction.KeyData, "; "))
	}
	if len(extraction.Entities) > 0 {
		lines = append(lines, "Entities: "+strings.Join(extraction.Entities, ", "))
	}
	if extraction.Conclusion != "" {
		lines = append(lines, "Conclusion: "+extraction.Conclusion)
	}
	if len(lines) == 1 {
		return "No structure could be extracted."
	}
	return strings.Join(lines, "\n")
}

func sessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func splitCommand(text string) (command, args string) {
	parts := strings.SplitN(text, " ", 2)
	command = parts[0]
	// Commands may arrive as /status@botname in group chats.
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return command, args
}

func firstURL(text string) string {
	if detected := urldetect.Detect(text); len(detected) > 0 {
		return detected[0].URL
	}
	return ""
}

func preview(text string, maxRunes int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

const startText = `👋 I relay your messages to Claude Code.

Send any message and I'll pass it along with recent conversation context.
Links are fetched and summarized automatically before Claude sees them.

Commands:
/clear - Forget this chat's history
/history - Show recent turns
/status - Bot state and capabilities
/fetch <url> - Deep-fetch a link and analyze it
/extract <url or text> - Pull structured facts
/help - This message`

const helpText = `Commands:
/start - Welcome message
/clear - Forget this chat's history
/history - Show recent turns
/status - Bot state and capabilities
/fetch <url> - Deep-fetch a link and analyze it
/extract <url or text> - Pull structured facts

Plain messages go straight to Claude. Any links in them are fetched,
images described, and the content attached to your message.`
