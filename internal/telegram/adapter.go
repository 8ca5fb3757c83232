package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/storynest/internal/illustration"
	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/internal/types"
	"github.com/user/storynest/pkg/storyapi"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram chats to the story pipeline. Each Telegram user
// and chat pair gets its own session, so siblings sharing a group chat still
// keep separate bedtime conversations.
type Adapter struct {
	bot         *tgbotapi.BotAPI
	controller  *orchestrator.Controller
	transcripts *state.TranscriptLog
	images      *illustration.Fetcher

	// test seam for outbound sends
	send func(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// New creates a Telegram adapter. The transcript log and illustration
// fetcher are optional.
func New(token string, controller *orchestrator.Controller, transcripts *state.TranscriptLog, images *illustration.Fetcher) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a := &Adapter{
		bot:         bot,
		controller:  controller,
		transcripts: transcripts,
		images:      images,
	}
	a.send = bot.Send
	return a, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}
	a.dispatch(msg.Chat.ID, buildSessionKey(msg.From.ID, msg.Chat.ID),
		strconv.FormatInt(msg.From.ID, 10), msg.Text)
}

// dispatch pushes text through the pipeline and relays assistant turns back
// to the chat. Story echo turns stay internal; the generated story reaches
// the chat as its own message plus an illustration when one is available.
func (a *Adapter) dispatch(chatID int64, key types.SessionKey, userID, text string) {
	msg := &types.InboundMessage{
		Source:     "telegram",
		SessionKey: key,
		UserID:     userID,
		Text:       text,
	}

	err := a.controller.HandleInbound(msg,
		orchestrator.WithOnTurn(func(turn types.Turn) {
			a.recordTurn(key, turn)
			if turn.Role != types.RoleAssistant || orchestrator.IsStoryEcho(turn.Content) {
				return
			}
			a.sendText(chatID, turn.Content)
		}),
		orchestrator.WithOnStory(func(story *storyapi.Story) {
			a.sendStory(chatID, story)
		}),
	)
	if err != nil {
		slog.Error("telegram inbound failed", "error", err)
		a.sendText(chatID, "Sorry, I couldn't process that message.")
	}
}

// recordTurn persists a turn to the session transcript.
func (a *Adapter) recordTurn(key types.SessionKey, turn types.Turn) {
	if a.transcripts == nil {
		return
	}
	session := a.controller.Sessions().ResolveOrCreate(key)
	if err := a.transcripts.Append(session.ID, turn); err != nil {
		slog.Warn("transcript append failed", "session_id", string(session.ID), "error", err)
	}
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	key := buildSessionKey(msg.From.ID, msg.Chat.ID)

	switch msg.Command() {
	case "start":
		a.sendText(chatID, "Hello! I'm StoryNest, your bedtime storyteller. "+
			"Tell me what kind of story you'd like to hear, or just say hi.")

	case "new":
		session := a.controller.Sessions().ResolveOrCreate(key)
		session.Reset()
		a.sendText(chatID, "Fresh start! What story shall we dream up tonight?")

	case "stories":
		a.sendText(chatID, a.formatLibrary(ctx, key))

	case "story":
		a.sendText(chatID, a.formatCurrentStory(key))

	case "status":
		session := a.controller.Sessions().ResolveOrCreate(key)
		a.sendText(chatID, fmt.Sprintf("Session: %s\nTurns: %d", session.ID, session.Len()))

	default:
		a.sendText(chatID, "Unknown command. Available: /start, /new, /stories, /story, /status")
	}
}

// formatLibrary lists recent stories for the session.
func (a *Adapter) formatLibrary(ctx context.Context, key types.SessionKey) string {
	session := a.controller.Sessions().ResolveOrCreate(key)
	stories := a.controller.RefreshStoryHistory(ctx, session)
	if len(stories) == 0 {
		return "No stories yet. Ask me for one!"
	}
	var b strings.Builder
	b.WriteString("Recent stories:\n")
	for i, story := range stories {
		title := story.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatCurrentStory returns the full text of the session's latest story.
func (a *Adapter) formatCurrentStory(key types.SessionKey) string {
	session := a.controller.Sessions().ResolveOrCreate(key)
	story := session.CurrentStory()
	if story == nil {
		return "No story yet tonight. Ask me for one!"
	}
	return story.Title + "\n\n" + story.Content
}

// sendStory delivers the full story text and, when available, its cover
// illustration.
func (a *Adapter) sendStory(chatID int64, story *storyapi.Story) {
	a.sendText(chatID, story.Title+"\n\n"+story.Content)

	if a.images == nil {
		return
	}
	path := a.images.Fetch(context.Background(), story)
	if path == "" {
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = story.Title
	if _, err := a.send(photo); err != nil {
		slog.Warn("send illustration failed", "error", err)
	}
}

func (a *Adapter) sendText(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.send(msg); err != nil {
				slog.Error("send message failed", "error", err)
			}
		}
	}
}

// DeliverReminder routes a scheduled reminder prompt into the chat pipeline.
// The session key must be of the form telegram:<userID>:<chatID>.
func (a *Adapter) DeliverReminder(sessionKey, prompt string) error {
	parts := strings.Split(sessionKey, ":")
	if len(parts) != 3 || parts[0] != "telegram" {
		return fmt.Errorf("malformed telegram session key: %s", sessionKey)
	}
	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id from session key %s: %w", sessionKey, err)
	}
	a.dispatch(chatID, types.SessionKey(sessionKey), parts[1], prompt)
	return nil
}

// splitMessage chunks text to Telegram's message limit. The limit counts
// characters, so chunks are cut on rune boundaries.
func splitMessage(text string) []string {
	if utf8.RuneCountInString(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		end := maxTelegramMessage
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[:end]))
		runes = runes[end:]
	}
	return parts
}

func buildSessionKey(userID, chatID int64) types.SessionKey {
	return types.NewSessionKey("telegram",
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(chatID, 10),
	)
}
