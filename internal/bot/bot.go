// Package bot exposes subscription preferences over Telegram commands.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news_notifier/internal/config"
	"news_notifier/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot through which users manage their notification preferences.
type Bot struct {
	api   telegramAPI
	store storage.Storage
	cfg   *config.Config
	log   *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if update.CallbackQuery.From == nil || !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

// request identifies who issued a command and where to answer.
type request struct {
	chatID int64
	userID int64
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	req := request{chatID: msg.Chat.ID, userID: msg.From.ID}

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", req.chatID, "user_id", req.userID)

	switch cmd {
	case "start":
		b.handleStart(req)
	case "help":
		b.handleHelp(req)
	case cmdCategories:
		b.handleCategories(ctx, req)
	case "prefs":
		b.handlePrefs(ctx, req)
	case cmdSubscribe:
		b.handleSubscribe(ctx, req, args)
	case cmdUnsubscribe:
		b.handleUnsubscribe(ctx, req, args)
	case "keyword":
		b.handleKeyword(ctx, req, args)
	case "unkeyword":
		b.handleUnkeyword(ctx, req, args)
	case "email":
		b.handleChannel(ctx, req, "email", args)
	case "push":
		b.handleChannel(ctx, req, "push", args)
	case "stop":
		b.handleStop(ctx, req)
	case "latest":
		b.handleLatest(ctx, req)
	case "article":
		b.handleArticle(ctx, req, args)
	case "like":
		b.handleLike(ctx, req, args, true)
	case "dislike":
		b.handleLike(ctx, req, args, false)
	case "save":
		b.handleSave(ctx, req, args)
	case "unsave":
		b.handleUnsave(ctx, req, args)
	case "saved":
		b.handleSaved(ctx, req, args)
	default:
		b.reply(req.chatID, "Unknown command. Use /help for a list of commands.")
	}
}
