package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news_notifier/internal/model"
	"news_notifier/internal/storage"
)

func (b *Bot) handleStart(req request) {
	b.reply(req.chatID, `Welcome to News Notifier!

Get notified about new articles in the categories you follow or that mention your keywords.

Quick start:
1. /categories — see the available categories
2. /subscribe <category> — follow a category
3. /keyword <word> — follow a keyword

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(req request) {
	b.reply(req.chatID, `Categories:
/categories — list categories
/subscribe <category> — follow a category
/unsubscribe <category> — stop following a category

Keywords:
/keyword <word> — notify when an article mentions the word
/keyword "<text>" — match the text exactly, spaces included
/unkeyword <word> — remove a keyword

Delivery:
/email on|off — email notifications
/push on|off — push notifications

Articles:
/latest — recent articles
/article <id> — show an article
/like <id>, /dislike <id> — rate an article
/save <id> — keep an article for later
/unsave <id> — remove it from your list
/saved [page] — your saved articles

/prefs — show your preferences
/stop — delete all your preferences`)
}

func (b *Bot) handleCategories(ctx context.Context, req request) {
	categories, err := b.store.ListCategories(ctx)
	if err != nil {
		b.replyError(req, err)
		return
	}

	sub, err := b.store.GetSubscription(ctx, req.userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.replyError(req, err)
		return
	}

	msg := tgbotapi.NewMessage(req.chatID, FormatCategoryList(categories, sub))
	if kb := categoryKeyboard(categories, sub); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send category list", "chat_id", req.chatID, "error", err)
	}
}

func (b *Bot) handlePrefs(ctx context.Context, req request) {
	sub, err := b.store.GetSubscription(ctx, req.userID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(req.chatID, "You have no preferences yet. Use /subscribe or /keyword to get started.")
		return
	}
	if err != nil {
		b.replyError(req, err)
		return
	}

	categories, err := b.store.ListCategories(ctx)
	if err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, FormatPreferences(sub, categories))
}

func (b *Bot) handleSubscribe(ctx context.Context, req request, args string) {
	name, err := ParseCategoryArg(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /subscribe <category>")
		return
	}
	if _, err := b.store.AddCategory(ctx, req.userID, name); err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Subscribed to %q.", name))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, req request, args string) {
	name, err := ParseCategoryArg(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /unsubscribe <category>")
		return
	}
	if _, err := b.store.RemoveCategory(ctx, req.userID, name); err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Unsubscribed from %q.", name))
}

func (b *Bot) handleKeyword(ctx context.Context, req request, args string) {
	kw, err := ParseKeywordArg(args)
	if err != nil {
		b.reply(req.chatID, fmt.Sprintf("%v\nUsage: /keyword <word>", err))
		return
	}
	sub, err := b.store.AddKeyword(ctx, req.userID, kw)
	if err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Keyword %q added. You follow %d keyword(s).", kw, len(sub.Keywords)))
}

func (b *Bot) handleUnkeyword(ctx context.Context, req request, args string) {
	kw, err := ParseKeywordArg(args)
	if err != nil {
		b.reply(req.chatID, fmt.Sprintf("%v\nUsage: /unkeyword <word>", err))
		return
	}
	if _, err := b.store.RemoveKeyword(ctx, req.userID, kw); err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Keyword %q removed.", kw))
}

func (b *Bot) handleChannel(ctx context.Context, req request, channel, args string) {
	ch, err := model.ParseChannel(channel)
	if err != nil {
		b.replyError(req, err)
		return
	}
	enabled, err := ParseToggle(args)
	if err != nil {
		b.reply(req.chatID, fmt.Sprintf("Usage: /%s on|off", ch))
		return
	}
	if _, err := b.store.SetChannelEnabled(ctx, req.userID, ch, enabled); err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("%s notifications %s.", channelLabel(ch), onOff(enabled)))
}

func (b *Bot) handleStop(ctx context.Context, req request) {
	err := b.store.DeleteSubscription(ctx, req.userID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(req.chatID, "You have no preferences saved.")
		return
	}
	if err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, "All your preferences were deleted. You will not receive notifications.")
}

// replyError answers with a user-facing message for known errors and logs the rest.
func (b *Bot) replyError(req request, err error) {
	switch {
	case errors.Is(err, storage.ErrCategoryNotFound):
		b.reply(req.chatID, "Category not found. Use /categories to see the list.")
	case errors.Is(err, storage.ErrInvalidKeyword):
		b.reply(req.chatID, fmt.Sprintf("Invalid keyword: %v", err))
	default:
		b.log.Error("command failed", "chat_id", req.chatID, "user_id", req.userID, "error", err)
		b.reply(req.chatID, "Something went wrong, please try again later.")
	}
}
