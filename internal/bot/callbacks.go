package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdCategories  = "categories"
	cmdSubscribe   = "subscribe"
	cmdUnsubscribe = "unsubscribe"
)

// Callback data is "<action>:<id>". The id is a category for sub and unsub
// and an article for the rest.
const (
	actionSub     = "sub"
	actionUnsub   = "unsub"
	actionLike    = "like"
	actionDislike = "dislike"
	actionSave    = "save"
	actionUnsave  = "unsave"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	req := request{chatID: cb.Message.Chat.ID, userID: cb.From.ID}

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, idStr, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	b.log.Info("callback",
		"action", action,
		"id", id,
		"chat_id", req.chatID,
		"user_id", req.userID,
		"username", cb.From.UserName,
	)

	switch action {
	case actionSub, actionUnsub:
		b.categoryCallback(ctx, req, action, id)
	case actionLike:
		b.rate(ctx, req, id, true)
	case actionDislike:
		b.rate(ctx, req, id, false)
	case actionSave:
		b.save(ctx, req, id)
	case actionUnsave:
		b.unsave(ctx, req, id)
	}
}

func (b *Bot) categoryCallback(ctx context.Context, req request, action string, id int64) {
	name, found, err := b.categoryName(ctx, id)
	if err != nil {
		b.replyError(req, err)
		return
	}
	if !found {
		b.reply(req.chatID, fmt.Sprintf("Category #%d not found.", id))
		return
	}
	if action == actionSub {
		b.handleSubscribe(ctx, req, name)
		return
	}
	b.handleUnsubscribe(ctx, req, name)
}

func (b *Bot) categoryName(ctx context.Context, id int64) (string, bool, error) {
	categories, err := b.store.ListCategories(ctx)
	if err != nil {
		return "", false, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name, true, nil
		}
	}
	return "", false, nil
}
