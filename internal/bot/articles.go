package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news_notifier/internal/storage"
)

const (
	latestLimit   = 10
	savedPageSize = 10
)

func (b *Bot) handleLatest(ctx context.Context, req request) {
	articles, err := b.store.ListRecentArticles(ctx, latestLimit)
	if err != nil {
		b.replyError(req, err)
		return
	}
	if len(articles) == 0 {
		b.reply(req.chatID, "No articles yet.")
		return
	}
	b.reply(req.chatID, FormatArticleList("Latest articles:", articles))
}

func (b *Bot) handleArticle(ctx context.Context, req request, args string) {
	id, err := ParseArticleID(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /article <id>")
		return
	}
	b.showArticle(ctx, req, id)
}

func (b *Bot) showArticle(ctx context.Context, req request, id int64) {
	a, err := b.store.GetArticle(ctx, id)
	if err != nil {
		b.replyArticleError(req, id, err)
		return
	}
	saved, err := b.store.IsArticleSaved(ctx, req.userID, id)
	if err != nil {
		b.replyError(req, err)
		return
	}

	msg := tgbotapi.NewMessage(req.chatID, FormatArticle(a))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = articleKeyboard(a.ID, saved)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send article", "chat_id", req.chatID, "article_id", id, "error", err)
	}
}

func (b *Bot) handleLike(ctx context.Context, req request, args string, like bool) {
	usage := "Usage: /dislike <id>"
	if like {
		usage = "Usage: /like <id>"
	}
	id, err := ParseArticleID(args)
	if err != nil {
		b.reply(req.chatID, usage)
		return
	}
	b.rate(ctx, req, id, like)
}

func (b *Bot) rate(ctx context.Context, req request, id int64, like bool) {
	inc, verb := b.store.IncrementDislikes, "Disliked"
	if like {
		inc, verb = b.store.IncrementLikes, "Liked"
	}
	if err := inc(ctx, id); err != nil {
		b.replyArticleError(req, id, err)
		return
	}
	b.log.Info("article rated", "article_id", id, "user_id", req.userID, "like", like)
	b.reply(req.chatID, fmt.Sprintf("%s article #%d.", verb, id))
}

func (b *Bot) handleSave(ctx context.Context, req request, args string) {
	id, err := ParseArticleID(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /save <id>")
		return
	}
	b.save(ctx, req, id)
}

func (b *Bot) save(ctx context.Context, req request, id int64) {
	if err := b.store.SaveArticle(ctx, req.userID, id); err != nil {
		b.replyArticleError(req, id, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Article #%d saved. Use /saved to see your list.", id))
}

func (b *Bot) handleUnsave(ctx context.Context, req request, args string) {
	id, err := ParseArticleID(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /unsave <id>")
		return
	}
	b.unsave(ctx, req, id)
}

func (b *Bot) unsave(ctx context.Context, req request, id int64) {
	err := b.store.UnsaveArticle(ctx, req.userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(req.chatID, fmt.Sprintf("Article #%d is not in your saved list.", id))
		return
	}
	if err != nil {
		b.replyError(req, err)
		return
	}
	b.reply(req.chatID, fmt.Sprintf("Article #%d removed from your saved list.", id))
}

func (b *Bot) handleSaved(ctx context.Context, req request, args string) {
	page, err := ParsePage(args)
	if err != nil {
		b.reply(req.chatID, "Usage: /saved [page]")
		return
	}
	articles, err := b.store.ListSavedArticles(ctx, req.userID, savedPageSize, (page-1)*savedPageSize)
	if err != nil {
		b.replyError(req, err)
		return
	}
	if len(articles) == 0 {
		if page == 1 {
			b.reply(req.chatID, "You have no saved articles. Use /save <id> to keep one.")
		} else {
			b.reply(req.chatID, fmt.Sprintf("No saved articles on page %d.", page))
		}
		return
	}
	b.reply(req.chatID, FormatArticleList(fmt.Sprintf("Saved articles (page %d):", page), articles))
}

// replyArticleError reports a missing or already saved article by ID.
func (b *Bot) replyArticleError(req request, id int64, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.reply(req.chatID, fmt.Sprintf("Article #%d not found. Use /latest to see recent articles.", id))
	case errors.Is(err, storage.ErrAlreadySaved):
		b.reply(req.chatID, fmt.Sprintf("Article #%d is already saved.", id))
	default:
		b.replyError(req, err)
	}
}
