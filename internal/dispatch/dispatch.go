// Package dispatch delivers targeted articles to subscribers.
package dispatch

import (
	"context"
	"log/slog"

	"news_notifier/internal/model"
)

// Log writes one structured record per notification target instead of
// contacting a delivery provider.
type Log struct {
	log *slog.Logger
}

// NewLog creates a Log dispatcher writing to log.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Dispatch records a notification of article for each target.
func (d *Log) Dispatch(ctx context.Context, article model.Article, targets []model.NotificationTarget) error {
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.log.InfoContext(ctx, "notification",
			"channel", string(t.Channel),
			"user_id", t.UserID,
			"subscription_id", t.SubscriptionID,
			"article_id", article.ID,
			"title", article.Title,
			"url", article.URL,
			"by_category", t.ByCategory,
			"by_keyword", t.ByKeyword,
		)
	}
	return nil
}
