// Package targeting selects the subscriptions to notify about an article.
//
// A targeting pass runs a category match and a keyword match for every
// channel, concurrently, then merges the results into one deduplicated set of
// (subscription, channel) targets. The engine keeps no state between passes:
// the same article against the same subscriptions always yields the same
// targets, in the same order.
package targeting

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"news_notifier/internal/filter"
	"news_notifier/internal/model"
	"news_notifier/internal/storage"
)

// Engine computes notification targets for articles.
type Engine struct {
	category *CategoryMatcher
	keyword  *KeywordMatcher
	log      *slog.Logger
}

// New creates an Engine whose matchers read from finder.
func New(finder storage.SubscriptionFinder, log *slog.Logger) *Engine {
	return &Engine{
		category: NewCategoryMatcher(finder),
		keyword:  NewKeywordMatcher(finder),
		log:      log,
	}
}

// Compute returns the targets for article over every channel, ordered by
// channel (email, push) then subscription ID.
func (e *Engine) Compute(ctx context.Context, article model.Article) ([]model.NotificationTarget, error) {
	return e.run(ctx, article, model.Channels)
}

// ComputeChannel returns the targets for article over a single channel.
func (e *Engine) ComputeChannel(ctx context.Context, article model.Article, ch model.Channel) ([]model.NotificationTarget, error) {
	if !ch.Valid() {
		PassesTotal.WithLabelValues(resultInvalidInput).Inc()
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, ch)
	}
	return e.run(ctx, article, []model.Channel{ch})
}

func (e *Engine) run(ctx context.Context, article model.Article, channels []model.Channel) ([]model.NotificationTarget, error) {
	if article.ID <= 0 {
		PassesTotal.WithLabelValues(resultInvalidInput).Inc()
		return nil, fmt.Errorf("%w: article has no id", ErrInvalidInput)
	}

	start := time.Now()
	defer func() { PassDuration.Observe(time.Since(start).Seconds()) }()
	log := e.log.With("pass_id", uuid.NewString(), "article_id", article.ID)

	text := filter.SearchText(article.Title, article.Description, article.Content)
	byCategory := make([][]model.Subscription, len(channels))
	byKeyword := make([][]model.Subscription, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range channels {
		g.Go(func() error {
			subs, err := e.category.Match(gctx, article.CategoryID, ch)
			if err != nil {
				return err
			}
			byCategory[i] = subs
			return nil
		})
		g.Go(func() error {
			subs, err := e.keyword.Match(gctx, text, ch)
			if err != nil {
				return err
			}
			byKeyword[i] = subs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		result := resultStoreUnavailable
		if errors.Is(err, ErrInvalidInput) {
			result = resultInvalidInput
		}
		PassesTotal.WithLabelValues(result).Inc()
		log.Warn("targeting pass failed", "error", err)
		return nil, err
	}

	targets := merge(channels, byCategory, byKeyword)

	PassesTotal.WithLabelValues(resultOK).Inc()
	for _, t := range targets {
		TargetsTotal.WithLabelValues(string(t.Channel)).Inc()
	}
	log.Debug("targeting pass done",
		"category_id", article.CategoryID,
		"targets", len(targets),
		"duration", time.Since(start),
	)
	return targets, nil
}

// merge unions the category and keyword matches of each channel, keeping one
// target per subscription and recording which strategies selected it.
func merge(channels []model.Channel, byCategory, byKeyword [][]model.Subscription) []model.NotificationTarget {
	var targets []model.NotificationTarget
	for i, ch := range channels {
		index := make(map[int64]int)
		var perChannel []model.NotificationTarget

		add := func(s model.Subscription, viaCategory bool) {
			pos, ok := index[s.ID]
			if !ok {
				pos = len(perChannel)
				index[s.ID] = pos
				perChannel = append(perChannel, model.NotificationTarget{
					SubscriptionID: s.ID,
					UserID:         s.UserID,
					Channel:        ch,
				})
			}
			if viaCategory {
				perChannel[pos].ByCategory = true
			} else {
				perChannel[pos].ByKeyword = true
			}
		}
		for _, s := range byCategory[i] {
			add(s, true)
		}
		for _, s := range byKeyword[i] {
			add(s, false)
		}

		slices.SortFunc(perChannel, func(a, b model.NotificationTarget) int {
			return cmp.Compare(a.SubscriptionID, b.SubscriptionID)
		})
		targets = append(targets, perChannel...)
	}
	return targets
}
