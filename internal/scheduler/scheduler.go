// Package scheduler ingests configured feeds and drives pending articles
// through targeting and delivery.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"news_notifier/internal/fetcher"
	"news_notifier/internal/model"
	"news_notifier/internal/storage"
	"news_notifier/internal/targeting"
)

const (
	defaultTick  = 1 * time.Minute
	defaultBatch = 50
)

// Targeter computes the notification targets of an article.
type Targeter interface {
	Compute(ctx context.Context, article model.Article) ([]model.NotificationTarget, error)
}

// Dispatcher delivers an article to its targets.
type Dispatcher interface {
	Dispatch(ctx context.Context, article model.Article, targets []model.NotificationTarget) error
}

// Scheduler periodically ingests feeds and notifies subscribers of new articles.
type Scheduler struct {
	store      storage.Storage
	fetcher    *fetcher.Fetcher
	targeter   Targeter
	dispatcher Dispatcher
	sources    []model.Source
	log        *slog.Logger
	tick       time.Duration
	batch      int
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, targeter Targeter, dispatcher Dispatcher, sources []model.Source, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), targeter, dispatcher, sources, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, targeter Targeter, dispatcher Dispatcher, sources []model.Source, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		fetcher:    f,
		targeter:   targeter,
		dispatcher: dispatcher,
		sources:    sources,
		log:        log,
		tick:       defaultTick,
		batch:      defaultBatch,
	}
}

// SetTickInterval overrides the default 1-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetBatchSize limits how many pending articles one tick processes.
func (s *Scheduler) SetBatchSize(n int) {
	if n > 0 {
		s.batch = n
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	for _, src := range s.sources {
		if ctx.Err() != nil {
			return
		}
		s.ingest(ctx, src)
	}
	s.notifyPending(ctx)
}

func (s *Scheduler) ingest(ctx context.Context, src model.Source) {
	s.log.Debug("checking feed", "url", src.URL, "category", src.Category)

	feed, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		s.log.Error("fetch feed", "url", src.URL, "error", err)
		return
	}

	var categoryID *int64
	if src.Category != "" {
		c, err := s.store.EnsureCategory(ctx, src.Category)
		if err != nil {
			s.log.Error("ensure category", "category", src.Category, "error", err)
			return
		}
		categoryID = &c.ID
	}

	source := feed.Title
	if source == "" {
		source = src.URL
	}

	created, updated := 0, 0
	for _, a := range fetcher.Articles(feed.Items, categoryID, source) {
		ok, err := s.store.CreateArticle(ctx, &a)
		if err != nil {
			s.log.Error("create article", "guid", a.GUID, "error", err)
			continue
		}
		if ok {
			created++
			continue
		}

		existing, err := s.store.GetArticleByGUID(ctx, a.GUID)
		if err != nil {
			s.log.Error("get article", "guid", a.GUID, "error", err)
			continue
		}
		if !edited(existing, &a) {
			continue
		}
		a.ID = existing.ID
		if err := s.store.UpdateArticle(ctx, &a); err != nil {
			s.log.Error("update article", "guid", a.GUID, "error", err)
			continue
		}
		s.log.Debug("article edited upstream", "article_id", a.ID, "guid", a.GUID)
		updated++
	}

	if created > 0 || updated > 0 {
		s.log.Info("ingested articles", "url", src.URL, "count", created, "updated", updated)
	}
}

// edited reports whether the feed copy of an article differs from the
// stored one in anything targeting or display depends on.
func edited(stored, fetched *model.Article) bool {
	if stored.Title != fetched.Title ||
		stored.Description != fetched.Description ||
		stored.Content != fetched.Content ||
		stored.URL != fetched.URL ||
		stored.ImageURL != fetched.ImageURL {
		return true
	}
	if (stored.CategoryID == nil) != (fetched.CategoryID == nil) ||
		stored.CategoryID != nil && *stored.CategoryID != *fetched.CategoryID {
		return true
	}
	if (stored.PublishedAt == nil) != (fetched.PublishedAt == nil) {
		return true
	}
	return stored.PublishedAt != nil &&
		!stored.PublishedAt.Truncate(time.Second).Equal(fetched.PublishedAt.Truncate(time.Second))
}

func (s *Scheduler) notifyPending(ctx context.Context) {
	articles, err := s.store.ListPendingArticles(ctx, s.batch)
	if err != nil {
		s.log.Error("list pending articles", "error", err)
		return
	}

	for _, a := range articles {
		if ctx.Err() != nil {
			return
		}
		if !s.notify(ctx, a) {
			return
		}
	}
}

// notify runs one article through targeting and delivery. It reports whether
// the batch may continue.
func (s *Scheduler) notify(ctx context.Context, a model.Article) bool {
	targets, err := s.targeter.Compute(ctx, a)
	switch {
	case errors.Is(err, targeting.ErrInvalidInput):
		s.log.Error("article rejected by targeting", "article_id", a.ID, "error", err)
		s.markNotified(ctx, a.ID)
		return true
	case err != nil:
		// Retried on the next tick.
		s.log.Warn("targeting unavailable", "article_id", a.ID, "error", err)
		return false
	}

	if len(targets) > 0 {
		if err := s.dispatcher.Dispatch(ctx, a, targets); err != nil {
			s.log.Error("dispatch", "article_id", a.ID, "targets", len(targets), "error", err)
			return true
		}
		s.log.Info("sent notifications", "article_id", a.ID, "count", len(targets))
	}

	s.markNotified(ctx, a.ID)
	return true
}

func (s *Scheduler) markNotified(ctx context.Context, id int64) {
	if err := s.store.MarkArticleNotified(ctx, id); err != nil {
		s.log.Error("mark article notified", "article_id", id, "error", err)
	}
}
