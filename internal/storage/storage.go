// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"news_notifier/internal/model"
)

// Sentinel errors returned by Storage implementations.
var (
	ErrNotFound         = errors.New("not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidKeyword   = errors.New("invalid keyword")
	ErrAlreadySaved     = errors.New("article already saved")
)

// SubscriptionFinder is the read side used by the targeting engine.
// Results are snapshots as of call time.
type SubscriptionFinder interface {
	FindByCategoryAndChannelEnabled(ctx context.Context, categoryID int64, ch model.Channel) ([]model.Subscription, error)
	FindByKeywordSubstringAndChannelEnabled(ctx context.Context, text string, ch model.Channel) ([]model.Subscription, error)
}

// Storage is the interface for all persistence operations.
type Storage interface {
	SubscriptionFinder

	CreateCategory(ctx context.Context, c *model.Category) error
	EnsureCategory(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateArticle(ctx context.Context, a *model.Article) (bool, error)
	GetArticle(ctx context.Context, id int64) (*model.Article, error)
	GetArticleByGUID(ctx context.Context, guid string) (*model.Article, error)
	UpdateArticle(ctx context.Context, a *model.Article) error
	DeleteArticle(ctx context.Context, id int64) error
	ListPendingArticles(ctx context.Context, limit int) ([]model.Article, error)
	ListRecentArticles(ctx context.Context, limit int) ([]model.Article, error)
	MarkArticleNotified(ctx context.Context, id int64) error
	IncrementLikes(ctx context.Context, id int64) error
	IncrementDislikes(ctx context.Context, id int64) error

	SaveArticle(ctx context.Context, userID, articleID int64) error
	UnsaveArticle(ctx context.Context, userID, articleID int64) error
	IsArticleSaved(ctx context.Context, userID, articleID int64) (bool, error)
	ListSavedArticles(ctx context.Context, userID int64, limit, offset int) ([]model.Article, error)

	GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *model.Subscription) error
	AddCategory(ctx context.Context, userID int64, categoryName string) (*model.Subscription, error)
	RemoveCategory(ctx context.Context, userID int64, categoryName string) (*model.Subscription, error)
	AddKeyword(ctx context.Context, userID int64, keyword string) (*model.Subscription, error)
	RemoveKeyword(ctx context.Context, userID int64, keyword string) (*model.Subscription, error)
	SetChannelEnabled(ctx context.Context, userID int64, ch model.Channel, enabled bool) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, userID int64) error

	Close() error
}
