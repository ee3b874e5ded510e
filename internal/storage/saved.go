package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"news_notifier/internal/model"
)

// savedArticleColumns qualifies articleColumns for joins with saved_articles,
// keeping the plain names for scanning.
var savedArticleColumns = func() string {
	cols := strings.Split(articleColumns, ",")
	for i, c := range cols {
		c = strings.TrimSpace(c)
		cols[i] = "a." + c + " AS " + c
	}
	return strings.Join(cols, ", ")
}()

// SaveArticle bookmarks an article for the user. Saving the same article
// twice returns ErrAlreadySaved.
func (s *SQLite) SaveArticle(ctx context.Context, userID, articleID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM articles WHERE id = ?)`, articleID)
		if err != nil {
			return fmt.Errorf("check article: %w", err)
		}
		if !exists {
			return fmt.Errorf("article %d: %w", articleID, ErrNotFound)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO saved_articles (user_id, article_id, created_at) VALUES (?, ?, ?)`,
			userID, articleID, now(),
		)
		if err != nil {
			return fmt.Errorf("save article: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("article %d for user %d: %w", articleID, userID, ErrAlreadySaved)
		}
		return nil
	})
}

// UnsaveArticle removes the user's bookmark. ErrNotFound is returned when
// the article was not saved.
func (s *SQLite) UnsaveArticle(ctx context.Context, userID, articleID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_articles WHERE user_id = ? AND article_id = ?`, userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("unsave article: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("saved article %d for user %d", articleID, userID))
}

// IsArticleSaved reports whether the user has bookmarked the article.
func (s *SQLite) IsArticleSaved(ctx context.Context, userID, articleID int64) (bool, error) {
	var saved bool
	err := s.db.GetContext(ctx, &saved,
		`SELECT EXISTS (SELECT 1 FROM saved_articles WHERE user_id = ? AND article_id = ?)`, userID, articleID,
	)
	if err != nil {
		return false, fmt.Errorf("check saved article: %w", err)
	}
	return saved, nil
}

// ListSavedArticles returns a page of the user's bookmarks, most recently
// saved first.
func (s *SQLite) ListSavedArticles(ctx context.Context, userID int64, limit, offset int) ([]model.Article, error) {
	var rows []articleRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+savedArticleColumns+`
		 FROM saved_articles sa
		 JOIN articles a ON a.id = sa.article_id
		 WHERE sa.user_id = ?
		 ORDER BY sa.created_at DESC, sa.rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query saved articles: %w", err)
	}
	return toArticles(rows), nil
}
