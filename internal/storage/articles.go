package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_notifier/internal/model"
)

const articleColumns = `id, category_id, title, description, content, source, url, guid, image_url,
	published_at, likes_count, dislikes_count, notified_at, created_at, updated_at`

type articleRow struct {
	ID            int64          `db:"id"`
	CategoryID    sql.NullInt64  `db:"category_id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Content       string         `db:"content"`
	Source        string         `db:"source"`
	URL           string         `db:"url"`
	GUID          string         `db:"guid"`
	ImageURL      string         `db:"image_url"`
	PublishedAt   sql.NullString `db:"published_at"`
	LikesCount    int            `db:"likes_count"`
	DislikesCount int            `db:"dislikes_count"`
	NotifiedAt    sql.NullString `db:"notified_at"`
	CreatedAt     string         `db:"created_at"`
	UpdatedAt     string         `db:"updated_at"`
}

func (r articleRow) toModel() model.Article {
	a := model.Article{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Content:       r.Content,
		Source:        r.Source,
		URL:           r.URL,
		GUID:          r.GUID,
		ImageURL:      r.ImageURL,
		PublishedAt:   parseNullTime(r.PublishedAt),
		LikesCount:    r.LikesCount,
		DislikesCount: r.DislikesCount,
		NotifiedAt:    parseNullTime(r.NotifiedAt),
		CreatedAt:     parseTime(r.CreatedAt),
		UpdatedAt:     parseTime(r.UpdatedAt),
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.Int64
		a.CategoryID = &id
	}
	return a
}

func toArticles(rows []articleRow) []model.Article {
	articles := make([]model.Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, r.toModel())
	}
	return articles
}

// CreateArticle inserts a new article and populates its ID and timestamps.
// An article whose GUID is already stored is left untouched and false is returned.
func (s *SQLite) CreateArticle(ctx context.Context, a *model.Article) (bool, error) {
	if a.GUID == "" {
		return false, fmt.Errorf("article guid is required")
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles
		   (category_id, title, description, content, source, url, guid, image_url, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CategoryID, a.Title, a.Description, a.Content, a.Source, a.URL, a.GUID, a.ImageURL,
		formatNullTime(a.PublishedAt), ts, ts,
	)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = parseTime(ts)
	a.UpdatedAt = a.CreatedAt
	return true, nil
}

// GetArticle returns a single article by its ID.
func (s *SQLite) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("article %d", id))
	}
	a := row.toModel()
	return &a, nil
}

// GetArticleByGUID returns the article stored under the feed GUID.
func (s *SQLite) GetArticleByGUID(ctx context.Context, guid string) (*model.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, `SELECT `+articleColumns+` FROM articles WHERE guid = ?`, guid)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("article %q", guid))
	}
	a := row.toModel()
	return &a, nil
}

// UpdateArticle persists changes to an existing article. An updated article
// becomes pending again so subscribers are re-evaluated.
func (s *SQLite) UpdateArticle(ctx context.Context, a *model.Article) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles
		 SET category_id = ?, title = ?, description = ?, content = ?, source = ?, url = ?,
		     image_url = ?, published_at = ?, notified_at = NULL, updated_at = ?
		 WHERE id = ?`,
		a.CategoryID, a.Title, a.Description, a.Content, a.Source, a.URL,
		a.ImageURL, formatNullTime(a.PublishedAt), ts, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if err := checkAffected(res, fmt.Sprintf("article %d", a.ID)); err != nil {
		return err
	}
	a.NotifiedAt = nil
	a.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteArticle removes an article by its ID together with every user's
// saved reference to it.
func (s *SQLite) DeleteArticle(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM saved_articles WHERE article_id = ?`, id); err != nil {
			return fmt.Errorf("delete saved references: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete article: %w", err)
		}
		return checkAffected(res, fmt.Sprintf("article %d", id))
	})
}

// ListPendingArticles returns up to limit articles not yet handed to targeting, oldest first.
func (s *SQLite) ListPendingArticles(ctx context.Context, limit int) ([]model.Article, error) {
	var rows []articleRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+articleColumns+` FROM articles WHERE notified_at IS NULL ORDER BY id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending articles: %w", err)
	}
	return toArticles(rows), nil
}

// ListRecentArticles returns up to limit articles, newest first.
func (s *SQLite) ListRecentArticles(ctx context.Context, limit int) ([]model.Article, error) {
	var rows []articleRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+articleColumns+` FROM articles ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	return toArticles(rows), nil
}

// MarkArticleNotified records that the article went through a targeting pass.
func (s *SQLite) MarkArticleNotified(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET notified_at = ? WHERE id = ?`, now(), id)
	if err != nil {
		return fmt.Errorf("mark article notified: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("article %d", id))
}

// IncrementLikes atomically adds one like to the article.
func (s *SQLite) IncrementLikes(ctx context.Context, id int64) error {
	return s.increment(ctx, id, "likes_count")
}

// IncrementDislikes atomically adds one dislike to the article.
func (s *SQLite) IncrementDislikes(ctx context.Context, id int64) error {
	return s.increment(ctx, id, "dislikes_count")
}

// increment runs a single UPDATE so concurrent callers never lose a count.
// column is always a constant from this file.
func (s *SQLite) increment(ctx context.Context, id int64, column string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET `+column+` = `+column+` + 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	return checkAffected(res, fmt.Sprintf("article %d", id))
}
