package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"news_notifier/internal/model"
)

type categoryRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func (r categoryRow) toModel() model.Category {
	return model.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   parseTime(r.CreatedAt),
	}
}

// CreateCategory inserts a new category and populates its ID and CreatedAt.
func (s *SQLite) CreateCategory(ctx context.Context, c *model.Category) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)`,
		name, c.Description, ts,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	c.Name = name
	c.CreatedAt = parseTime(ts)
	return nil
}

// EnsureCategory returns the category with the given name, creating it if needed.
func (s *SQLite) EnsureCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, created_at) VALUES (?, ?)`, name, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure category: %w", err)
	}
	return s.GetCategoryByName(ctx, name)
}

// GetCategoryByName looks a category up by name, ignoring case.
func (s *SQLite) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var row categoryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, description, created_at FROM categories WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %q: %w", name, ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	c := row.toModel()
	return &c, nil
}

// ListCategories returns all categories ordered by name.
func (s *SQLite) ListCategories(ctx context.Context) ([]model.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, created_at FROM categories ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	categories := make([]model.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.toModel())
	}
	return categories, nil
}

// DeleteCategory removes a category, drops it from every subscription and
// leaves its articles uncategorized.
func (s *SQLite) DeleteCategory(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscription_categories WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("delete subscription_categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE articles SET category_id = NULL WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("uncategorize articles: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return checkAffected(res, fmt.Sprintf("category %d", id))
	})
}
