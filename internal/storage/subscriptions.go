package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"news_notifier/internal/filter"
	"news_notifier/internal/model"
)

const subscriptionColumns = `s.id, s.user_id, s.email_enabled, s.push_enabled, s.created_at, s.updated_at`

// inChunkSize bounds the ids bound into one IN list, well under SQLite's
// host parameter limit.
const inChunkSize = 500

type subscriptionRow struct {
	ID           int64  `db:"id"`
	UserID       int64  `db:"user_id"`
	EmailEnabled int    `db:"email_enabled"`
	PushEnabled  int    `db:"push_enabled"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

type categoryLink struct {
	SubscriptionID int64 `db:"subscription_id"`
	CategoryID     int64 `db:"category_id"`
}

type keywordLink struct {
	SubscriptionID int64  `db:"subscription_id"`
	Keyword        string `db:"keyword"`
}

func channelColumn(ch model.Channel) (string, error) {
	switch ch {
	case model.ChannelEmail:
		return "email_enabled", nil
	case model.ChannelPush:
		return "push_enabled", nil
	}
	return "", fmt.Errorf("unknown channel %q", ch)
}

// GetSubscription returns the subscription owned by userID.
func (s *SQLite) GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	return getSubscription(ctx, s.db, userID)
}

// FindByCategoryAndChannelEnabled returns the subscriptions that include the
// category and have delivery over ch switched on.
func (s *SQLite) FindByCategoryAndChannelEnabled(ctx context.Context, categoryID int64, ch model.Channel) ([]model.Subscription, error) {
	col, err := channelColumn(ch)
	if err != nil {
		return nil, err
	}
	var rows []subscriptionRow
	err = sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 JOIN subscription_categories sc ON sc.subscription_id = s.id
		 WHERE sc.category_id = ? AND s.`+col+` = 1
		 ORDER BY s.id`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions by category: %w", err)
	}
	return hydrate(ctx, s.db, rows)
}

// FindByKeywordSubstringAndChannelEnabled returns the subscriptions with at
// least one keyword occurring in text, ignoring case, that have delivery over
// ch switched on. instr keeps matching literal, unlike LIKE with % and _.
func (s *SQLite) FindByKeywordSubstringAndChannelEnabled(ctx context.Context, text string, ch model.Channel) ([]model.Subscription, error) {
	col, err := channelColumn(ch)
	if err != nil {
		return nil, err
	}
	text = strings.ToLower(text)
	if text == "" {
		return nil, nil
	}
	var rows []subscriptionRow
	err = sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 WHERE s.`+col+` = 1
		   AND EXISTS (
		       SELECT 1 FROM subscription_keywords k
		       WHERE k.subscription_id = s.id AND k.keyword <> '' AND instr(?, k.keyword) > 0)
		 ORDER BY s.id`,
		text,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions by keyword: %w", err)
	}
	return hydrate(ctx, s.db, rows)
}

// UpsertSubscription replaces the owner's category set, keyword set and
// channel flags, creating the subscription if the user has none.
func (s *SQLite) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	keywords, err := normalizeKeywords(sub.Keywords)
	if err != nil {
		return err
	}
	categoryIDs := slices.Compact(slices.Sorted(slices.Values(sub.CategoryIDs)))

	var saved *model.Subscription
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireCategories(ctx, tx, categoryIDs); err != nil {
			return err
		}
		id, err := ensureSubscription(ctx, tx, sub.UserID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET email_enabled = ?, push_enabled = ?, updated_at = ? WHERE id = ?`,
			boolToInt(sub.EmailEnabled), boolToInt(sub.PushEnabled), now(), id,
		); err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscription_categories WHERE subscription_id = ?`, id); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscription_keywords WHERE subscription_id = ?`, id); err != nil {
			return fmt.Errorf("clear keywords: %w", err)
		}
		for _, cid := range categoryIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subscription_categories (subscription_id, category_id) VALUES (?, ?)`, id, cid,
			); err != nil {
				return fmt.Errorf("insert category: %w", err)
			}
		}
		for _, kw := range keywords {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subscription_keywords (subscription_id, keyword) VALUES (?, ?)`, id, kw,
			); err != nil {
				return fmt.Errorf("insert keyword: %w", err)
			}
		}
		saved, err = getSubscription(ctx, tx, sub.UserID)
		return err
	})
	if err != nil {
		return err
	}
	*sub = *saved
	return nil
}

// AddCategory subscribes the user to the named category.
func (s *SQLite) AddCategory(ctx context.Context, userID int64, categoryName string) (*model.Subscription, error) {
	return s.mutate(ctx, userID, func(tx *sqlx.Tx, subID int64) error {
		cid, err := categoryIDByName(ctx, tx, categoryName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO subscription_categories (subscription_id, category_id) VALUES (?, ?)`, subID, cid,
		)
		if err != nil {
			return fmt.Errorf("add category: %w", err)
		}
		return nil
	})
}

// RemoveCategory unsubscribes the user from the named category.
func (s *SQLite) RemoveCategory(ctx context.Context, userID int64, categoryName string) (*model.Subscription, error) {
	return s.mutate(ctx, userID, func(tx *sqlx.Tx, subID int64) error {
		cid, err := categoryIDByName(ctx, tx, categoryName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM subscription_categories WHERE subscription_id = ? AND category_id = ?`, subID, cid,
		)
		if err != nil {
			return fmt.Errorf("remove category: %w", err)
		}
		return nil
	})
}

// AddKeyword adds a keyword, stored lower-case, to the user's keyword set.
func (s *SQLite) AddKeyword(ctx context.Context, userID int64, keyword string) (*model.Subscription, error) {
	kw, err := filter.NormalizeKeyword(keyword)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyword, err)
	}
	return s.mutate(ctx, userID, func(tx *sqlx.Tx, subID int64) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO subscription_keywords (subscription_id, keyword) VALUES (?, ?)`, subID, kw,
		)
		if err != nil {
			return fmt.Errorf("add keyword: %w", err)
		}
		return nil
	})
}

// RemoveKeyword removes a keyword from the user's keyword set.
func (s *SQLite) RemoveKeyword(ctx context.Context, userID int64, keyword string) (*model.Subscription, error) {
	kw, err := filter.NormalizeKeyword(keyword)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyword, err)
	}
	return s.mutate(ctx, userID, func(tx *sqlx.Tx, subID int64) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM subscription_keywords WHERE subscription_id = ? AND keyword = ?`, subID, kw,
		)
		if err != nil {
			return fmt.Errorf("remove keyword: %w", err)
		}
		return nil
	})
}

// SetChannelEnabled switches delivery over ch on or off for the user.
func (s *SQLite) SetChannelEnabled(ctx context.Context, userID int64, ch model.Channel, enabled bool) (*model.Subscription, error) {
	col, err := channelColumn(ch)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(tx *sqlx.Tx, subID int64) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET `+col+` = ? WHERE id = ?`, boolToInt(enabled), subID,
		)
		if err != nil {
			return fmt.Errorf("set %s: %w", col, err)
		}
		return nil
	})
}

// DeleteSubscription removes the user's subscription and its category and keyword sets.
func (s *SQLite) DeleteSubscription(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, `SELECT id FROM subscriptions WHERE user_id = ?`, userID)
		if err != nil {
			return notFound(err, fmt.Sprintf("subscription for user %d", userID))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscription_keywords WHERE subscription_id = ?`, id); err != nil {
			return fmt.Errorf("delete keywords: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscription_categories WHERE subscription_id = ?`, id); err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		return nil
	})
}

// mutate applies fn to the user's subscription inside one transaction,
// creating the subscription first if needed, and returns the result.
func (s *SQLite) mutate(ctx context.Context, userID int64, fn func(tx *sqlx.Tx, subID int64) error) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := ensureSubscription(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE subscriptions SET updated_at = ? WHERE id = ?`, now(), id); err != nil {
			return fmt.Errorf("touch subscription: %w", err)
		}
		sub, err = getSubscription(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func ensureSubscription(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	def := model.NewSubscription(userID)
	ts := now()
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (user_id, email_enabled, push_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, boolToInt(def.EmailEnabled), boolToInt(def.PushEnabled), ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("ensure subscription: %w", err)
	}
	var id int64
	if err := tx.GetContext(ctx, &id, `SELECT id FROM subscriptions WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("get subscription id: %w", err)
	}
	return id, nil
}

func getSubscription(ctx context.Context, q sqlx.ExtContext, userID int64) (*model.Subscription, error) {
	var rows []subscriptionRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT `+subscriptionColumns+` FROM subscriptions s WHERE s.user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("subscription for user %d: %w", userID, ErrNotFound)
	}
	subs, err := hydrate(ctx, q, rows)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func categoryIDByName(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id,
		`SELECT id FROM categories WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("category %q: %w", name, ErrCategoryNotFound)
		}
		return 0, fmt.Errorf("get category id: %w", err)
	}
	return id, nil
}

func requireCategories(ctx context.Context, tx *sqlx.Tx, ids []int64) error {
	found := 0
	for chunk := range slices.Chunk(ids, inChunkSize) {
		query, args, err := sqlx.In(`SELECT COUNT(*) FROM categories WHERE id IN (?)`, chunk)
		if err != nil {
			return fmt.Errorf("build category query: %w", err)
		}
		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		found += count
	}
	if found != len(ids) {
		return fmt.Errorf("subscription references unknown category: %w", ErrCategoryNotFound)
	}
	return nil
}

func normalizeKeywords(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, k := range in {
		kw, err := filter.NormalizeKeyword(k)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidKeyword, k, err)
		}
		out = append(out, kw)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// hydrate attaches category and keyword sets to subscription rows, querying
// the link tables in chunks of inChunkSize ids.
func hydrate(ctx context.Context, q sqlx.ExtContext, rows []subscriptionRow) ([]model.Subscription, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	subs := make([]model.Subscription, 0, len(rows))
	index := make(map[int64]int, len(rows))
	for i, r := range rows {
		ids = append(ids, r.ID)
		index[r.ID] = i
		subs = append(subs, model.Subscription{
			ID:           r.ID,
			UserID:       r.UserID,
			EmailEnabled: r.EmailEnabled == 1,
			PushEnabled:  r.PushEnabled == 1,
			CreatedAt:    parseTime(r.CreatedAt),
			UpdatedAt:    parseTime(r.UpdatedAt),
		})
	}

	for chunk := range slices.Chunk(ids, inChunkSize) {
		var cats []categoryLink
		err := selectIn(ctx, q, &cats,
			`SELECT subscription_id, category_id FROM subscription_categories
			 WHERE subscription_id IN (?) ORDER BY subscription_id, category_id`, chunk)
		if err != nil {
			return nil, fmt.Errorf("query subscription categories: %w", err)
		}
		for _, c := range cats {
			i := index[c.SubscriptionID]
			subs[i].CategoryIDs = append(subs[i].CategoryIDs, c.CategoryID)
		}

		var kws []keywordLink
		err = selectIn(ctx, q, &kws,
			`SELECT subscription_id, keyword FROM subscription_keywords
			 WHERE subscription_id IN (?) ORDER BY subscription_id, keyword`, chunk)
		if err != nil {
			return nil, fmt.Errorf("query subscription keywords: %w", err)
		}
		for _, k := range kws {
			i := index[k.SubscriptionID]
			subs[i].Keywords = append(subs[i].Keywords, k.Keyword)
		}
	}

	return subs, nil
}

// selectIn expands the single IN (?) of query to ids and scans the result into dest.
func selectIn(ctx context.Context, q sqlx.ExtContext, dest any, query string, ids []int64) error {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}
