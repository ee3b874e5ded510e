package targeting

import (
	"context"
	"fmt"

	"news_notifier/internal/model"
	"news_notifier/internal/storage"
)

// CategoryMatcher selects subscriptions by category membership.
type CategoryMatcher struct {
	finder storage.SubscriptionFinder
}

// NewCategoryMatcher creates a CategoryMatcher reading from finder.
func NewCategoryMatcher(finder storage.SubscriptionFinder) *CategoryMatcher {
	return &CategoryMatcher{finder: finder}
}

// Match returns every subscription that includes categoryID and has ch enabled.
// An uncategorized article (nil categoryID) matches nothing.
func (m *CategoryMatcher) Match(ctx context.Context, categoryID *int64, ch model.Channel) ([]model.Subscription, error) {
	if !ch.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, ch)
	}
	if categoryID == nil {
		return nil, nil
	}

	candidates, err := m.finder.FindByCategoryAndChannelEnabled(ctx, *categoryID, ch)
	if err != nil {
		return nil, fmt.Errorf("%w: find by category %d: %w", ErrStoreUnavailable, *categoryID, err)
	}

	var matched []model.Subscription
	for _, s := range candidates {
		if s.ChannelEnabled(ch) && s.HasCategory(*categoryID) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
