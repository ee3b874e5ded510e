package targeting

import (
	"context"
	"fmt"
	"strings"

	"news_notifier/internal/filter"
	"news_notifier/internal/model"
	"news_notifier/internal/storage"
)

// KeywordMatcher selects subscriptions whose keywords occur in article text.
//
// The finder may return a superset of the real matches (an index lookup, for
// example); every candidate is re-checked with filter.MatchAny so matching
// stays a plain case-insensitive substring test.
type KeywordMatcher struct {
	finder storage.SubscriptionFinder
}

// NewKeywordMatcher creates a KeywordMatcher reading from finder.
func NewKeywordMatcher(finder storage.SubscriptionFinder) *KeywordMatcher {
	return &KeywordMatcher{finder: finder}
}

// Match returns every subscription with ch enabled and at least one keyword
// contained in text.
func (m *KeywordMatcher) Match(ctx context.Context, text string, ch model.Channel) ([]model.Subscription, error) {
	if !ch.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, ch)
	}
	text = strings.ToLower(text)
	if text == "" {
		return nil, nil
	}

	candidates, err := m.finder.FindByKeywordSubstringAndChannelEnabled(ctx, text, ch)
	if err != nil {
		return nil, fmt.Errorf("%w: find by keyword: %w", ErrStoreUnavailable, err)
	}

	var matched []model.Subscription
	for _, s := range candidates {
		if s.ChannelEnabled(ch) && filter.MatchAny(text, s.Keywords) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
