package targeting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"news_notifier/internal/model"
	"news_notifier/internal/storage"
)

var errConnLost = errors.New("connection lost")

// stubFinder answers from an in-memory slice. Keyword lookups return every
// subscription with the channel enabled, a superset of the real matches.
type stubFinder struct {
	mu          sync.Mutex
	subs        []model.Subscription
	categoryErr error
	keywordErr  error
	calls       int
}

func (f *stubFinder) FindByCategoryAndChannelEnabled(_ context.Context, categoryID int64, ch model.Channel) ([]model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	var out []model.Subscription
	for _, s := range f.subs {
		if s.HasCategory(categoryID) && s.ChannelEnabled(ch) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *stubFinder) FindByKeywordSubstringAndChannelEnabled(_ context.Context, _ string, ch model.Channel) ([]model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	var out []model.Subscription
	for _, s := range f.subs {
		if s.ChannelEnabled(ch) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *stubFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedSubscription(t *testing.T, s *storage.SQLite, sub model.Subscription) model.Subscription {
	t.Helper()
	if err := s.UpsertSubscription(context.Background(), &sub); err != nil {
		t.Fatalf("upsert subscription for user %d: %v", sub.UserID, err)
	}
	return sub
}

func forChannel(targets []model.NotificationTarget, ch model.Channel) []model.NotificationTarget {
	var out []model.NotificationTarget
	for _, t := range targets {
		if t.Channel == ch {
			out = append(out, t)
		}
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func TestComputeRoverScenario(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tech, err := store.EnsureCategory(ctx, "tech")
	if err != nil {
		t.Fatalf("ensure category: %v", err)
	}

	s1 := seedSubscription(t, store, model.Subscription{UserID: 1, CategoryIDs: []int64{tech.ID}, EmailEnabled: true})
	s2 := seedSubscription(t, store, model.Subscription{UserID: 2, Keywords: []string{"rover"}, EmailEnabled: true, PushEnabled: false})
	s3 := seedSubscription(t, store, model.Subscription{UserID: 3, CategoryIDs: []int64{tech.ID}, Keywords: []string{"rover"}, EmailEnabled: true})

	article := model.Article{ID: 10, CategoryID: &tech.ID, Title: "NASA's Rover lands"}

	engine := New(store, newTestLogger())
	got, err := engine.Compute(ctx, article)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	wantEmail := []model.NotificationTarget{
		{SubscriptionID: s1.ID, UserID: 1, Channel: model.ChannelEmail, ByCategory: true},
		{SubscriptionID: s2.ID, UserID: 2, Channel: model.ChannelEmail, ByKeyword: true},
		{SubscriptionID: s3.ID, UserID: 3, Channel: model.ChannelEmail, ByCategory: true, ByKeyword: true},
	}
	if diff := cmp.Diff(wantEmail, forChannel(got, model.ChannelEmail)); diff != "" {
		t.Errorf("email targets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, len(forChannel(got, model.ChannelPush))); diff != "" {
		t.Errorf("push targets mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDeduplicatesPerChannel(t *testing.T) {
	ctx := context.Background()
	finder := &stubFinder{subs: []model.Subscription{
		{ID: 1, UserID: 11, CategoryIDs: []int64{5}, Keywords: []string{"mars"}, EmailEnabled: true, PushEnabled: true},
	}}

	got, err := New(finder, newTestLogger()).Compute(ctx, model.Article{
		ID: 1, CategoryID: int64Ptr(5), Title: "Mars", Content: "more about mars",
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []model.NotificationTarget{
		{SubscriptionID: 1, UserID: 11, Channel: model.ChannelEmail, ByCategory: true, ByKeyword: true},
		{SubscriptionID: 1, UserID: 11, Channel: model.ChannelPush, ByCategory: true, ByKeyword: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeChannelGating(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tech, err := store.EnsureCategory(ctx, "tech")
	if err != nil {
		t.Fatalf("ensure category: %v", err)
	}

	seedSubscription(t, store, model.Subscription{UserID: 1, CategoryIDs: []int64{tech.ID}, Keywords: []string{"rover"}})
	pushOnly := seedSubscription(t, store, model.Subscription{UserID: 2, CategoryIDs: []int64{tech.ID}, Keywords: []string{"rover"}, PushEnabled: true})

	got, err := New(store, newTestLogger()).Compute(ctx, model.Article{ID: 1, CategoryID: &tech.ID, Title: "Rover"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []model.NotificationTarget{
		{SubscriptionID: pushOnly.ID, UserID: 2, Channel: model.ChannelPush, ByCategory: true, ByKeyword: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeEdgeCases(t *testing.T) {
	subs := []model.Subscription{
		{ID: 1, UserID: 11, CategoryIDs: []int64{5}, EmailEnabled: true, PushEnabled: true},
		{ID: 2, UserID: 12, Keywords: []string{"rover"}, EmailEnabled: true},
		{ID: 3, UserID: 13, EmailEnabled: true, PushEnabled: true},
	}

	tests := []struct {
		name      string
		article   model.Article
		want      []model.NotificationTarget
		wantCalls int
	}{
		{
			name:      "uncategorized with empty text",
			article:   model.Article{ID: 1},
			want:      nil,
			wantCalls: 0,
		},
		{
			name:    "uncategorized never matches by category",
			article: model.Article{ID: 1, Description: "a rover story"},
			want: []model.NotificationTarget{
				{SubscriptionID: 2, UserID: 12, Channel: model.ChannelEmail, ByKeyword: true},
			},
			wantCalls: 2,
		},
		{
			name:      "unknown category yields nothing",
			article:   model.Article{ID: 1, CategoryID: int64Ptr(99)},
			want:      nil,
			wantCalls: 2,
		},
		{
			name:    "category only",
			article: model.Article{ID: 1, CategoryID: int64Ptr(5), Title: "nothing relevant"},
			want: []model.NotificationTarget{
				{SubscriptionID: 1, UserID: 11, Channel: model.ChannelEmail, ByCategory: true},
				{SubscriptionID: 1, UserID: 11, Channel: model.ChannelPush, ByCategory: true},
			},
			wantCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &stubFinder{subs: subs}
			got, err := New(finder, newTestLogger()).Compute(context.Background(), tt.article)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, finder.callCount()); diff != "" {
				t.Errorf("store calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tech, err := store.EnsureCategory(ctx, "tech")
	if err != nil {
		t.Fatalf("ensure category: %v", err)
	}
	for i := int64(1); i <= 20; i++ {
		sub := model.Subscription{UserID: i, EmailEnabled: i%2 == 0, PushEnabled: i%3 == 0}
		if i%4 == 0 {
			sub.CategoryIDs = []int64{tech.ID}
		}
		if i%5 == 0 {
			sub.Keywords = []string{"launch"}
		}
		seedSubscription(t, store, sub)
	}

	engine := New(store, newTestLogger())
	article := model.Article{ID: 3, CategoryID: &tech.ID, Title: "Launch day", Content: "Rocket launch"}

	first, err := engine.Compute(ctx, article)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := engine.Compute(ctx, article)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected some targets")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
}

func TestComputeStoreFailure(t *testing.T) {
	subs := []model.Subscription{
		{ID: 1, UserID: 11, CategoryIDs: []int64{5}, Keywords: []string{"rover"}, EmailEnabled: true, PushEnabled: true},
	}

	tests := []struct {
		name   string
		finder *stubFinder
	}{
		{name: "category query fails", finder: &stubFinder{subs: subs, categoryErr: errConnLost}},
		{name: "keyword query fails", finder: &stubFinder{subs: subs, keywordErr: errConnLost}},
		{name: "both fail", finder: &stubFinder{subs: subs, categoryErr: errConnLost, keywordErr: errConnLost}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.finder, newTestLogger()).Compute(context.Background(), model.Article{
				ID: 1, CategoryID: int64Ptr(5), Title: "rover",
			})
			if !errors.Is(err, ErrStoreUnavailable) {
				t.Fatalf("expected ErrStoreUnavailable, got %v", err)
			}
			if !errors.Is(err, errConnLost) {
				t.Errorf("expected cause to be preserved, got %v", err)
			}
			if got != nil {
				t.Errorf("expected no targets on failure, got %v", got)
			}
		})
	}
}

func TestComputeStoreUnavailableFromClosedDB(t *testing.T) {
	store := newTestStore(t)
	_ = store.Close()

	_, err := New(store, newTestLogger()).Compute(context.Background(), model.Article{
		ID: 1, CategoryID: int64Ptr(1), Title: "anything",
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestComputeInvalidInput(t *testing.T) {
	finder := &stubFinder{}
	engine := New(finder, newTestLogger())
	ctx := context.Background()

	if _, err := engine.Compute(ctx, model.Article{Title: "no id"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing id: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.ComputeChannel(ctx, model.Article{ID: 1, Title: "x"}, model.Channel("sms")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown channel: expected ErrInvalidInput, got %v", err)
	}
	if diff := cmp.Diff(0, finder.callCount()); diff != "" {
		t.Errorf("store must not be queried on invalid input (-want +got):\n%s", diff)
	}
}

func TestComputeChannel(t *testing.T) {
	finder := &stubFinder{subs: []model.Subscription{
		{ID: 1, UserID: 11, CategoryIDs: []int64{5}, EmailEnabled: true, PushEnabled: true},
		{ID: 2, UserID: 12, Keywords: []string{"rover"}, PushEnabled: true},
	}}

	got, err := New(finder, newTestLogger()).ComputeChannel(context.Background(), model.Article{
		ID: 1, CategoryID: int64Ptr(5), Title: "Rover",
	}, model.ChannelPush)
	if err != nil {
		t.Fatalf("compute channel: %v", err)
	}
	want := []model.NotificationTarget{
		{SubscriptionID: 1, UserID: 11, Channel: model.ChannelPush, ByCategory: true},
		{SubscriptionID: 2, UserID: 12, Channel: model.ChannelPush, ByKeyword: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeChannel() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, finder.callCount()); diff != "" {
		t.Errorf("store calls mismatch (-want +got):\n%s", diff)
	}
}
