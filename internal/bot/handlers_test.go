package bot

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"news_notifier/internal/filter"
	"news_notifier/internal/model"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestParseToggle(t *testing.T) {
	tests := []struct {
		args    string
		want    bool
		wantErr bool
	}{
		{args: "on", want: true},
		{args: " ON ", want: true},
		{args: "yes", want: true},
		{args: "1", want: true},
		{args: "off", want: false},
		{args: "No", want: false},
		{args: "0", want: false},
		{args: "", wantErr: true},
		{args: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := ParseToggle(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseToggle() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCategoryArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "single word", args: "space", want: "space"},
		{name: "collapses whitespace", args: "  world   news ", want: "world news"},
		{name: "empty", args: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategoryArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCategoryArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArticleID(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int64
		wantErr bool
	}{
		{name: "plain", args: "12", want: 12},
		{name: "hash prefix", args: " #7 ", want: 7},
		{name: "empty", args: "", wantErr: true},
		{name: "zero", args: "0", wantErr: true},
		{name: "negative", args: "-3", wantErr: true},
		{name: "text", args: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArticleID(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseArticleID() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "default", args: "", want: 1},
		{name: "explicit", args: " 3 ", want: 3},
		{name: "zero", args: "0", wantErr: true},
		{name: "text", args: "next", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePage(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeywordArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr error
	}{
		{name: "lower-cases", args: "Rover", want: "rover"},
		{name: "phrase", args: "Mars   Rover", want: "mars rover"},
		{name: "wildcards kept literally", args: "100%", want: "100%"},
		{name: "empty", args: "  ", wantErr: filter.ErrEmptyKeyword},
		{name: "quoted keeps spaces", args: ` " AI " `, want: " ai "},
		{name: "quoted blank", args: `"  "`, wantErr: filter.ErrEmptyKeyword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeywordArg(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseKeywordArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatPreferences(t *testing.T) {
	categories := []model.Category{{ID: 1, Name: "space"}, {ID: 2, Name: "tech"}}

	tests := []struct {
		name string
		sub  *model.Subscription
		want string
	}{
		{
			name: "empty sets",
			sub:  &model.Subscription{EmailEnabled: true},
			want: "Your preferences:\n\nCategories: none\nKeywords: none\n\nEmail: on\nPush: off",
		},
		{
			name: "full",
			sub: &model.Subscription{
				CategoryIDs:  []int64{1, 2, 7},
				Keywords:     []string{"mars", "rover"},
				PushEnabled:  true,
				EmailEnabled: false,
			},
			want: "Your preferences:\n\nCategories: space, tech, #7\nKeywords: mars, rover\n\nEmail: off\nPush: on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatPreferences(tt.sub, categories)); diff != "" {
				t.Errorf("FormatPreferences() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatCategoryList(t *testing.T) {
	categories := []model.Category{
		{ID: 1, Name: "space", Description: "rockets and rovers"},
		{ID: 2, Name: "tech"},
	}

	got := FormatCategoryList(categories, &model.Subscription{CategoryIDs: []int64{2}})
	want := "Categories:\n\n  space — rockets and rovers\n✓ tech\n\nTap a button or use /subscribe <category>."
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatCategoryList() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("No categories yet. They appear as soon as news arrives.", FormatCategoryList(nil, nil)); diff != "" {
		t.Errorf("empty list mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelLabel(t *testing.T) {
	if diff := cmp.Diff("Email", channelLabel(model.ChannelEmail)); diff != "" {
		t.Errorf("email label (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Push", channelLabel(model.ChannelPush)); diff != "" {
		t.Errorf("push label (-want +got):\n%s", diff)
	}
}
