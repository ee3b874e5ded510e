package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news_notifier/internal/model"
)

// FormatCategoryList formats the available categories, marking the ones sub follows.
// sub may be nil.
func FormatCategoryList(categories []model.Category, sub *model.Subscription) string {
	if len(categories) == 0 {
		return "No categories yet. They appear as soon as news arrives."
	}
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, c := range categories {
		mark := " "
		if sub != nil && sub.HasCategory(c.ID) {
			mark = "✓"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, c.Name)
		if c.Description != "" {
			fmt.Fprintf(&b, " — %s", c.Description)
		}
	}
	b.WriteString("\n\nTap a button or use /subscribe <category>.")
	return b.String()
}

// FormatPreferences formats a subscription for display. categories resolves
// category IDs to names; unknown IDs are shown as #id.
func FormatPreferences(sub *model.Subscription, categories []model.Category) string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var b strings.Builder
	b.WriteString("Your preferences:\n")

	b.WriteString("\nCategories: ")
	if len(sub.CategoryIDs) == 0 {
		b.WriteString("none")
	} else {
		labels := make([]string, 0, len(sub.CategoryIDs))
		for _, id := range sub.CategoryIDs {
			name, ok := names[id]
			if !ok {
				name = fmt.Sprintf("#%d", id)
			}
			labels = append(labels, name)
		}
		b.WriteString(strings.Join(labels, ", "))
	}

	b.WriteString("\nKeywords: ")
	if len(sub.Keywords) == 0 {
		b.WriteString("none")
	} else {
		b.WriteString(strings.Join(sub.Keywords, ", "))
	}

	fmt.Fprintf(&b, "\n\nEmail: %s\nPush: %s", onOff(sub.EmailEnabled), onOff(sub.PushEnabled))
	return b.String()
}

func categoryKeyboard(categories []model.Category, sub *model.Subscription) *tgbotapi.InlineKeyboardMarkup {
	if len(categories) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		label, action := "Follow "+c.Name, actionSub
		if sub != nil && sub.HasCategory(c.ID) {
			label, action = "Unfollow "+c.Name, actionUnsub
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", action, c.ID)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// FormatArticle formats a single article with its ratings.
func FormatArticle(a *model.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", a.ID, a.Title)
	if a.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", a.Description)
	}
	if a.Source != "" {
		fmt.Fprintf(&b, "\n\nSource: %s", a.Source)
	}
	if a.PublishedAt != nil {
		fmt.Fprintf(&b, "\nPublished: %s", a.PublishedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if a.URL != "" {
		fmt.Fprintf(&b, "\n%s", a.URL)
	}
	fmt.Fprintf(&b, "\n\n👍 %d  👎 %d", a.LikesCount, a.DislikesCount)
	return b.String()
}

// FormatArticleList formats articles as one "#id title" line each under header.
func FormatArticleList(header string, articles []model.Article) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "\n#%d %s", a.ID, a.Title)
	}
	b.WriteString("\n\nUse /article <id> for details.")
	return b.String()
}

func articleKeyboard(id int64, saved bool) tgbotapi.InlineKeyboardMarkup {
	saveLabel, saveAction := "Save", actionSave
	if saved {
		saveLabel, saveAction = "Unsave", actionUnsave
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("👍", fmt.Sprintf("%s:%d", actionLike, id)),
		tgbotapi.NewInlineKeyboardButtonData("👎", fmt.Sprintf("%s:%d", actionDislike, id)),
		tgbotapi.NewInlineKeyboardButtonData(saveLabel, fmt.Sprintf("%s:%d", saveAction, id)),
	))
}

func channelLabel(ch model.Channel) string {
	switch ch {
	case model.ChannelEmail:
		return "Email"
	case model.ChannelPush:
		return "Push"
	}
	return string(ch)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
