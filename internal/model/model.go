// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Channel is a notification delivery mode.
type Channel string

// Supported channels.
const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Channels lists every supported channel in evaluation order.
var Channels = []Channel{ChannelEmail, ChannelPush}

// Valid reports whether c is one of the supported channels.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelPush
}

// ParseChannel converts user input into a Channel.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown channel %q, use: email, push", s)
	}
	return c, nil
}

// Source is a news feed whose items are filed under Category.
type Source struct {
	Category string
	URL      string
}

// Category is a named article category.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Subscription is a user's notification preference record.
// CategoryIDs and Keywords are sets kept sorted; keywords are lower-case.
type Subscription struct {
	ID           int64
	UserID       int64
	CategoryIDs  []int64
	Keywords     []string
	EmailEnabled bool
	PushEnabled  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSubscription returns the record created on a user's first preference write.
func NewSubscription(userID int64) Subscription {
	return Subscription{
		UserID:       userID,
		EmailEnabled: true,
	}
}

// ChannelEnabled reports whether delivery over ch is switched on.
func (s Subscription) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return s.EmailEnabled
	case ChannelPush:
		return s.PushEnabled
	}
	return false
}

// HasCategory reports whether the subscription includes the category.
func (s Subscription) HasCategory(id int64) bool {
	return slices.Contains(s.CategoryIDs, id)
}

// Article is a published news article.
type Article struct {
	ID            int64
	CategoryID    *int64
	Title         string
	Description   string
	Content       string
	Source        string
	URL           string
	GUID          string
	ImageURL      string
	PublishedAt   *time.Time
	LikesCount    int
	DislikesCount int
	NotifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NotificationTarget is a subscription selected for delivery over a channel.
type NotificationTarget struct {
	SubscriptionID int64
	UserID         int64
	Channel        Channel
	ByCategory     bool
	ByKeyword      bool
}
