package bot

import (
	"fmt"
	"strconv"
	"strings"

	"news_notifier/internal/filter"
)

// ParseToggle reads an on/off argument.
func ParseToggle(args string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "yes", "1":
		return true, nil
	case "off", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", args)
}

// ParseCategoryArg extracts a category name from command arguments.
func ParseCategoryArg(args string) (string, error) {
	name := strings.Join(strings.Fields(args), " ")
	if name == "" {
		return "", fmt.Errorf("category name is required")
	}
	return name, nil
}

// ParseKeywordArg extracts a keyword from command arguments. Inner
// whitespace is collapsed so "/keyword  space   x" follows "space x".
// A double-quoted argument is taken verbatim: /keyword " ai " keeps its spaces.
func ParseKeywordArg(args string) (string, error) {
	raw := strings.Join(strings.Fields(args), " ")
	if q := strings.TrimSpace(args); len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		raw = q[1 : len(q)-1]
	}
	kw, err := filter.NormalizeKeyword(raw)
	if err != nil {
		return "", err
	}
	return kw, nil
}

// ParseArticleID reads a positive article ID, with or without a leading '#'.
func ParseArticleID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected an article id, got %q", args)
	}
	return id, nil
}

// ParsePage reads an optional 1-based page number; empty means page 1.
func ParsePage(args string) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(args)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("expected a page number, got %q", args)
	}
	return page, nil
}
