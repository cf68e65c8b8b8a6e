// Package dorks builds search-engine dork strings for OSINT lookups. Each
// category is one strategy; strategies are selected from a lookup table and
// their blocks combined into a single query.
package dorks

import (
	"fmt"
	"strings"
)

// Strategy renders the dork block for one category of sources.
type Strategy interface {
	Dork(targetName string) string
}

type SocialStrategy struct{}

func (SocialStrategy) Dork(targetName string) string {
	parts := []string{
		fmt.Sprintf(`site:facebook.com "%s"`, targetName),
		fmt.Sprintf(`site:twitter.com "%s"`, targetName),
	}
	return strings.Join(parts, " OR ")
}

type FilesStrategy struct{}

func (FilesStrategy) Dork(targetName string) string {
	parts := []string{
		fmt.Sprintf(`"%s" filetype:pdf`, targetName),
		fmt.Sprintf(`"%s" filetype:xls`, targetName),
	}
	return strings.Join(parts, " OR ")
}

type LogsStrategy struct{}

func (LogsStrategy) Dork(targetName string) string {
	parts := []string{
		fmt.Sprintf(`site:pastebin.com "%s"`, targetName),
		fmt.Sprintf(`"%s" intext:password`, targetName),
	}
	return strings.Join(parts, " OR ")
}

var strategies = map[string]Strategy{
	"social": SocialStrategy{},
	"files":  FilesStrategy{},
	"logs":   LogsStrategy{},
}

// ForCategory returns the strategy registered for the category.
func ForCategory(category string) (Strategy, error) {
	strategy, ok := strategies[category]
	if !ok {
		return nil, fmt.Errorf("unknown dork category: %s", category)
	}
	return strategy, nil
}

// Categories lists the registered category names.
func Categories() []string {
	out := make([]string, 0, len(strategies))
	for name := range strategies {
		out = append(out, name)
	}
	return out
}

// BuildCombined joins the dork blocks of every requested category.
func BuildCombined(targetName string, categories []string) (string, error) {
	if len(categories) == 0 {
		return "", fmt.Errorf("categories list must not be empty")
	}

	blocks := make([]string, 0, len(categories))
	for _, category := range categories {
		strategy, err := ForCategory(category)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, strategy.Dork(targetName))
	}
	return strings.Join(blocks, " AND "), nil
}
