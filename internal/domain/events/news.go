package events

import (
	"fmt"
	"strings"
	"time"
)

type SourceCategory string

const (
	CategoryProfessional SourceCategory = "professional"
	CategoryGeneral      SourceCategory = "general"
	CategoryFinancial    SourceCategory = "financial"
	CategoryTech         SourceCategory = "tech"
)

func ParseSourceCategory(s string) (SourceCategory, error) {
	switch c := SourceCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryProfessional, CategoryGeneral, CategoryFinancial, CategoryTech:
		return c, nil
	}
	return "", fmt.Errorf("unknown source category %q", s)
}

// NewsItem is one filtered feed entry for the current fetch cycle. It is never persisted.
type NewsItem struct {
	Title          string
	Body           string
	URL            string
	SourceName     string
	SourceCategory SourceCategory
	SourceWeight   float64
	PublishedAt    *time.Time
	FetchedAt      time.Time
}

// Date is the best known date for provenance.
func (n NewsItem) Date() time.Time {
	if n.PublishedAt != nil && !n.PublishedAt.IsZero() {
		return *n.PublishedAt
	}
	return n.FetchedAt
}
