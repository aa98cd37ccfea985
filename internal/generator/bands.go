package generator

import "github.com/yungbote/eventforge/internal/domain/events"

// CategoryBand maps a news source category to the ranks its stories concern.
func CategoryBand(c events.SourceCategory) events.RankBand {
	switch c {
	case events.CategoryProfessional:
		return events.RankBand{Min: events.RankPhD, Max: events.RankProfessor}
	case events.CategoryFinancial:
		return events.RankBand{Min: events.RankMaster, Max: events.RankProfessor}
	case events.CategoryTech:
		return events.RankBand{Min: events.RankUndergraduate, Max: events.RankAssociateProfessor}
	}
	return events.FullBand()
}

// NewsQuality seeds the quality score from the source weight.
func NewsQuality(sourceWeight float64) float64 {
	q := 0.4 + 0.1*sourceWeight
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}
