package generator

import (
	"fmt"
	"strings"

	"github.com/yungbote/eventforge/internal/clients/llm"
	"github.com/yungbote/eventforge/internal/domain/events"
)

const eventSchema = `Reply with one JSON object and nothing else:
{
  "title": "short headline, max 12 words",
  "description": "2-4 sentences written in second person",
  "options": [
    {"id": "a", "text": "choice", "effects": {"cash": 0, "health": 0, "reputation": 0, "progress": 0, "quality": 0}, "feedback": "one sentence outcome"},
    {"id": "b", ...},
    {"id": "c", ...}
  ],
  "min_rank": "undergraduate",
  "max_rank": "professor"
}
Exactly three options. Every effect is an integer between -30 and 30.
Ranks, lowest to highest: undergraduate, master, phd, postdoc, assistant_professor, associate_professor, professor.`

const newsSystem = `You turn real news about science and higher education into short decision events for an academic career simulation game.
The player is a researcher somewhere between undergraduate and full professor.
Keep the event grounded in the news item, make every option a real trade-off, and keep the tone light but plausible.
` + eventSchema

const creativeSystem = `You invent short, surprising decision events for an academic career simulation game.
Events must fit the player's current rank and stats, and each option must be a real trade-off.
` + eventSchema

func newsMessages(item events.NewsItem) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s (%s)\n", item.SourceName, item.SourceCategory)
	fmt.Fprintf(&b, "Date: %s\n", item.Date().Format("2006-01-02"))
	fmt.Fprintf(&b, "Headline: %s\n", item.Title)
	if body := strings.TrimSpace(item.Body); body != "" {
		fmt.Fprintf(&b, "Summary: %s\n", body)
	}
	b.WriteString("\nWrite one decision event inspired by this story.")
	return []llm.Message{llm.System(newsSystem), llm.User(b.String())}
}

func creativeMessages(req CreativeRequest) []llm.Message {
	rank := "any rank"
	if req.Rank.Valid() {
		rank = req.Rank.String()
	}
	s := req.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Player rank: %s\n", rank)
	fmt.Fprintf(&b, "Round: %d\n", req.Round)
	fmt.Fprintf(&b, "Stats: cash=%d health=%d reputation=%d progress=%d quality=%d\n",
		s.Cash, s.Health, s.Reputation, s.Progress, s.Quality)
	if low := lowStats(s); len(low) > 0 {
		fmt.Fprintf(&b, "The player is struggling with: %s. Offer at least one option that helps.\n", strings.Join(low, ", "))
	}
	b.WriteString("\nWrite one original decision event for this player.")
	return []llm.Message{llm.System(creativeSystem), llm.User(b.String())}
}

func lowStats(s events.PlayerStats) []string {
	var out []string
	for _, kv := range []struct {
		name string
		v    int
	}{
		{"cash", s.Cash}, {"health", s.Health}, {"reputation", s.Reputation},
		{"progress", s.Progress}, {"quality", s.Quality},
	} {
		if kv.v < 20 {
			out = append(out, kv.name)
		}
	}
	return out
}
