package insights

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const queryHint = "Try asking about your best venue, your schedule, or compatibility for a client."

// compatibilityPattern pulls the client name out of questions like
// "compatibility for Dana" or "show compatibility Dana".
var compatibilityPattern = regexp.MustCompile(`(?i)compatibility\s+(?:for\s+)?(.+)`)

func percent(score float64) int {
	return int(math.Round(score * 100))
}

// AnswerQuery routes a free-text question through ordered keyword checks
// and formats an answer from the derived views. Matching is fixed keyword
// containment, not NLP; branch order is part of the contract. A
// compatibility question naming an unknown client falls through to the
// generic fallback.
func (s *Service) AnswerQuery(ctx context.Context, question string, lookbackDays int) (string, error) {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "best club") || strings.Contains(q, "best venue"):
		assignments, err := s.GenerateClientAssignments(ctx, lookbackDays, defaultQueryTopN)
		if err != nil {
			return "", err
		}
		if pairs := globalTopPairs(assignments); len(pairs) > 0 {
			top := pairs[0]
			return fmt.Sprintf("Your strongest match is %s for %s with a %d%% compatibility score.",
				top.VenueName, top.ClientName, percent(top.Score)), nil
		}
		return s.fallbackAnswer(ctx, lookbackDays)

	case strings.Contains(q, "schedule") || strings.Contains(q, "when should i work") || strings.Contains(q, "what day"):
		suggestions, err := s.GenerateScheduleSuggestions(ctx, lookbackDays, defaultSuggestionWeeks)
		if err != nil {
			return "", err
		}
		if len(suggestions) > 0 {
			return suggestions[0].Text, nil
		}
		return s.fallbackAnswer(ctx, lookbackDays)

	case strings.Contains(q, "compatibility"):
		if answer, ok, err := s.answerCompatibility(ctx, question, lookbackDays); err != nil {
			return "", err
		} else if ok {
			return answer, nil
		}
		return s.fallbackAnswer(ctx, lookbackDays)

	default:
		return s.fallbackAnswer(ctx, lookbackDays)
	}
}

func (s *Service) answerCompatibility(ctx context.Context, question string, lookbackDays int) (string, bool, error) {
	m := compatibilityPattern.FindStringSubmatch(question)
	if m == nil {
		return "", false, nil
	}
	name := strings.ToLower(strings.Trim(m[1], " ?!.,"))
	if name == "" {
		return "", false, nil
	}

	assignments, err := s.GenerateClientAssignments(ctx, lookbackDays, defaultQueryTopN)
	if err != nil {
		return "", false, err
	}

	for _, a := range assignments {
		if !strings.Contains(strings.ToLower(a.ClientName), name) {
			continue
		}
		parts := make([]string, 0, len(a.Recommendations))
		for _, rec := range a.Recommendations {
			parts = append(parts, fmt.Sprintf("%s %d%%", rec.VenueName, percent(rec.Score)))
		}
		return fmt.Sprintf("Compatibility for %s: %s.", a.ClientName, strings.Join(parts, ", ")), true, nil
	}

	return "", false, nil
}

// fallbackAnswer summarizes the top 3 clients' best venue and day as a
// pipe-separated list, plus a hint of the supported keywords.
func (s *Service) fallbackAnswer(ctx context.Context, lookbackDays int) (string, error) {
	assignments, err := s.GenerateClientAssignments(ctx, lookbackDays, defaultQueryTopN)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, 3)
	for _, a := range assignments {
		if len(parts) == 3 {
			break
		}
		if len(a.Recommendations) == 0 {
			continue
		}
		best := a.Recommendations[0]
		parts = append(parts, fmt.Sprintf("%s: %s (%s)",
			a.ClientName, best.VenueName, dayLabel(suggestionDay(best))))
	}

	if len(parts) == 0 {
		return queryHint, nil
	}
	return fmt.Sprintf("%s %s", strings.Join(parts, " | "), queryHint), nil
}
