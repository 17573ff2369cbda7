package insights

import (
	"fmt"
	"strings"

	"github.com/shiftly/insights-server/internal/repository/models"
)

// Score weights and bonuses. These are part of the behavioral contract:
// changing them changes every ranking the engine produces.
const (
	weightPairAvg  = 0.50
	weightVenueAvg = 0.30
	weightDayMatch = 0.20

	dayMatchExact    = 1.0
	dayMatchAdjacent = 0.6
	dayMatchDistant  = 0.25

	bonusVIPHotVenue  = 0.12
	bonusVIP          = 0.06
	bonusHighSpender  = 0.08
	bonusNotesMention = 0.10

	// share of the venue max average above which a venue counts as a
	// top earner for the VIP bonus
	hotVenueShare = 0.7

	tagVIP         = "VIP"
	tagHighSpender = "High Spender"
)

var dayLabels = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func dayLabel(day int) string {
	if day < 0 || day >= len(dayLabels) {
		return "Unknown"
	}
	return dayLabels[day]
}

// dayMatchScore grades how well two best days line up: 1.0 for the same
// day, 0.6 for adjacent weekdays (the Saturday/Sunday wrap included),
// 0.25 otherwise, 0 when either side has no data.
func dayMatchScore(a, b *int) float64 {
	if a == nil || b == nil {
		return 0
	}
	if *a == *b {
		return dayMatchExact
	}
	diff := (*a - *b + 7) % 7
	if diff == 1 || diff == 6 {
		return dayMatchAdjacent
	}
	return dayMatchDistant
}

// normalize maps v into [0,1] against max, 0 when max is 0.
func normalize(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max
}

func hasTag(c models.Client, tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// compatibility scores one (client, venue) pair from the aggregates and
// the two performance lookups. Pure given its inputs; missing data
// contributes zero rather than failing. The rationale list order is fixed:
// personal earnings, venue average, day alignment, VIP, high spender,
// notes mention.
func compatibility(client models.Client, venue models.Venue, aggs Aggregates, clientPerf, venuePerf models.PerformanceStats) VenueRecommendation {
	pairAvg := aggs.Pair[PairKey{ClientID: client.ID, VenueID: venue.ID}].Avg()
	venueAvg := aggs.Venue[venue.ID].Avg()

	dayMatch := dayMatchScore(clientPerf.BestDay, venuePerf.BestDay)

	rationale := make([]string, 0, 6)
	if pairAvg > 0 {
		rationale = append(rationale, fmt.Sprintf("Averages $%.0f per shift at %s", pairAvg, venue.Name))
	}
	if venueAvg > 0 {
		rationale = append(rationale, fmt.Sprintf("%s pays $%.0f per shift on average", venue.Name, venueAvg))
	}
	if clientPerf.BestDay != nil && venuePerf.BestDay != nil {
		if *clientPerf.BestDay == *venuePerf.BestDay {
			rationale = append(rationale, fmt.Sprintf("Best day matches the venue's (%s)", dayLabel(*clientPerf.BestDay)))
		} else {
			rationale = append(rationale, fmt.Sprintf("Best days are %s and %s", dayLabel(*clientPerf.BestDay), dayLabel(*venuePerf.BestDay)))
		}
	}

	var bonus float64
	if hasTag(client, tagVIP) {
		if venueAvg > hotVenueShare*aggs.VenueMaxAvg {
			bonus += bonusVIPHotVenue
			rationale = append(rationale, fmt.Sprintf("VIP client and %s is a top earner", venue.Name))
		} else {
			bonus += bonusVIP
			rationale = append(rationale, "VIP client")
		}
	}
	if hasTag(client, tagHighSpender) {
		bonus += bonusHighSpender
		rationale = append(rationale, "High spender bonus applied")
	}
	if venue.Name != "" && strings.Contains(strings.ToLower(client.Notes), strings.ToLower(venue.Name)) {
		bonus += bonusNotesMention
		rationale = append(rationale, fmt.Sprintf("Notes mention %s", venue.Name))
	}

	score := weightPairAvg*normalize(pairAvg, aggs.PairMaxAvg) +
		weightVenueAvg*normalize(venueAvg, aggs.VenueMaxAvg) +
		weightDayMatch*dayMatch +
		bonus

	return VenueRecommendation{
		VenueID:        venue.ID,
		VenueName:      venue.Name,
		Score:          score,
		Rationale:      rationale,
		ClientVenueAvg: pairAvg,
		VenueAvg:       venueAvg,
		ClientBestDay:  clientPerf.BestDay,
		VenueBestDay:   venuePerf.BestDay,
	}
}
