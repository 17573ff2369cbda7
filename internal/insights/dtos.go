package insights

// VenueRecommendation is one scored (client, venue) pairing from the
// client's point of view.
type VenueRecommendation struct {
	VenueID        string   `json:"venue_id"`
	VenueName      string   `json:"venue_name"`
	Score          float64  `json:"score"`
	Rationale      []string `json:"rationale"`
	ClientVenueAvg float64  `json:"client_venue_avg"`
	VenueAvg       float64  `json:"venue_avg"`
	ClientBestDay  *int     `json:"client_best_day"`
	VenueBestDay   *int     `json:"venue_best_day"`
}

// ClientAssignment holds a client's top venue recommendations.
type ClientAssignment struct {
	ClientID        string                `json:"client_id"`
	ClientName      string                `json:"client_name"`
	Recommendations []VenueRecommendation `json:"recommendations"`
}

// ScoredPair is a flattened (client, venue) entry for the combined view.
type ScoredPair struct {
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	VenueID    string  `json:"venue_id"`
	VenueName  string  `json:"venue_name"`
	Score      float64 `json:"score"`
}

// ScheduleSuggestion is a single best-day booking suggestion for a client.
type ScheduleSuggestion struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	VenueID    string `json:"venue_id"`
	VenueName  string `json:"venue_name"`
	Day        int    `json:"day"`
	DayLabel   string `json:"day_label"`
	Weeks      int    `json:"weeks"`
	Text       string `json:"text"`
}

// ActionItem is a prioritized follow-up ("high" or "medium").
type ActionItem struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Insights is the combined view served by the dashboard endpoint.
type Insights struct {
	Assignments []ClientAssignment   `json:"assignments"`
	TopPairs    []ScoredPair         `json:"top_pairs"`
	Suggestions []ScheduleSuggestion `json:"suggestions"`
	ActionItems []ActionItem         `json:"action_items"`
}
