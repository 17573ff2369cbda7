package insights

import "github.com/shiftly/insights-server/internal/repository/models"

// PairKey identifies a (client, venue) earning bucket. A struct key avoids
// the delimiter collisions a concatenated string key would allow.
type PairKey struct {
	ClientID string
	VenueID  string
}

// Bucket accumulates earnings for one entity or entity pair.
type Bucket struct {
	Total float64
	Count int
}

// Avg returns average earnings per shift, 0 for an empty bucket.
func (b Bucket) Avg() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.Total / float64(b.Count)
}

// Aggregates holds per-venue, per-client and per-pair earning buckets plus
// the maximum bucket averages used for normalization. Maxima are 0 when no
// buckets of that kind exist.
type Aggregates struct {
	Venue  map[string]Bucket
	Client map[string]Bucket
	Pair   map[PairKey]Bucket

	VenueMaxAvg  float64
	ClientMaxAvg float64
	PairMaxAvg   float64
}

// ComputeAggregates builds earning buckets from a snapshot in a single
// pass over its shifts. Shifts without a venue are skipped; client and
// pair buckets additionally require a client reference. Pure and
// deterministic, recomputed fresh on every top-level call.
func ComputeAggregates(snap models.Snapshot) Aggregates {
	aggs := Aggregates{
		Venue:  make(map[string]Bucket),
		Client: make(map[string]Bucket),
		Pair:   make(map[PairKey]Bucket),
	}

	for _, shift := range snap.Shifts {
		if shift.VenueID == "" {
			continue
		}

		vb := aggs.Venue[shift.VenueID]
		vb.Total += shift.Earnings
		vb.Count++
		aggs.Venue[shift.VenueID] = vb

		if shift.ClientID == "" {
			continue
		}

		cb := aggs.Client[shift.ClientID]
		cb.Total += shift.Earnings
		cb.Count++
		aggs.Client[shift.ClientID] = cb

		key := PairKey{ClientID: shift.ClientID, VenueID: shift.VenueID}
		pb := aggs.Pair[key]
		pb.Total += shift.Earnings
		pb.Count++
		aggs.Pair[key] = pb
	}

	for _, b := range aggs.Venue {
		if avg := b.Avg(); avg > aggs.VenueMaxAvg {
			aggs.VenueMaxAvg = avg
		}
	}
	for _, b := range aggs.Client {
		if avg := b.Avg(); avg > aggs.ClientMaxAvg {
			aggs.ClientMaxAvg = avg
		}
	}
	for _, b := range aggs.Pair {
		if avg := b.Avg(); avg > aggs.PairMaxAvg {
			aggs.PairMaxAvg = avg
		}
	}

	return aggs
}
