package domain

// Candidate is a votable entry in an event.
// Gifts are stored in token-value units, not as a count of gifts.
type Candidate struct {
	ID      string `json:"candidate_id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`
	Votes   int64  `json:"votes"`
	Gifts   int64  `json:"gifts"`
	Points  int64  `json:"points"`
}

// ComputePoints is the ranking formula shared by the vote and gift flows.
func ComputePoints(votes, gifts int64) int64 {
	return (votes + gifts) / 10
}

// Recompute refreshes Points from the current counters.
func (c *Candidate) Recompute() {
	c.Points = ComputePoints(c.Votes, c.Gifts)
}
