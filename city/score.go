package city

// Counters are the raw per-city inputs the composite score is derived
// from.
type Counters struct {
	TotalReports    int
	ResolvedReports int
	PendingReports  int
	EngagementScore float64
	ResponseRate    float64
	AvgResponseTime float64
}

// Scores are the derived leaderboard components. Authority and citizen
// land roughly in 0-100 for sane inputs and are combined 50/50; nothing is
// clamped, so a negative engagement score carries through.
type Scores struct {
	Authority float64
	Citizen   float64
	Total     float64
}

// ComputeScores recomputes the composite city score from current counters.
//
// Authority activity blends responsiveness (the inverse of the average
// response time, or the response rate when no timing data exists) with the
// resolution rate. Citizen responsibility is the accumulated engagement,
// penalized for a high share of still-pending reports.
func ComputeScores(c Counters) Scores {
	resolutionRate := 0.0
	if c.TotalReports > 0 {
		resolutionRate = float64(c.ResolvedReports) / float64(c.TotalReports) * 100
	}

	responsiveness := c.ResponseRate
	if c.AvgResponseTime > 0 {
		responsiveness = 100 / (1 + c.AvgResponseTime)
	}

	authority := responsiveness*0.6 + resolutionRate*0.4

	pendingFactor := 1.0
	if c.TotalReports > 0 {
		pendingRatio := float64(c.PendingReports) / float64(c.TotalReports)
		pendingFactor = 1 - pendingRatio*0.5
	}
	citizen := c.EngagementScore * pendingFactor

	return Scores{
		Authority: authority,
		Citizen:   citizen,
		Total:     authority*0.5 + citizen*0.5,
	}
}
