package reputation

// Scoring weights and caps. Likes are uncapped; the other signals
// saturate so no single dimension dominates forever.
const (
	likeWeight      = 3
	friendWeight    = 2
	friendCap       = 20
	portfolioWeight = 5
	portfolioCap    = 10
	tenureCapWeeks  = 10
	levelDivisor    = 10
)

// Signals are the raw inputs of a reputation score.
type Signals struct {
	Likes     int64
	Friends   int64
	Portfolio int64
	AgeDays   int64
}

// Score computes reputation points from signals. Deterministic and pure,
// so cached points can always be rebuilt.
func Score(sig Signals) int {
	points := int(sig.Likes) * likeWeight
	points += int(min64(sig.Friends, friendCap)) * friendWeight
	points += int(min64(sig.Portfolio, portfolioCap)) * portfolioWeight
	points += int(min64(sig.AgeDays/7, tenureCapWeeks))
	return points
}

// Level derives the display level from points.
func Level(points int) int {
	return points / levelDivisor
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
