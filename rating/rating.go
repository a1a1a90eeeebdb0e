// rating/rating.go
package rating

import "math"

// Result values for CalculateNewRatings, from seat 1's perspective.
const (
	ResultWin  = 1.0
	ResultDraw = 0.5
	ResultLoss = 0.0
)

// Engine computes Elo rating deltas from a match outcome. It holds no
// state beyond its K-factor schedule.
type Engine struct {
	defaultKFactor float64
}

// NewEngine creates a rating engine with the default K-factor of 32.
func NewEngine() *Engine {
	return &Engine{defaultKFactor: 32}
}

// KFactor returns the K-factor for a player by games played. New players
// converge faster, established players stay stable.
func (e *Engine) KFactor(gamesPlayed int) float64 {
	if gamesPlayed < 10 {
		return 40.0
	} else if gamesPlayed < 20 {
		return 32.0
	}
	return 24.0
}

// ExpectedScore is the probability that a player rated ratingA beats one
// rated ratingB.
func (e *Engine) ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// CalculateNewRatings computes both players' post-match ratings.
// result is seat 1's score: 1 win, 0.5 draw, 0 loss. Each player's delta
// is governed only by their own K-factor and expected score, so the two
// never move in the same direction for a decisive result.
func (e *Engine) CalculateNewRatings(rating1, rating2, games1, games2 int, result float64) (new1, new2, delta1, delta2 int) {
	expected1 := e.ExpectedScore(rating1, rating2)
	expected2 := 1.0 - expected1

	k1 := e.KFactor(games1)
	k2 := e.KFactor(games2)

	new1 = int(math.Round(float64(rating1) + k1*(result-expected1)))
	new2 = int(math.Round(float64(rating2) + k2*((1.0-result)-expected2)))

	delta1 = new1 - rating1
	delta2 = new2 - rating2
	return
}
