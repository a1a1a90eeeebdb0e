// services/outcome_service.go
package services

import (
	"fmt"
	"time"

	"github.com/ringline/gameserver/game"
	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/models"
	"github.com/ringline/gameserver/persistence"
	"github.com/ringline/gameserver/rating"
)

// OutcomeService settles a finished match: terminal fields on the match
// row, rating deltas for both players, and the history ledger entries.
type OutcomeService struct {
	store  persistence.Store
	rating *rating.Engine
}

func NewOutcomeService(store persistence.Store, engine *rating.Engine) *OutcomeService {
	return &OutcomeService{store: store, rating: engine}
}

// SettleMatch records the terminal state of a session and, for ranked
// matches, applies rating changes. Unranked matches get zero-delta ledger
// entries so games played still advances. Called exactly once per match
// by the sync layer when the session reaches a terminal state.
func (s *OutcomeService) SettleMatch(match *models.Match, sess *game.Session) error {
	endedAt := time.Now()
	if err := s.store.FinishMatch(match.ID, sess.Winner, endedAt); err != nil {
		return fmt.Errorf("finish match %s: %w", match.ID, err)
	}

	// Archive the final session state for later review/recovery.
	if state, err := sess.Serialize(); err == nil {
		if err := s.store.SaveSession(sess.GameID, state); err != nil {
			logger.Log.Warnf("Failed to archive finished session %s: %v", sess.GameID, err)
		}
	}

	score1 := rating.ResultDraw
	switch sess.Winner {
	case 1:
		score1 = rating.ResultWin
	case 2:
		score1 = rating.ResultLoss
	}

	rec1, err := s.store.GetRating(match.Seat1ID)
	if err != nil {
		return fmt.Errorf("load rating %s: %w", match.Seat1ID, err)
	}
	rec2, err := s.store.GetRating(match.Seat2ID)
	if err != nil {
		return fmt.Errorf("load rating %s: %w", match.Seat2ID, err)
	}

	// Unranked matches still count toward experience: the outcome is
	// recorded with a zero delta so games-played advances without moving
	// the rating.
	new1, new2 := rec1.Rating, rec2.Rating
	delta1, delta2 := 0, 0
	if match.Ranked {
		new1, new2, delta1, delta2 = s.rating.CalculateNewRatings(
			rec1.Rating, rec2.Rating, rec1.GamesPlayed, rec2.GamesPlayed, score1)
	}

	outcomes := []struct {
		playerID  string
		result    string
		delta     int
		newRating int
		score     float64
	}{
		{match.Seat1ID, resultName(score1), delta1, new1, score1},
		{match.Seat2ID, resultName(1 - score1), delta2, new2, 1 - score1},
	}
	for _, o := range outcomes {
		outcome := &models.Outcome{
			PlayerID:    o.playerID,
			MatchID:     match.ID,
			Result:      o.result,
			RatingDelta: o.delta,
			Score:       o.score,
		}
		if err := s.store.RecordOutcome(outcome, o.newRating); err != nil {
			// Retry once; rating writes are idempotent per ledger row
			// only if they land, so surface a double failure.
			logger.Log.Warnf("RecordOutcome for %s failed, retrying: %v", o.playerID, err)
			if err := s.store.RecordOutcome(outcome, o.newRating); err != nil {
				return fmt.Errorf("record outcome for %s: %w", o.playerID, err)
			}
		}
	}

	logger.Log.Infof("Match %s settled: winner seat %d, deltas %+d/%+d",
		match.ID, sess.Winner, delta1, delta2)
	return nil
}

func resultName(score float64) string {
	switch score {
	case rating.ResultWin:
		return "win"
	case rating.ResultLoss:
		return "lose"
	}
	return "draw"
}
