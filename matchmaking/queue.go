// matchmaking/queue.go
package matchmaking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ringline/gameserver/config"
	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/models"
	"github.com/ringline/gameserver/timer"
)

var (
	ErrAlreadyQueued          = errors.New("player already queued")
	ErrInsufficientExperience = errors.New("not enough games played for ranked queue")
	ErrPlayerUnavailable      = errors.New("player is not active")
)

// entry is one player's pending matchmaking request. It never leaves this
// package; Status exposes a read-only snapshot.
type entry struct {
	playerID    string
	displayName string
	rating      int
	gamesPlayed int
	joinedAt    time.Time
	prefs       models.Preferences
	radius      int
	widenCount  int
	timerID     int64
}

// Status is the queue snapshot returned to callers.
type Status struct {
	InQueue       bool          `json:"in_queue"`
	QueuedFor     time.Duration `json:"queued_for"`
	Radius        int           `json:"radius"`
	EstimatedWait time.Duration `json:"estimated_wait"`
}

// Directory is the player-lookup collaborator.
type Directory interface {
	GetPlayer(playerID string) (*models.Player, error)
}

// MatchStore persists formed matches.
type MatchStore interface {
	CreateMatch(match *models.Match) error
}

// Listener receives queue lifecycle events. Match formation, queue timeout
// and recoverable match failure are events, not errors.
type Listener interface {
	OnMatchFormed(match *models.Match, player1, player2 *models.Player)
	OnQueueTimeout(playerID string)
	OnMatchFailed(playerID string)
}

// Queue owns the pool of waiting players. All access to the pool goes
// through its methods; the pool mutex is held for every mutation and the
// persistence write never happens while holding it.
type Queue struct {
	mu       sync.Mutex
	entries  map[string]*entry
	order    []string // playerIDs by join time, oldest first
	timers   *timer.Manager
	cfg      config.MatchmakingConfig
	store    MatchStore
	dir      Directory
	listener Listener
}

func NewQueue(cfg config.MatchmakingConfig, store MatchStore, dir Directory, timers *timer.Manager, listener Listener) *Queue {
	return &Queue{
		entries:  make(map[string]*entry),
		timers:   timers,
		cfg:      cfg,
		store:    store,
		dir:      dir,
		listener: listener,
	}
}

// Join registers a player in the queue and immediately attempts a match.
// A repeating widening timer is tied to the entry until leave, match or
// timeout.
func (q *Queue) Join(playerID string, prefs models.Preferences) error {
	player, err := q.dir.GetPlayer(playerID)
	if err != nil {
		return fmt.Errorf("lookup player: %w", err)
	}
	if player.Status != models.PlayerStatusActive {
		return ErrPlayerUnavailable
	}
	if prefs.Ranked && player.GamesPlayed < q.cfg.MinRankedGames {
		return ErrInsufficientExperience
	}

	q.mu.Lock()
	if _, exists := q.entries[playerID]; exists {
		q.mu.Unlock()
		return ErrAlreadyQueued
	}

	e := &entry{
		playerID:    playerID,
		displayName: player.DisplayName,
		rating:      player.Rating,
		gamesPlayed: player.GamesPlayed,
		joinedAt:    time.Now(),
		prefs:       prefs,
		radius:      q.cfg.InitialRadius,
	}
	e.timerID = q.timers.Add(q.cfg.WidenInterval, q.cfg.WidenInterval, func() {
		q.widen(playerID)
	})
	q.entries[playerID] = e
	q.order = append(q.order, playerID)
	q.mu.Unlock()

	logger.Log.Infof("Player %s joined queue (rating=%d ranked=%v mode=%s)",
		playerID, player.Rating, prefs.Ranked, prefs.GameMode)

	q.tryMatch(playerID)
	return nil
}

// Leave removes a player's entry and cancels its widening timer.
// Idempotent; returns whether an entry was present.
func (q *Queue) Leave(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(playerID)
}

// Status reports the queue state for one player.
func (q *Queue) Status(playerID string) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, exists := q.entries[playerID]
	if !exists {
		return Status{}
	}
	return Status{
		InQueue:       true,
		QueuedFor:     time.Since(e.joinedAt),
		Radius:        e.radius,
		EstimatedWait: q.estimateWaitLocked(e),
	}
}

// Size returns the number of waiting entries.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// widen is the per-entry timer callback: grow the search radius, enforce
// the queue timeout, then retry matching.
func (q *Queue) widen(playerID string) {
	q.mu.Lock()
	e, exists := q.entries[playerID]
	if !exists {
		q.mu.Unlock()
		return
	}

	if time.Since(e.joinedAt) > q.cfg.QueueTimeout {
		q.removeLocked(playerID)
		q.mu.Unlock()
		logger.Log.Infof("Player %s timed out of queue after %v", playerID, q.cfg.QueueTimeout)
		q.listener.OnQueueTimeout(playerID)
		return
	}

	e.radius += q.cfg.WidenStep
	if e.radius > q.cfg.MaxRadius {
		e.radius = q.cfg.MaxRadius
	}
	e.widenCount++
	q.mu.Unlock()

	q.tryMatch(playerID)
}

// tryMatch searches for the best eligible opponent for playerID. Both
// entries are removed from the pool before the persistence write; a failed
// write restores them so no player is ever lost from the pool.
func (q *Queue) tryMatch(playerID string) {
	q.mu.Lock()
	e, exists := q.entries[playerID]
	if !exists {
		q.mu.Unlock()
		return
	}

	opponent := q.findOpponentLocked(e)
	if opponent == nil {
		q.mu.Unlock()
		return
	}

	// Atomic with respect to the pool: neither player can be matched
	// again once we release the lock.
	q.removeLocked(e.playerID)
	q.removeLocked(opponent.playerID)
	q.mu.Unlock()

	match := &models.Match{
		ID:        uuid.New().String(),
		Seat1ID:   e.playerID,
		Seat2ID:   opponent.playerID,
		GameMode:  e.prefs.GameMode,
		Ranked:    e.prefs.Ranked,
		CreatedAt: time.Now(),
	}

	err := q.store.CreateMatch(match)
	if err != nil {
		logger.Log.Warnf("Match persistence failed, retrying once: %v", err)
		err = q.store.CreateMatch(match)
	}
	if err != nil {
		logger.Log.Errorf("Match persistence failed twice, restoring queue entries: %v", err)
		q.mu.Lock()
		q.restoreLocked(e)
		q.restoreLocked(opponent)
		q.mu.Unlock()
		q.listener.OnMatchFailed(e.playerID)
		q.listener.OnMatchFailed(opponent.playerID)
		return
	}

	logger.Log.Infof("Match %s formed: %s vs %s (ratings %d/%d)",
		match.ID, e.playerID, opponent.playerID, e.rating, opponent.rating)

	q.listener.OnMatchFormed(match,
		&models.Player{ID: e.playerID, DisplayName: e.displayName, Rating: e.rating, GamesPlayed: e.gamesPlayed},
		&models.Player{ID: opponent.playerID, DisplayName: opponent.displayName, Rating: opponent.rating, GamesPlayed: opponent.gamesPlayed},
	)
}

// findOpponentLocked scores every eligible opponent and returns the best.
// The scan follows join order, so a score tie resolves to the player who
// enqueued first.
func (q *Queue) findOpponentLocked(e *entry) *entry {
	var best *entry
	var bestScore float64

	for _, id := range q.order {
		cand, exists := q.entries[id]
		if !exists || cand.playerID == e.playerID {
			continue
		}
		// Eligibility is the ranked flag and the game mode; the
		// spectator preference does not gate pairing.
		if cand.prefs.Ranked != e.prefs.Ranked || cand.prefs.GameMode != e.prefs.GameMode {
			continue
		}
		ratingDiff := abs(e.rating - cand.rating)
		maxRadius := e.radius
		if cand.radius > maxRadius {
			maxRadius = cand.radius
		}
		if ratingDiff > maxRadius {
			continue
		}

		expDiff := abs(e.gamesPlayed - cand.gamesPlayed)
		queued := time.Since(cand.joinedAt).Seconds()
		score := float64(1000-ratingDiff) + 0.5*queued + 0.3*float64(1000-expDiff)

		if best == nil || score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return best
}

// estimateWaitLocked guesses the remaining wait from how much widening
// headroom is left. Purely advisory.
func (q *Queue) estimateWaitLocked(e *entry) time.Duration {
	if len(q.entries) > 1 {
		return q.cfg.WidenInterval
	}
	steps := (q.cfg.MaxRadius - e.radius) / q.cfg.WidenStep
	if steps < 1 {
		steps = 1
	}
	return time.Duration(steps) * q.cfg.WidenInterval
}

func (q *Queue) removeLocked(playerID string) bool {
	e, exists := q.entries[playerID]
	if !exists {
		return false
	}
	q.timers.Remove(e.timerID)
	delete(q.entries, playerID)
	for i, id := range q.order {
		if id == playerID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// restoreLocked puts an entry back after a failed match formation, keeping
// its original join time and radius so the player's queue status shows no
// flicker.
func (q *Queue) restoreLocked(e *entry) {
	e.timerID = q.timers.Add(q.cfg.WidenInterval, q.cfg.WidenInterval, func() {
		q.widen(e.playerID)
	})
	q.entries[e.playerID] = e

	// Re-insert by join time to keep the tie-break stable.
	pos := len(q.order)
	for i, id := range q.order {
		if other, ok := q.entries[id]; ok && e.joinedAt.Before(other.joinedAt) {
			pos = i
			break
		}
	}
	q.order = append(q.order[:pos], append([]string{e.playerID}, q.order[pos:]...)...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
