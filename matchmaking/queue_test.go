package matchmaking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ringline/gameserver/config"
	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/models"
	"github.com/ringline/gameserver/timer"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

// fakeDirectory serves canned player records.
type fakeDirectory struct {
	players map[string]*models.Player
}

func (d *fakeDirectory) GetPlayer(playerID string) (*models.Player, error) {
	p, ok := d.players[playerID]
	if !ok {
		return nil, errors.New("player not found")
	}
	return p, nil
}

// fakeStore fails CreateMatch a configured number of times.
type fakeStore struct {
	mu       sync.Mutex
	failures int
	created  []*models.Match
}

func (s *fakeStore) CreateMatch(match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("persistence failure")
	}
	s.created = append(s.created, match)
	return nil
}

// recordingListener captures queue events.
type recordingListener struct {
	mu       sync.Mutex
	formed   []*models.Match
	timeouts []string
	failed   []string
}

func (l *recordingListener) OnMatchFormed(match *models.Match, p1, p2 *models.Player) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formed = append(l.formed, match)
}

func (l *recordingListener) OnQueueTimeout(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeouts = append(l.timeouts, playerID)
}

func (l *recordingListener) OnMatchFailed(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed = append(l.failed, playerID)
}

func testConfig() config.MatchmakingConfig {
	return config.MatchmakingConfig{
		WidenInterval:  30 * time.Second,
		WidenStep:      50,
		InitialRadius:  100,
		MaxRadius:      500,
		QueueTimeout:   5 * time.Minute,
		MinRankedGames: 10,
	}
}

func activePlayer(id string, rating, games int) *models.Player {
	return &models.Player{
		ID:          id,
		DisplayName: id,
		Rating:      rating,
		GamesPlayed: games,
		Status:      models.PlayerStatusActive,
	}
}

type fixture struct {
	queue    *Queue
	store    *fakeStore
	listener *recordingListener
	timers   *timer.Manager
}

func newFixture(t *testing.T, cfg config.MatchmakingConfig, players ...*models.Player) *fixture {
	t.Helper()
	dir := &fakeDirectory{players: make(map[string]*models.Player)}
	for _, p := range players {
		dir.players[p.ID] = p
	}
	store := &fakeStore{}
	listener := &recordingListener{}
	timers := timer.NewManager()
	t.Cleanup(timers.Stop)
	return &fixture{
		queue:    NewQueue(cfg, store, dir, timers, listener),
		store:    store,
		listener: listener,
		timers:   timers,
	}
}

func TestJoin_ImmediateMatch(t *testing.T) {
	casual := models.Preferences{GameMode: "standard"}
	f := newFixture(t, testConfig(),
		activePlayer("p1", 1200, 20),
		activePlayer("p2", 1250, 25),
	)

	if err := f.queue.Join("p1", casual); err != nil {
		t.Fatalf("join p1: %v", err)
	}
	if err := f.queue.Join("p2", casual); err != nil {
		t.Fatalf("join p2: %v", err)
	}

	// Ratings 1200/1250 within the initial radius of 100: immediate match.
	if len(f.listener.formed) != 1 {
		t.Fatalf("expected 1 match formed, got %d", len(f.listener.formed))
	}
	match := f.listener.formed[0]
	if match.SeatOf("p1") == 0 || match.SeatOf("p2") == 0 {
		t.Errorf("match missing a participant: %+v", match)
	}
	if f.queue.Size() != 0 {
		t.Errorf("expected empty queue after match, size=%d", f.queue.Size())
	}
	if len(f.store.created) != 1 {
		t.Errorf("expected 1 persisted match, got %d", len(f.store.created))
	}
}

func TestJoin_AlreadyQueued(t *testing.T) {
	f := newFixture(t, testConfig(), activePlayer("p1", 1200, 20))
	prefs := models.Preferences{GameMode: "standard"}

	if err := f.queue.Join("p1", prefs); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p1", prefs); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
}

func TestJoin_RankedRequiresExperience(t *testing.T) {
	f := newFixture(t, testConfig(), activePlayer("rookie", 1200, 3))
	err := f.queue.Join("rookie", models.Preferences{Ranked: true, GameMode: "standard"})
	if !errors.Is(err, ErrInsufficientExperience) {
		t.Fatalf("expected ErrInsufficientExperience, got %v", err)
	}

	// Unranked join is fine regardless of experience.
	if err := f.queue.Join("rookie", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatalf("unranked join should succeed: %v", err)
	}
}

func TestJoin_RejectsInactivePlayer(t *testing.T) {
	suspended := activePlayer("banned", 1200, 20)
	suspended.Status = models.PlayerStatusSuspended
	f := newFixture(t, testConfig(), suspended)

	err := f.queue.Join("banned", models.Preferences{GameMode: "standard"})
	if !errors.Is(err, ErrPlayerUnavailable) {
		t.Fatalf("expected ErrPlayerUnavailable, got %v", err)
	}
}

func TestLeave_Idempotent(t *testing.T) {
	f := newFixture(t, testConfig(), activePlayer("p1", 1200, 20))
	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatal(err)
	}
	if !f.queue.Leave("p1") {
		t.Error("expected Leave to report presence")
	}
	if f.queue.Leave("p1") {
		t.Error("second Leave should report absence")
	}
	if f.queue.Leave("never-queued") {
		t.Error("Leave of unknown player should report absence")
	}
}

func TestRankedAndModeGatePairing(t *testing.T) {
	f := newFixture(t, testConfig(),
		activePlayer("p1", 1200, 20),
		activePlayer("p2", 1200, 20),
		activePlayer("p3", 1200, 20),
	)

	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard", Ranked: true}); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p2", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p3", models.Preferences{GameMode: "blitz"}); err != nil {
		t.Fatal(err)
	}

	if len(f.listener.formed) != 0 {
		t.Fatalf("mismatched preferences must not pair, got %d matches", len(f.listener.formed))
	}
	if f.queue.Size() != 3 {
		t.Errorf("expected 3 waiting entries, got %d", f.queue.Size())
	}
}

func TestSpectatorPreferenceDoesNotBlockPairing(t *testing.T) {
	f := newFixture(t, testConfig(),
		activePlayer("p1", 1200, 20),
		activePlayer("p2", 1250, 20),
	)

	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard", AllowSpectators: true}); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p2", models.Preferences{GameMode: "standard", AllowSpectators: false}); err != nil {
		t.Fatal(err)
	}

	if len(f.listener.formed) != 1 {
		t.Fatalf("same mode within radius must pair regardless of the spectator flag, got %d matches", len(f.listener.formed))
	}
}

func TestRadiusGatesEligibility(t *testing.T) {
	f := newFixture(t, testConfig(),
		activePlayer("low", 1000, 20),
		activePlayer("high", 1400, 20),
	)
	prefs := models.Preferences{GameMode: "standard"}

	if err := f.queue.Join("low", prefs); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("high", prefs); err != nil {
		t.Fatal(err)
	}
	if len(f.listener.formed) != 0 {
		t.Fatal("400-point gap must not match at radius 100")
	}

	// Widening one entry past the gap is enough: eligibility uses the
	// larger of the two radii.
	for i := 0; i < 6; i++ {
		f.queue.widen("low")
	}
	if len(f.listener.formed) != 1 {
		t.Fatalf("expected match after widening, got %d", len(f.listener.formed))
	}
}

func TestWideningStepAndCap(t *testing.T) {
	f := newFixture(t, testConfig(), activePlayer("p1", 1200, 20))
	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatal(err)
	}

	if got := f.queue.Status("p1").Radius; got != 100 {
		t.Fatalf("expected initial radius 100, got %d", got)
	}

	f.queue.widen("p1")
	if got := f.queue.Status("p1").Radius; got != 150 {
		t.Errorf("expected radius 150 after one widening, got %d", got)
	}

	for i := 0; i < 20; i++ {
		f.queue.widen("p1")
	}
	if got := f.queue.Status("p1").Radius; got != 500 {
		t.Errorf("expected radius capped at 500, got %d", got)
	}
}

func TestQueueTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.QueueTimeout = 1 * time.Nanosecond
	f := newFixture(t, cfg, activePlayer("p1", 1200, 20))

	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	f.queue.widen("p1")

	if f.queue.Size() != 0 {
		t.Error("timed-out entry should be removed")
	}
	if len(f.listener.timeouts) != 1 || f.listener.timeouts[0] != "p1" {
		t.Errorf("expected timeout event for p1, got %v", f.listener.timeouts)
	}
}

func TestOpponentScoringPrefersCloserRating(t *testing.T) {
	// far and near are 145 apart so they cannot pair with each other
	// before the seeker arrives.
	f := newFixture(t, testConfig(),
		activePlayer("far", 1295, 20),
		activePlayer("near", 1150, 20),
		activePlayer("seeker", 1200, 20),
	)
	prefs := models.Preferences{GameMode: "standard"}

	if err := f.queue.Join("far", prefs); err != nil {
		t.Fatal(err)
	}
	// Delay so "far" would win a pure queued-time tie-break.
	time.Sleep(5 * time.Millisecond)
	if err := f.queue.Join("near", prefs); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("seeker", prefs); err != nil {
		t.Fatal(err)
	}

	if len(f.listener.formed) != 1 {
		t.Fatalf("expected 1 match, got %d", len(f.listener.formed))
	}
	match := f.listener.formed[0]
	if match.SeatOf("near") == 0 || match.SeatOf("seeker") == 0 {
		t.Errorf("expected seeker to pair with the closer-rated opponent, got %s vs %s",
			match.Seat1ID, match.Seat2ID)
	}
}

func TestMatchFailureRestoresBothEntries(t *testing.T) {
	f := newFixture(t, testConfig(),
		activePlayer("p1", 1200, 20),
		activePlayer("p2", 1220, 20),
	)
	f.store.failures = 2 // initial attempt and the retry both fail
	prefs := models.Preferences{GameMode: "standard"}

	if err := f.queue.Join("p1", prefs); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p2", prefs); err != nil {
		t.Fatal(err)
	}

	if len(f.listener.formed) != 0 {
		t.Fatal("no match should form when persistence fails twice")
	}
	if f.queue.Size() != 2 {
		t.Fatalf("both entries must be restored, size=%d", f.queue.Size())
	}
	if len(f.listener.failed) != 2 {
		t.Errorf("expected 2 match-failed events, got %d", len(f.listener.failed))
	}
	// Players remain matchable: the next attempt succeeds.
	f.queue.tryMatch("p1")
	if len(f.listener.formed) != 1 {
		t.Errorf("restored entries should match once persistence recovers")
	}
}

func TestMatchPersistenceRetriesOnce(t *testing.T) {
	f := newFixture(t, testConfig(),
		activePlayer("p1", 1200, 20),
		activePlayer("p2", 1220, 20),
	)
	f.store.failures = 1 // first write fails, the retry succeeds
	prefs := models.Preferences{GameMode: "standard"}

	if err := f.queue.Join("p1", prefs); err != nil {
		t.Fatal(err)
	}
	if err := f.queue.Join("p2", prefs); err != nil {
		t.Fatal(err)
	}

	if len(f.listener.formed) != 1 {
		t.Fatalf("expected match after retry, got %d", len(f.listener.formed))
	}
	if len(f.listener.failed) != 0 {
		t.Errorf("no failure events expected when the retry succeeds, got %v", f.listener.failed)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, testConfig(), activePlayer("p1", 1200, 20))

	if st := f.queue.Status("p1"); st.InQueue {
		t.Error("unqueued player must not report in-queue")
	}

	if err := f.queue.Join("p1", models.Preferences{GameMode: "standard"}); err != nil {
		t.Fatal(err)
	}
	st := f.queue.Status("p1")
	if !st.InQueue {
		t.Error("queued player must report in-queue")
	}
	if st.Radius != 100 {
		t.Errorf("expected radius 100, got %d", st.Radius)
	}
	if st.EstimatedWait <= 0 {
		t.Errorf("expected positive wait estimate, got %v", st.EstimatedWait)
	}
}
