package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ringline/gameserver/broadcast"
	"github.com/ringline/gameserver/config"
	"github.com/ringline/gameserver/game"
	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/matchmaking"
	"github.com/ringline/gameserver/models"
	"github.com/ringline/gameserver/monitor"
	"github.com/ringline/gameserver/network"
	"github.com/ringline/gameserver/persistence"
	"github.com/ringline/gameserver/room"
	gameserver_rpc "github.com/ringline/gameserver/rpc"
	"github.com/ringline/gameserver/services"
	"github.com/ringline/gameserver/session"
	"github.com/ringline/gameserver/timer"
)

var ErrGameNotFound = errors.New("game not found")

// gameEntry is the server-side registration of one live (or recoverable)
// game: the rules state, the persisted match record, and the reconnection
// timers for disconnected seats. entry.mu serializes every mutation of the
// rules state for that game.
type gameEntry struct {
	mu        sync.Mutex
	match     *models.Match
	sess      *game.Session
	settled   bool
	reconnect map[string]int64 // playerID -> pending forfeit timer
}

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	playerService  *services.PlayerService
	outcomes       *services.OutcomeService
	store          persistence.Store
	queue          *matchmaking.Queue
	timers         *timer.Manager
	mon            *monitor.Monitor
	rpcServer      *gameserver_rpc.Server

	mu    sync.Mutex
	games map[string]*gameEntry

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, store persistence.Store, engine *services.OutcomeService) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewManager(),
		sessionManager: session.NewManager(),
		playerService:  services.NewPlayerService(store),
		outcomes:       engine,
		store:          store,
		timers:         timer.NewManager(),
		mon:            monitor.NewMonitor("ringline"),
		games:          make(map[string]*gameEntry),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.queue = matchmaking.NewQueue(cfg.Matchmaking, store, s.playerService, s.timers, s)

	rpcServer, err := gameserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(gameserver_rpc.NewAdminService(s, s.playerService))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.mon.StartServer(s.cfg.Server.MetricsAddress)

	hb := s.cfg.Server.HeartbeatInterval
	s.timers.Add(hb, hb, s.sweepDeadSessions)
	cleanup := s.cfg.Game.CleanupInterval
	s.timers.Add(cleanup, cleanup, func() { s.ForceCleanup() })

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.cfg.Server.HeartbeatInterval)

	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		wsConn.Close()
		s.mon.DecOnlinePlayers()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Heartbeat()
	case network.MsgTypeJoinQueue:
		s.handleJoinQueue(sess, packet)
	case network.MsgTypeLeaveQueue:
		s.handleLeaveQueue(sess)
	case network.MsgTypeQueueStatus:
		s.handleQueueStatus(sess)
	case network.MsgTypeJoinGame:
		s.handleJoinGame(sess, packet)
	case network.MsgTypeLeaveGame:
		s.handleLeaveGame(sess)
	case network.MsgTypeMove:
		s.handleMove(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// sendError delivers a structured rejection to the requesting connection
// only. Internal identifiers never leave the server.
func (s *GameServer) sendError(sess *session.Session, code, message string, constraints []string) {
	data, _ := json.Marshal(network.ErrorPayload{
		Code:        code,
		Message:     message,
		Constraints: constraints,
	})
	sess.Send(network.MsgTypeError, data)
}

// bindPlayer ties the connection to a player id on first use. A bound
// connection never switches identity.
func (s *GameServer) bindPlayer(sess *session.Session, playerID string) bool {
	if !sess.BindPlayer(playerID) {
		s.sendError(sess, "NotAuthorized", "connection is bound to another player", nil)
		return false
	}
	return true
}

func (s *GameServer) handleJoinQueue(sess *session.Session, packet *network.Packet) {
	req, err := network.DecodeJoinQueue(packet.Data)
	if err != nil {
		var verr *network.ValidationError
		if errors.As(err, &verr) {
			s.sendError(sess, "ValidationError", "malformed queue request", verr.Fields)
			return
		}
		s.sendError(sess, "ValidationError", "malformed queue request", nil)
		return
	}
	if !s.bindPlayer(sess, req.PlayerID) {
		return
	}

	if err := s.queue.Join(req.PlayerID, req.Preferences); err != nil {
		switch {
		case errors.Is(err, matchmaking.ErrAlreadyQueued):
			s.sendError(sess, "AlreadyQueued", "already waiting in the queue", nil)
		case errors.Is(err, matchmaking.ErrInsufficientExperience):
			s.sendError(sess, "InsufficientExperience", "not enough games played for ranked", nil)
		case errors.Is(err, matchmaking.ErrPlayerUnavailable), errors.Is(err, services.ErrPlayerInactive):
			s.sendError(sess, "NotAuthorized", "player may not queue", nil)
		case errors.Is(err, services.ErrPlayerNotFound):
			s.sendError(sess, "NotFound", "unknown player", nil)
		default:
			logger.Log.Errorf("Queue join failed for %s: %v", req.PlayerID, err)
			s.sendError(sess, "PersistenceFailure", "queue join failed, try again", nil)
		}
		return
	}

	s.mon.SetQueueDepth(s.queue.Size())
	s.sendQueueStatus(sess)
}

func (s *GameServer) handleLeaveQueue(sess *session.Session) {
	if sess.PlayerID() == "" {
		s.sendError(sess, "NotAuthorized", "connection is not bound to a player", nil)
		return
	}
	s.queue.Leave(sess.PlayerID())
	s.mon.SetQueueDepth(s.queue.Size())
	s.sendQueueStatus(sess)
}

func (s *GameServer) handleQueueStatus(sess *session.Session) {
	if sess.PlayerID() == "" {
		s.sendError(sess, "NotAuthorized", "connection is not bound to a player", nil)
		return
	}
	s.sendQueueStatus(sess)
}

func (s *GameServer) sendQueueStatus(sess *session.Session) {
	data, _ := json.Marshal(s.queue.Status(sess.PlayerID()))
	sess.Send(network.MsgTypeQueueStatus, data)
}

type roomNotice struct {
	PlayerID  string `json:"player_id,omitempty"`
	Spectator bool   `json:"spectator"`
}

func (s *GameServer) handleJoinGame(sess *session.Session, packet *network.Packet) {
	req, err := network.DecodeJoinGame(packet.Data)
	if err != nil {
		var verr *network.ValidationError
		if errors.As(err, &verr) {
			s.sendError(sess, "ValidationError", "malformed join request", verr.Fields)
			return
		}
		s.sendError(sess, "ValidationError", "malformed join request", nil)
		return
	}
	if req.PlayerID != "" && !s.bindPlayer(sess, req.PlayerID) {
		return
	}

	entry := s.getGame(req.GameID)
	if entry == nil {
		entry, err = s.recoverGame(req.GameID)
		if err != nil {
			s.sendError(sess, "NotFound", "unknown game", nil)
			return
		}
	}

	playerID := sess.PlayerID()
	seat := 0
	if playerID != "" {
		seat = entry.match.SeatOf(playerID)
	}
	if seat == 0 && !s.cfg.Game.AllowSpectators {
		s.sendError(sess, "NotAuthorized", "spectating is not allowed", nil)
		return
	}

	if cur := sess.GameID(); cur != "" && cur != req.GameID {
		s.detachFromRoom(sess)
	}

	// Join notice goes to the connections already in the room, before the
	// new one is admitted.
	notice, _ := json.Marshal(roomNotice{PlayerID: playerID, Spectator: seat == 0})
	s.broadcaster.BroadcastToRoom(req.GameID, network.MsgTypePlayerJoined, notice)

	r := s.roomManager.GetOrCreate(req.GameID)
	sess.SetGame(req.GameID, seat == 0)
	if seat == 0 {
		r.AddSpectator(sess)
	} else {
		r.AddPlayer(sess)
		entry.mu.Lock()
		if id, ok := entry.reconnect[playerID]; ok {
			s.timers.Remove(id)
			delete(entry.reconnect, playerID)
			logger.Log.Infof("Player %s reconnected to game %s", playerID, req.GameID)
		}
		entry.mu.Unlock()
	}
	s.mon.SetActiveRooms(s.roomManager.Count())

	entry.mu.Lock()
	view, _ := json.Marshal(entry.sess.View(playerID))
	if r.CachedState() == nil {
		neutral, _ := json.Marshal(entry.sess.View(""))
		r.SetCachedState(neutral)
	}
	entry.mu.Unlock()
	sess.Send(network.MsgTypeGameState, view)

	logger.Log.Infof("Session %s joined game %s (seat %d)", sess.GetID(), req.GameID, seat)
}

func (s *GameServer) handleLeaveGame(sess *session.Session) {
	if sess.GameID() == "" {
		s.sendError(sess, "NotFound", "connection is not in a game", nil)
		return
	}
	s.detachFromRoom(sess)
}

type movePayload struct {
	PlayerID string    `json:"player_id"`
	Seat     int       `json:"seat"`
	Move     game.Move `json:"move"`
}

type gameEndPayload struct {
	GameID     string `json:"game_id"`
	WinnerSeat int    `json:"winner_seat"`
	WinnerID   string `json:"winner_id,omitempty"`
	Draw       bool   `json:"draw,omitempty"`
}

func (s *GameServer) handleMove(sess *session.Session, packet *network.Packet) {
	req, err := network.DecodeMove(packet.Data)
	if err != nil {
		var verr *network.ValidationError
		if errors.As(err, &verr) {
			s.sendError(sess, "ValidationError", "malformed move request", verr.Fields)
			return
		}
		s.sendError(sess, "ValidationError", "malformed move request", nil)
		return
	}

	playerID, gameID := sess.PlayerID(), sess.GameID()
	if playerID == "" || gameID == "" || sess.Spectator() {
		s.sendError(sess, "NotAuthorized", "connection holds no seat in a game", nil)
		return
	}
	if req.GameID != gameID {
		s.sendError(sess, "NotFound", "connection is not in that game", nil)
		return
	}

	// The rate limit is checked before the engine is touched; a throttled
	// move does not advance the player's window.
	if !sess.AllowMove(s.cfg.Game.MoveMinInterval) {
		s.sendError(sess, "RateLimited", "moves are limited to one per interval", nil)
		return
	}

	entry := s.getGame(gameID)
	if entry == nil {
		s.sendError(sess, "NotFound", "unknown game", nil)
		return
	}

	start := time.Now()
	entry.mu.Lock()
	if err := entry.sess.ApplyMove(playerID, req.Move); err != nil {
		entry.mu.Unlock()
		var illegal *game.IllegalMoveError
		switch {
		case errors.As(err, &illegal):
			constraints := make([]string, len(illegal.Violations))
			for i, v := range illegal.Violations {
				constraints[i] = string(v)
			}
			s.sendError(sess, "IllegalMove", "move rejected", constraints)
		case errors.Is(err, game.ErrNotParticipant):
			s.sendError(sess, "NotAuthorized", "no seat in this game", nil)
		default:
			s.sendError(sess, "IllegalMove", "move rejected", nil)
		}
		return
	}

	state, serr := entry.sess.Serialize()
	finished := entry.sess.Finished()
	views := s.buildViewsLocked(gameID, entry.sess)
	moveData, _ := json.Marshal(movePayload{
		PlayerID: playerID,
		Seat:     entry.sess.SeatOf(playerID),
		Move:     req.Move,
	})
	var endData []byte
	doSettle := false
	if finished {
		endData = s.buildEndPayloadLocked(entry)
		doSettle = s.markSettledLocked(entry)
	}
	entry.mu.Unlock()

	s.mon.IncMovesApplied()
	s.mon.ObserveMoveLatency(time.Since(start))

	s.sendViews(views)
	s.broadcaster.BroadcastToRoom(gameID, network.MsgTypeGameMove, moveData)

	if serr != nil {
		logger.Log.Errorf("Serialize game %s: %v", gameID, serr)
	} else if err := s.store.SaveSession(gameID, state); err != nil {
		logger.Log.Warnf("Snapshot game %s: %v", gameID, err)
	}

	if finished {
		s.broadcaster.BroadcastToRoom(gameID, network.MsgTypeGameEnd, endData)
		if doSettle {
			if err := s.outcomes.SettleMatch(entry.match, entry.sess); err != nil {
				logger.Log.Errorf("Settle match %s: %v", entry.match.ID, err)
			}
		}
	}
}

// targetedView pairs a prebuilt state payload with its recipient, so the
// per-seat views can be built under the entry lock and sent after it.
type targetedView struct {
	sess *session.Session
	data []byte
}

// buildViewsLocked renders the state for every connection in the room and
// refreshes the room's cached (spectator) state. Caller holds entry.mu.
func (s *GameServer) buildViewsLocked(gameID string, gs *game.Session) []targetedView {
	r, ok := s.roomManager.Get(gameID)
	if !ok {
		return nil
	}
	neutral, _ := json.Marshal(gs.View(""))
	r.SetCachedState(neutral)

	sessions := r.Sessions()
	views := make([]targetedView, 0, len(sessions))
	for _, member := range sessions {
		data, _ := json.Marshal(gs.View(member.PlayerID()))
		views = append(views, targetedView{sess: member, data: data})
	}
	return views
}

func (s *GameServer) sendViews(views []targetedView) {
	for _, v := range views {
		if err := v.sess.Send(network.MsgTypeGameState, v.data); err != nil {
			v.sess.MarkDead()
		}
	}
}

// buildEndPayloadLocked renders the terminal event. Caller holds entry.mu.
func (s *GameServer) buildEndPayloadLocked(entry *gameEntry) []byte {
	payload := gameEndPayload{
		GameID:     entry.sess.GameID,
		WinnerSeat: entry.sess.Winner,
		Draw:       entry.sess.Draw,
	}
	if entry.sess.Winner > 0 {
		payload.WinnerID = entry.sess.Players[entry.sess.Winner-1]
	}
	data, _ := json.Marshal(payload)
	return data
}

// markSettledLocked claims the single settlement for a finished game and
// cancels any pending forfeit timers. Caller holds entry.mu.
func (s *GameServer) markSettledLocked(entry *gameEntry) bool {
	for pid, id := range entry.reconnect {
		s.timers.Remove(id)
		delete(entry.reconnect, pid)
	}
	if entry.settled {
		return false
	}
	entry.settled = true
	return true
}

// detachFromRoom removes the connection from its room, notifies the rest
// of the room, tears the room down if it emptied, and arms the forfeit
// timer for a seated player who has no other live connection.
func (s *GameServer) detachFromRoom(sess *session.Session) {
	gameID, wasSpectator := sess.LeaveGame()
	if gameID == "" {
		return
	}
	playerID := sess.PlayerID()

	r, ok := s.roomManager.Get(gameID)
	if ok {
		r.Remove(sess.GetID())
		notice, _ := json.Marshal(roomNotice{PlayerID: playerID, Spectator: wasSpectator})
		s.broadcaster.BroadcastToRoom(gameID, network.MsgTypePlayerLeft, notice)
		s.roomManager.RemoveIfEmpty(gameID)
		s.mon.SetActiveRooms(s.roomManager.Count())
	}

	if wasSpectator {
		return
	}

	entry := s.getGame(gameID)
	if entry == nil {
		return
	}

	entry.mu.Lock()
	finished := entry.sess.Finished()
	stillConnected := ok && r.HasPlayer(playerID)
	if !finished && !stillConnected {
		// Each disconnect resets the reconnection window.
		if old, exists := entry.reconnect[playerID]; exists {
			s.timers.Remove(old)
		}
		entry.reconnect[playerID] = s.timers.Add(s.cfg.Game.ReconnectTimeout, 0, func() {
			s.reconnectExpired(gameID, playerID)
		})
		logger.Log.Infof("Player %s disconnected from game %s, forfeit in %s",
			playerID, gameID, s.cfg.Game.ReconnectTimeout)
	}
	entry.mu.Unlock()

	if finished {
		s.dropGameIfRoomGone(gameID)
	}
}

// reconnectExpired force-forfeits a seat whose player never came back
// within the reconnection window.
func (s *GameServer) reconnectExpired(gameID, playerID string) {
	entry := s.getGame(gameID)
	if entry == nil {
		return
	}

	entry.mu.Lock()
	delete(entry.reconnect, playerID)
	if entry.sess.Finished() {
		entry.mu.Unlock()
		return
	}
	if r, ok := s.roomManager.Get(gameID); ok && r.HasPlayer(playerID) {
		// Raced with a rejoin; the seat is live again.
		entry.mu.Unlock()
		return
	}
	if err := entry.sess.Forfeit(playerID); err != nil {
		entry.mu.Unlock()
		logger.Log.Errorf("Forfeit for %s in game %s: %v", playerID, gameID, err)
		return
	}
	logger.Log.Infof("Player %s never reconnected, game %s forfeited", playerID, gameID)

	state, serr := entry.sess.Serialize()
	views := s.buildViewsLocked(gameID, entry.sess)
	endData := s.buildEndPayloadLocked(entry)
	doSettle := s.markSettledLocked(entry)
	entry.mu.Unlock()

	s.sendViews(views)
	s.broadcaster.BroadcastToRoom(gameID, network.MsgTypeGameEnd, endData)

	if serr == nil {
		if err := s.store.SaveSession(gameID, state); err != nil {
			logger.Log.Warnf("Snapshot game %s: %v", gameID, err)
		}
	}
	if doSettle {
		if err := s.outcomes.SettleMatch(entry.match, entry.sess); err != nil {
			logger.Log.Errorf("Settle match %s: %v", entry.match.ID, err)
		}
	}
}

func (s *GameServer) handleDisconnect(sess *session.Session) {
	s.sessionManager.Remove(sess.GetID())
	if sess.GameID() != "" {
		s.detachFromRoom(sess)
	}
	if sess.PlayerID() != "" {
		if s.queue.Leave(sess.PlayerID()) {
			s.mon.SetQueueDepth(s.queue.Size())
		}
	}
}

// sweepDeadSessions closes every connection that missed its heartbeat
// window. Closing the transport makes the read loop exit, which runs the
// normal disconnect path.
func (s *GameServer) sweepDeadSessions() {
	for _, sess := range s.sessionManager.All() {
		if sess.Alive(s.cfg.Server.HeartbeatInterval) {
			continue
		}
		logger.Log.Warnf("Session %s missed heartbeat, evicting", sess.GetID())
		sess.MarkDead()
		sess.Close()
	}
}

func (s *GameServer) getGame(gameID string) *gameEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[gameID]
}

// recoverGame rebuilds a game entry from the persisted snapshot and match
// record, for a rejoin after the in-memory entry is gone.
func (s *GameServer) recoverGame(gameID string) (*gameEntry, error) {
	state, err := s.store.LoadSession(gameID)
	if err != nil {
		return nil, err
	}
	gs, err := game.Restore(state)
	if err != nil {
		return nil, err
	}
	match, err := s.store.GetMatch(gameID)
	if err != nil {
		return nil, err
	}

	entry := &gameEntry{
		match:     match,
		sess:      gs,
		settled:   match.EndedAt != nil,
		reconnect: make(map[string]int64),
	}

	s.mu.Lock()
	if existing, ok := s.games[gameID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.games[gameID] = entry
	active := len(s.games)
	s.mu.Unlock()

	s.mon.SetActiveGames(active)
	logger.Log.Infof("Recovered game %s from persistence", gameID)
	return entry, nil
}

func (s *GameServer) dropGameIfRoomGone(gameID string) {
	if _, ok := s.roomManager.Get(gameID); ok {
		return
	}
	s.mu.Lock()
	delete(s.games, gameID)
	active := len(s.games)
	s.mu.Unlock()
	s.mon.SetActiveGames(active)
}

type matchFoundPayload struct {
	GameID         string `json:"game_id"`
	YourSeat       int    `json:"your_seat"`
	OpponentID     string `json:"opponent_id"`
	OpponentName   string `json:"opponent_name"`
	OpponentRating int    `json:"opponent_rating"`
	GameMode       string `json:"game_mode"`
	Ranked         bool   `json:"ranked"`
}

// OnMatchFormed registers the new game and tells both players where to go.
func (s *GameServer) OnMatchFormed(match *models.Match, player1, player2 *models.Player) {
	gs := game.NewSession(match.ID, match.Seat1ID, match.Seat2ID)
	entry := &gameEntry{
		match:     match,
		sess:      gs,
		reconnect: make(map[string]int64),
	}

	s.mu.Lock()
	s.games[match.ID] = entry
	active := len(s.games)
	s.mu.Unlock()

	s.mon.IncMatchesFormed()
	s.mon.SetActiveGames(active)
	s.mon.SetQueueDepth(s.queue.Size())

	// Initial snapshot so the game survives a crash before the first move.
	if state, err := gs.Serialize(); err == nil {
		if err := s.store.SaveSession(match.ID, state); err != nil {
			logger.Log.Warnf("Snapshot new game %s: %v", match.ID, err)
		}
	}

	notify := func(self, opponent *models.Player) {
		data, _ := json.Marshal(matchFoundPayload{
			GameID:         match.ID,
			YourSeat:       match.SeatOf(self.ID),
			OpponentID:     opponent.ID,
			OpponentName:   opponent.DisplayName,
			OpponentRating: opponent.Rating,
			GameMode:       match.GameMode,
			Ranked:         match.Ranked,
		})
		s.broadcaster.BroadcastToPlayer(self.ID, network.MsgTypeMatchFound, data)
	}
	notify(player1, player2)
	notify(player2, player1)

	logger.Log.Infof("Match %s formed: %s vs %s", match.ID, match.Seat1ID, match.Seat2ID)
}

type queueEventPayload struct {
	Event string `json:"event"`
}

// OnQueueTimeout tells the player their queue entry expired.
func (s *GameServer) OnQueueTimeout(playerID string) {
	data, _ := json.Marshal(queueEventPayload{Event: "timeout"})
	s.broadcaster.BroadcastToPlayer(playerID, network.MsgTypeQueueEvent, data)
	s.mon.SetQueueDepth(s.queue.Size())
}

// OnMatchFailed tells the player a match attempt fell through; their queue
// entry is untouched.
func (s *GameServer) OnMatchFailed(playerID string) {
	data, _ := json.Marshal(queueEventPayload{Event: "match_failed"})
	s.broadcaster.BroadcastToPlayer(playerID, network.MsgTypeQueueEvent, data)
}

// QueueStatus is part of the RPC admin surface.
func (s *GameServer) QueueStatus(playerID string) matchmaking.Status {
	return s.queue.Status(playerID)
}

// QueueSize is part of the RPC admin surface.
func (s *GameServer) QueueSize() int {
	return s.queue.Size()
}

// GameState is part of the RPC admin surface.
func (s *GameServer) GameState(gameID string) (map[string]interface{}, error) {
	entry := s.getGame(gameID)
	if entry == nil {
		return nil, ErrGameNotFound
	}
	entry.mu.Lock()
	data, err := entry.sess.Serialize()
	entry.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var state map[string]interface{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// ActiveGames is part of the RPC admin surface.
func (s *GameServer) ActiveGames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// ForceCleanup drops every game with no move inside the expiry window,
// along with its room. Runs on the cleanup timer and on admin request.
func (s *GameServer) ForceCleanup() int {
	s.mu.Lock()
	entries := make(map[string]*gameEntry, len(s.games))
	for id, e := range s.games {
		entries[id] = e
	}
	s.mu.Unlock()

	removed := 0
	for id, e := range entries {
		e.mu.Lock()
		expired := e.sess.Expired(s.cfg.Game.SessionExpiry)
		if expired {
			for pid, tid := range e.reconnect {
				s.timers.Remove(tid)
				delete(e.reconnect, pid)
			}
		}
		e.mu.Unlock()
		if !expired {
			continue
		}

		s.roomManager.Remove(id)
		s.mu.Lock()
		delete(s.games, id)
		active := len(s.games)
		s.mu.Unlock()

		s.mon.SetActiveGames(active)
		removed++
		logger.Log.Infof("Cleaned up expired game %s", id)
	}
	if removed > 0 {
		s.mon.SetActiveRooms(s.roomManager.Count())
	}
	return removed
}
