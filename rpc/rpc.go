package rpc

import (
	"net"
	"net/rpc"

	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/matchmaking"
	"github.com/ringline/gameserver/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Admin is the slice of the game server the RPC surface needs. It keeps
// this package from depending on the server package.
type Admin interface {
	QueueStatus(playerID string) matchmaking.Status
	QueueSize() int
	GameState(gameID string) (map[string]interface{}, error)
	ActiveGames() int
	ForceCleanup() int
}

// AdminService exposes the operational surface over net/rpc. All methods
// follow the net/rpc signature rules: exported method, exported argument
// types, pointer reply, error return.
type AdminService struct {
	admin         Admin
	playerService *services.PlayerService
}

func NewAdminService(admin Admin, ps *services.PlayerService) *AdminService {
	return &AdminService{admin: admin, playerService: ps}
}

type QueueStatusArgs struct {
	PlayerID string
}

type QueueStatusReply struct {
	Status matchmaking.Status
	Size   int
}

func (s *AdminService) QueueStatus(args *QueueStatusArgs, reply *QueueStatusReply) error {
	reply.Status = s.admin.QueueStatus(args.PlayerID)
	reply.Size = s.admin.QueueSize()
	return nil
}

type GameStateArgs struct {
	GameID string
}

type GameStateReply struct {
	State       map[string]interface{}
	ActiveGames int
}

func (s *AdminService) GameState(args *GameStateArgs, reply *GameStateReply) error {
	state, err := s.admin.GameState(args.GameID)
	if err != nil {
		return err
	}
	reply.State = state
	reply.ActiveGames = s.admin.ActiveGames()
	return nil
}

type PlayerStatsArgs struct {
	PlayerID string
}

type PlayerStatsReply struct {
	Rating      int
	PeakRating  int
	GamesPlayed int
}

func (s *AdminService) PlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	record, err := s.playerService.GetRating(args.PlayerID)
	if err != nil {
		return err
	}
	reply.Rating = record.Rating
	reply.PeakRating = record.PeakRating
	reply.GamesPlayed = record.GamesPlayed
	return nil
}

type ForceCleanupArgs struct{}

type ForceCleanupReply struct {
	Removed int
}

// ForceCleanup runs the expired-session sweep immediately.
func (s *AdminService) ForceCleanup(args *ForceCleanupArgs, reply *ForceCleanupReply) error {
	reply.Removed = s.admin.ForceCleanup()
	return nil
}
