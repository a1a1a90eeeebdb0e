// persistence/interface.go
package persistence

import (
	"fmt"
	"time"

	"github.com/ringline/gameserver/models"
)

// Store 数据库接口
// CreateMatch must commit the match row and both participant rows in one
// transaction: a match row never exists with only one participant row.
type Store interface {
	CreateMatch(match *models.Match) error
	GetMatch(matchID string) (*models.Match, error)
	FinishMatch(matchID string, winnerSeat int, endedAt time.Time) error
	SaveSession(gameID string, state []byte) error
	LoadSession(gameID string) ([]byte, error)
	GetPlayer(playerID string) (*models.Player, error)
	GetRating(playerID string) (*models.RatingRecord, error)
	RecordOutcome(outcome *models.Outcome, newRating int) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
