// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormPlayer 玩家目录模型
type GormPlayer struct {
	gorm.Model
	PlayerID    string `gorm:"uniqueIndex;not null"`
	DisplayName string `gorm:"not null"`
	Rating      int    `gorm:"default:1200"`
	PeakRating  int    `gorm:"default:1200"`
	GamesPlayed int    `gorm:"default:0"`
	Status      string `gorm:"default:'active'"`
}

// GormMatch 对局记录模型
type GormMatch struct {
	gorm.Model
	MatchID    string `gorm:"uniqueIndex;not null"`
	GameMode   string `gorm:"not null"`
	Ranked     bool   `gorm:"default:false"`
	WinnerSeat int    `gorm:"default:0"`
	EndedAt    *time.Time
}

// GormMatchParticipant 对局参与者模型
// A match row never exists without both participant rows; the two inserts
// and the match insert commit in one transaction.
type GormMatchParticipant struct {
	gorm.Model
	MatchID  string `gorm:"index;not null;uniqueIndex:idx_match_seat,priority:1"`
	PlayerID string `gorm:"index;not null"`
	Seat     int    `gorm:"not null;uniqueIndex:idx_match_seat,priority:2"`
}

// GormGameSession 序列化的对局状态，用于崩溃恢复
type GormGameSession struct {
	gorm.Model
	GameID string `gorm:"uniqueIndex;not null"`
	State  []byte `gorm:"type:jsonb;not null"`
}

// GormRatingHistory 评分流水账（只追加）
type GormRatingHistory struct {
	gorm.Model
	PlayerID    string `gorm:"index;not null"`
	MatchID     string `gorm:"index;not null"`
	Result      string `gorm:"not null"`
	RatingDelta int    `gorm:"not null"`
	NewRating   int    `gorm:"not null"`
}
