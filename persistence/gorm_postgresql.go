// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ringline/gameserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormPlayer{},
		&models.GormMatch{},
		&models.GormMatchParticipant{},
		&models.GormGameSession{},
		&models.GormRatingHistory{},
	)
}

// CreateMatch 创建对局及双方参与者（单一事务）
func (g *GormPostgreSQL) CreateMatch(match *models.Match) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormMatch{
			MatchID:  match.ID,
			GameMode: match.GameMode,
			Ranked:   match.Ranked,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		participants := []models.GormMatchParticipant{
			{MatchID: match.ID, PlayerID: match.Seat1ID, Seat: 1},
			{MatchID: match.ID, PlayerID: match.Seat2ID, Seat: 2},
		}
		return tx.Create(&participants).Error
	})
}

// GetMatch 查询对局及其参与者
func (g *GormPostgreSQL) GetMatch(matchID string) (*models.Match, error) {
	var row models.GormMatch
	if err := g.db.Where("match_id = ?", matchID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var participants []models.GormMatchParticipant
	if err := g.db.Where("match_id = ?", matchID).Order("seat").Find(&participants).Error; err != nil {
		return nil, err
	}

	match := &models.Match{
		ID:         row.MatchID,
		GameMode:   row.GameMode,
		Ranked:     row.Ranked,
		CreatedAt:  row.CreatedAt,
		WinnerSeat: row.WinnerSeat,
		EndedAt:    row.EndedAt,
	}
	for _, p := range participants {
		switch p.Seat {
		case 1:
			match.Seat1ID = p.PlayerID
		case 2:
			match.Seat2ID = p.PlayerID
		}
	}
	return match, nil
}

// FinishMatch 写入终局字段
func (g *GormPostgreSQL) FinishMatch(matchID string, winnerSeat int, endedAt time.Time) error {
	res := g.db.Model(&models.GormMatch{}).
		Where("match_id = ? AND ended_at IS NULL", matchID).
		Updates(map[string]interface{}{
			"winner_seat": winnerSeat,
			"ended_at":    endedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SaveSession 保存序列化的对局状态
func (g *GormPostgreSQL) SaveSession(gameID string, state []byte) error {
	var row models.GormGameSession
	err := g.db.Where("game_id = ?", gameID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.GormGameSession{GameID: gameID, State: state}
		return g.db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.State = state
	return g.db.Save(&row).Error
}

// LoadSession 加载序列化的对局状态
func (g *GormPostgreSQL) LoadSession(gameID string) ([]byte, error) {
	var row models.GormGameSession
	if err := g.db.Where("game_id = ?", gameID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return row.State, nil
}

// GetPlayer 查询玩家目录
func (g *GormPostgreSQL) GetPlayer(playerID string) (*models.Player, error) {
	var row models.GormPlayer
	if err := g.db.Where("player_id = ?", playerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &models.Player{
		ID:          row.PlayerID,
		DisplayName: row.DisplayName,
		Rating:      row.Rating,
		GamesPlayed: row.GamesPlayed,
		Status:      models.PlayerStatus(row.Status),
	}, nil
}

// GetRating 查询玩家评分记录
func (g *GormPostgreSQL) GetRating(playerID string) (*models.RatingRecord, error) {
	var row models.GormPlayer
	if err := g.db.Where("player_id = ?", playerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &models.RatingRecord{
		PlayerID:    row.PlayerID,
		Rating:      row.Rating,
		PeakRating:  row.PeakRating,
		GamesPlayed: row.GamesPlayed,
	}, nil
}

// RecordOutcome 记录比赛结果：流水账追加 + 当前值更新（事务）
func (g *GormPostgreSQL) RecordOutcome(outcome *models.Outcome, newRating int) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		history := models.GormRatingHistory{
			PlayerID:    outcome.PlayerID,
			MatchID:     outcome.MatchID,
			Result:      outcome.Result,
			RatingDelta: outcome.RatingDelta,
			NewRating:   newRating,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		return tx.Model(&models.GormPlayer{}).
			Where("player_id = ?", outcome.PlayerID).
			Updates(map[string]interface{}{
				"rating":       newRating,
				"peak_rating":  gorm.Expr("GREATEST(peak_rating, ?)", newRating),
				"games_played": gorm.Expr("games_played + 1"),
			}).Error
	})
}

// Close 关闭数据库连接
func (g *GormPostgreSQL) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
