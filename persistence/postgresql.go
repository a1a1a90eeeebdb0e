// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/ringline/gameserver/models"
)

// PostgreSQL 数据库实现 (database/sql)
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
            id SERIAL PRIMARY KEY,
            player_id VARCHAR(64) UNIQUE NOT NULL,
            display_name VARCHAR(255) NOT NULL,
            rating INT NOT NULL DEFAULT 1200,
            peak_rating INT NOT NULL DEFAULT 1200,
            games_played INT NOT NULL DEFAULT 0,
            status VARCHAR(32) NOT NULL DEFAULT 'active',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            match_id VARCHAR(64) UNIQUE NOT NULL,
            game_mode VARCHAR(100) NOT NULL,
            ranked BOOLEAN NOT NULL DEFAULT FALSE,
            winner_seat INT NOT NULL DEFAULT 0,
            ended_at TIMESTAMP,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS match_participants (
            id SERIAL PRIMARY KEY,
            match_id VARCHAR(64) NOT NULL,
            player_id VARCHAR(64) NOT NULL,
            seat INT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (match_id, seat)
        )`,
		`CREATE TABLE IF NOT EXISTS game_sessions (
            id SERIAL PRIMARY KEY,
            game_id VARCHAR(64) UNIQUE NOT NULL,
            state JSONB NOT NULL,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS rating_history (
            id SERIAL PRIMARY KEY,
            player_id VARCHAR(64) NOT NULL,
            match_id VARCHAR(64) NOT NULL,
            result VARCHAR(16) NOT NULL,
            rating_delta INT NOT NULL,
            new_rating INT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateMatch 创建对局记录（事务）
func (p *PostgreSQL) CreateMatch(match *models.Match) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO matches (match_id, game_mode, ranked, created_at) VALUES ($1, $2, $3, $4)`,
		match.ID, match.GameMode, match.Ranked, match.CreatedAt,
	)
	if err != nil {
		return err
	}

	for seat, playerID := range []string{match.Seat1ID, match.Seat2ID} {
		_, err = tx.Exec(
			`INSERT INTO match_participants (match_id, player_id, seat) VALUES ($1, $2, $3)`,
			match.ID, playerID, seat+1,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetMatch 查询对局及其参与者
func (p *PostgreSQL) GetMatch(matchID string) (*models.Match, error) {
	match := &models.Match{ID: matchID}
	var winnerSeat sql.NullInt64
	var endedAt sql.NullTime
	err := p.db.QueryRow(
		`SELECT game_mode, ranked, created_at, winner_seat, ended_at FROM matches WHERE match_id = $1`,
		matchID,
	).Scan(&match.GameMode, &match.Ranked, &match.CreatedAt, &winnerSeat, &endedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if winnerSeat.Valid {
		match.WinnerSeat = int(winnerSeat.Int64)
	}
	if endedAt.Valid {
		t := endedAt.Time
		match.EndedAt = &t
	}

	rows, err := p.db.Query(
		`SELECT player_id, seat FROM match_participants WHERE match_id = $1 ORDER BY seat`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var playerID string
		var seat int
		if err := rows.Scan(&playerID, &seat); err != nil {
			return nil, err
		}
		switch seat {
		case 1:
			match.Seat1ID = playerID
		case 2:
			match.Seat2ID = playerID
		}
	}
	return match, rows.Err()
}

// FinishMatch 写入终局字段（只写一次）
func (p *PostgreSQL) FinishMatch(matchID string, winnerSeat int, endedAt time.Time) error {
	res, err := p.db.Exec(
		`UPDATE matches SET winner_seat = $1, ended_at = $2 WHERE match_id = $3 AND ended_at IS NULL`,
		winnerSeat, endedAt, matchID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SaveSession 保存序列化的对局状态
func (p *PostgreSQL) SaveSession(gameID string, state []byte) error {
	_, err := p.db.Exec(`
        INSERT INTO game_sessions (game_id, state, updated_at)
        VALUES ($1, $2, CURRENT_TIMESTAMP)
        ON CONFLICT (game_id) DO UPDATE SET state = $2, updated_at = CURRENT_TIMESTAMP`,
		gameID, state,
	)
	return err
}

// LoadSession 加载序列化的对局状态
func (p *PostgreSQL) LoadSession(gameID string) ([]byte, error) {
	var state []byte
	err := p.db.QueryRow(`SELECT state FROM game_sessions WHERE game_id = $1`, gameID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetPlayer 查询玩家目录
func (p *PostgreSQL) GetPlayer(playerID string) (*models.Player, error) {
	var player models.Player
	err := p.db.QueryRow(
		`SELECT player_id, display_name, rating, games_played, status FROM players WHERE player_id = $1`,
		playerID,
	).Scan(&player.ID, &player.DisplayName, &player.Rating, &player.GamesPlayed, &player.Status)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetRating 查询玩家评分记录
func (p *PostgreSQL) GetRating(playerID string) (*models.RatingRecord, error) {
	var rec models.RatingRecord
	err := p.db.QueryRow(
		`SELECT player_id, rating, peak_rating, games_played FROM players WHERE player_id = $1`,
		playerID,
	).Scan(&rec.PlayerID, &rec.Rating, &rec.PeakRating, &rec.GamesPlayed)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordOutcome 记录比赛结果：流水账追加 + 当前值更新（事务）
func (p *PostgreSQL) RecordOutcome(outcome *models.Outcome, newRating int) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO rating_history (player_id, match_id, result, rating_delta, new_rating)
         VALUES ($1, $2, $3, $4, $5)`,
		outcome.PlayerID, outcome.MatchID, outcome.Result, outcome.RatingDelta, newRating,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`UPDATE players SET rating = $1,
            peak_rating = GREATEST(peak_rating, $1),
            games_played = games_played + 1,
            updated_at = CURRENT_TIMESTAMP
         WHERE player_id = $2`,
		newRating, outcome.PlayerID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
