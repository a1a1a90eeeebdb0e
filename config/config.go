package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Matchmaking MatchmakingConfig `mapstructure:"matchmaking"`
	Game        GameConfig        `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	MetricsAddress    string        `mapstructure:"metrics_address"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type MatchmakingConfig struct {
	WidenInterval  time.Duration `mapstructure:"widen_interval"`
	WidenStep      int           `mapstructure:"widen_step"`
	InitialRadius  int           `mapstructure:"initial_radius"`
	MaxRadius      int           `mapstructure:"max_radius"`
	QueueTimeout   time.Duration `mapstructure:"queue_timeout"`
	MinRankedGames int           `mapstructure:"min_ranked_games"`
}

type GameConfig struct {
	MoveMinInterval   time.Duration `mapstructure:"move_min_interval"`
	ReconnectTimeout  time.Duration `mapstructure:"reconnect_timeout"`
	SessionExpiry     time.Duration `mapstructure:"session_expiry"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	AllowSpectators   bool          `mapstructure:"allow_spectators"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.heartbeat_interval", 30*time.Second)
	viper.SetDefault("matchmaking.widen_interval", 30*time.Second)
	viper.SetDefault("matchmaking.widen_step", 50)
	viper.SetDefault("matchmaking.initial_radius", 100)
	viper.SetDefault("matchmaking.max_radius", 500)
	viper.SetDefault("matchmaking.queue_timeout", 5*time.Minute)
	viper.SetDefault("matchmaking.min_ranked_games", 10)
	viper.SetDefault("game.move_min_interval", 500*time.Millisecond)
	viper.SetDefault("game.reconnect_timeout", 2*time.Minute)
	viper.SetDefault("game.session_expiry", 30*time.Minute)
	viper.SetDefault("game.cleanup_interval", time.Minute)
	viper.SetDefault("game.allow_spectators", true)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
