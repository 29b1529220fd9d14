// Package config loads the server configuration from YAML, GABO_ environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/effects"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

// ServerConfig configures the listeners and session housekeeping.
type ServerConfig struct {
	HTTP            HTTPConfig    `mapstructure:"http"`
	GRPC            GRPCConfig    `mapstructure:"grpc"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// HTTPConfig configures the HTTP and WebSocket listener.
type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// GRPCConfig configures the admin gRPC listener.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig is the default rule set for new games. Ranks are keyed by name
// ("Ace", "2", ... "King"); an effect of "none" removes a default rule.
type GameConfig struct {
	CardsPerPlayer   int               `mapstructure:"cards_per_player"`
	ScoreToLose      int               `mapstructure:"score_to_lose"`
	Descents         [][]int           `mapstructure:"descents"`
	FalseGaboScore   int               `mapstructure:"false_gabo_score"`
	CounterGaboScore int               `mapstructure:"counter_gabo_score"`
	RapidGabo        bool              `mapstructure:"rapid_gabo"`
	CardScores       map[string]int    `mapstructure:"card_scores"`
	CardEffects      map[string]string `mapstructure:"card_effects"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.address", ":8080")
	v.SetDefault("server.http.read_timeout", 15*time.Second)
	v.SetDefault("server.http.write_timeout", 10*time.Second)
	v.SetDefault("server.http.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.http.allowed_origins", []string{"*"})
	v.SetDefault("server.grpc.address", ":9090")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.cleanup_interval", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	defaults := game.DefaultConfig(game.MaxPlayers)
	descents := make([][]int, len(defaults.Descents))
	for i, d := range defaults.Descents {
		descents[i] = []int{d[0], d[1]}
	}
	v.SetDefault("game.cards_per_player", defaults.CardsPerPlayer)
	v.SetDefault("game.score_to_lose", defaults.ScoreToLose)
	v.SetDefault("game.descents", descents)
	v.SetDefault("game.false_gabo_score", defaults.FalseGaboScore)
	v.SetDefault("game.counter_gabo_score", defaults.CounterGaboScore)
	v.SetDefault("game.rapid_gabo", defaults.IsRapidGaboAllowed)
	v.SetDefault("game.card_scores", map[string]int{})
	effectsByRank := map[string]string{}
	for _, rule := range effects.DefaultRules() {
		effectsByRank[rule.Card.Rank.String()] = rule.Name
	}
	v.SetDefault("game.card_effects", effectsByRank)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")
}

// Load reads path (optional; an empty path or a missing file uses defaults)
// and applies GABO_ environment overrides such as GABO_SERVER_HTTP_ADDRESS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GABO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings that do not depend on a table size.
func (c *Config) Validate() error {
	var err error
	if c.Server.HTTP.Address == "" {
		err = multierr.Append(err, errors.New("server.http.address is required"))
	}
	if c.Server.SessionTTL <= 0 {
		err = multierr.Append(err, errors.New("server.session_ttl must be positive"))
	}
	if c.Server.CleanupInterval <= 0 {
		err = multierr.Append(err, errors.New("server.cleanup_interval must be positive"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Replay.Enabled && c.Replay.Directory == "" {
		err = multierr.Append(err, errors.New("replay.directory is required when replays are enabled"))
	}
	if _, gameErr := c.Game.Rules(game.MinPlayers); gameErr != nil {
		err = multierr.Append(err, gameErr)
	}
	return err
}

// Rules turns the game section into a validated rule set for a table of players.
func (g GameConfig) Rules(players int) (game.Config, error) {
	cfg := game.Config{
		Players:            players,
		CardsPerPlayer:     g.CardsPerPlayer,
		ScoreToLose:        g.ScoreToLose,
		FalseGaboScore:     g.FalseGaboScore,
		CounterGaboScore:   g.CounterGaboScore,
		IsRapidGaboAllowed: g.RapidGabo,
		Descents:           make([]game.Descent, 0, len(g.Descents)),
		CardScores:         make([]game.CardScore, 0, len(g.CardScores)),
	}

	var err error
	for i, d := range g.Descents {
		if len(d) != 2 {
			err = multierr.Append(err, fmt.Errorf("game.descents %d: expected two cutoffs, got %d", i, len(d)))
			continue
		}
		cfg.Descents = append(cfg.Descents, game.Descent{d[0], d[1]})
	}
	for _, name := range sortedKeys(g.CardScores) {
		rank, rankErr := card.ParseRank(name)
		if rankErr != nil {
			err = multierr.Append(err, fmt.Errorf("game.card_scores %q: %w", name, rankErr))
			continue
		}
		cfg.CardScores = append(cfg.CardScores, game.CardScore{Card: card.New(rank, card.Hearts), Score: g.CardScores[name]})
	}
	for _, name := range sortedKeys(g.CardEffects) {
		if effect := g.CardEffects[name]; effect == "" || effect == "none" {
			continue
		}
		rank, rankErr := card.ParseRank(name)
		if rankErr != nil {
			err = multierr.Append(err, fmt.Errorf("game.card_effects %q: %w", name, rankErr))
			continue
		}
		rule, ruleErr := effects.Rule(rank, g.CardEffects[name])
		if ruleErr != nil {
			err = multierr.Append(err, fmt.Errorf("game.card_effects %q: %w", name, ruleErr))
			continue
		}
		cfg.CardRules = append(cfg.CardRules, rule)
	}
	if err != nil {
		return game.Config{}, err
	}
	if err := game.ValidateConfig(cfg); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
