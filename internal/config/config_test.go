package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/effects"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTP.Address)
	assert.Equal(t, ":9090", cfg.Server.GRPC.Address)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Game.CardsPerPlayer)
	assert.Equal(t, [][]int{{25, 50}, {50, 100}}, cfg.Game.Descents)
	assert.False(t, cfg.Replay.Enabled)

	rules, err := cfg.Game.Rules(4)
	require.NoError(t, err)
	assert.Len(t, rules.CardRules, len(effects.DefaultRules()))
	assert.True(t, rules.IsRapidGaboAllowed)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Game.ScoreToLose)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    address: ":7000"
  session_ttl: 1h
logging:
  format: json
game:
  cards_per_player: 6
  card_scores:
    King: 0
  card_effects:
    Queen: none
    Ace: lookup_own
replay:
  enabled: true
  directory: /tmp/gabo-replays
`)
	t.Setenv("GABO_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.HTTP.Address)
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Replay.Enabled)

	rules, err := cfg.Game.Rules(3)
	require.NoError(t, err)
	assert.Equal(t, 3, rules.Players)
	assert.Equal(t, 6, rules.CardsPerPlayer)
	assert.Equal(t, 0, rules.ScoreFor(card.New(card.King, card.Spades)))

	ace, ok := rules.RuleFor(card.New(card.Ace, card.Clubs))
	require.True(t, ok)
	assert.Equal(t, effects.NameLookupOwn, ace.Name)
	_, ok = rules.RuleFor(card.New(card.Queen, card.Clubs))
	assert.False(t, ok, "queen effect was switched off")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: xml
game:
  score_to_lose: 0
  card_effects:
    Joker: exchange
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format must be json or console")
	assert.Contains(t, err.Error(), "unknown card rank")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestRulesValidatesTableSize(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	_, err = cfg.Game.Rules(7)
	assert.ErrorContains(t, err, "players must be between 2 and 6")

	cfg.Game.CardEffects = map[string]string{"Jack": "teleport"}
	_, err = cfg.Game.Rules(2)
	assert.ErrorContains(t, err, `unknown card effect "teleport"`)

	cfg.Game.Descents = [][]int{{10}}
	_, err = cfg.Game.Rules(2)
	assert.ErrorContains(t, err, "expected two cutoffs")
}
