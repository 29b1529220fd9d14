package game

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/gabo-game/gabo-server/internal/game/card"
)

// Bounds enforced by ValidateConfig.
const (
	MinPlayers        = 2
	MaxPlayers        = 6
	MinCardsPerPlayer = 2
	MaxCardsPerPlayer = 10
)

// DefaultConfig returns the house rules for the given table size. Card rules
// are left empty; effects are bound by the caller.
func DefaultConfig(players int) Config {
	return Config{
		Players:            players,
		CardsPerPlayer:     4,
		ScoreToLose:        120,
		Descents:           []Descent{{25, 50}, {50, 100}},
		FalseGaboScore:     25,
		CounterGaboScore:   50,
		CardScores:         []CardScore{},
		IsRapidGaboAllowed: true,
	}
}

// ValidateConfig reports every rule violation in cfg at once.
func ValidateConfig(cfg Config) error {
	var err error
	if cfg.Players < MinPlayers || cfg.Players > MaxPlayers {
		err = multierr.Append(err, fmt.Errorf("players must be between %d and %d, got %d", MinPlayers, MaxPlayers, cfg.Players))
	}
	if cfg.CardsPerPlayer < MinCardsPerPlayer || cfg.CardsPerPlayer > MaxCardsPerPlayer {
		err = multierr.Append(err, fmt.Errorf("cardsPerPlayer must be between %d and %d, got %d", MinCardsPerPlayer, MaxCardsPerPlayer, cfg.CardsPerPlayer))
	}
	if cfg.Players*cfg.CardsPerPlayer > card.DeckSize {
		err = multierr.Append(err, fmt.Errorf("%d players with %d cards each need more than %d cards", cfg.Players, cfg.CardsPerPlayer, card.DeckSize))
	}
	if cfg.ScoreToLose < 1 {
		err = multierr.Append(err, fmt.Errorf("scoreToLose must be at least 1, got %d", cfg.ScoreToLose))
	}
	for i, d := range cfg.Descents {
		if d[0] < 1 || d[1] < 1 {
			err = multierr.Append(err, fmt.Errorf("descent %d: cutoffs must be at least 1, got %v", i, d))
		} else if d[0] >= d[1] {
			err = multierr.Append(err, fmt.Errorf("descent %d: cutoffs must be ascending, got %v", i, d))
		}
	}
	if cfg.FalseGaboScore < 1 {
		err = multierr.Append(err, fmt.Errorf("falseGaboScore must be at least 1, got %d", cfg.FalseGaboScore))
	}
	if cfg.CounterGaboScore < 1 {
		err = multierr.Append(err, fmt.Errorf("counterGaboScore must be at least 1, got %d", cfg.CounterGaboScore))
	}
	for i, cs := range cfg.CardScores {
		if cs.Score < 0 {
			err = multierr.Append(err, fmt.Errorf("cardScores %d: score must not be negative, got %d", i, cs.Score))
		}
		if !cs.Card.Rank.Valid() {
			err = multierr.Append(err, fmt.Errorf("cardScores %d: %w", i, card.ErrUnknownRank))
		}
	}
	for i, rule := range cfg.CardRules {
		if rule.Effect == nil {
			err = multierr.Append(err, fmt.Errorf("cardRules %d (%s): effect is nil", i, rule.Card.Rank))
		}
	}
	return err
}
