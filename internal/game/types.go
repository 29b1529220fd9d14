// Package game holds the Gabo entity model and the pure lifecycle and turn engine.
//
// Every operation takes a Game value and returns a new one; the input is never
// modified. Callers must serialise mutations of a given game themselves.
package game

import (
	"fmt"
	"slices"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// State is the lifecycle state of a game.
type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateGabo     State = "gabo"
	StateFinished State = "finished"
)

func (s State) String() string { return string(s) }

// Descent is a pair of ascending score cutoffs {lower, upper}.
type Descent [2]int

// CardScore assigns points to every card of a rank.
type CardScore struct {
	Card  card.Card `json:"card"`
	Score int       `json:"score"`
}

// CardRule binds a special effect to every card of a rank.
type CardRule struct {
	Card   card.Card
	Name   string
	Effect Effect
}

// Config is the immutable rule set of a game.
type Config struct {
	Players            int         `json:"players"`
	CardsPerPlayer     int         `json:"cardsPerPlayer"`
	ScoreToLose        int         `json:"scoreToLose"`
	Descents           []Descent   `json:"descents"`
	FalseGaboScore     int         `json:"falseGaboScore"`
	CounterGaboScore   int         `json:"counterGaboScore"`
	CardScores         []CardScore `json:"cardScores"`
	CardRules          []CardRule  `json:"-"`
	IsRapidGaboAllowed bool        `json:"isRapidGaboAllowed"`
}

// RuleFor returns the effect configured for c's rank.
func (c Config) RuleFor(cd card.Card) (CardRule, bool) {
	for _, rule := range c.CardRules {
		if card.Equal(rule.Card, cd) {
			return rule, true
		}
	}
	return CardRule{}, false
}

// ScoreFor returns the configured points for c's rank, defaulting to the rank value.
func (c Config) ScoreFor(cd card.Card) int {
	for _, cs := range c.CardScores {
		if card.Equal(cs.Card, cd) {
			return cs.Score
		}
	}
	return int(cd.Rank)
}

// Game is a snapshot of one Gabo table.
type Game struct {
	Config             Config          `json:"config"`
	State              State           `json:"state"`
	Deck               card.Deck       `json:"deck"`
	Stack              card.Stack      `json:"stack"`
	Players            []player.Player `json:"players"`
	CurrentPlayerID    string          `json:"currentPlayerId,omitempty"`
	GaboPlayers        []string        `json:"gaboPlayers"`
	CounterGaboPlayers []string        `json:"counterGaboPlayers"`
}

// Clone deep-copies the game. The config is shared since it never changes.
func (g Game) Clone() Game {
	cpy := g
	cpy.Deck = g.Deck.Clone()
	cpy.Stack = g.Stack.Clone()
	if g.Players != nil {
		cpy.Players = make([]player.Player, len(g.Players))
		for i, p := range g.Players {
			cpy.Players[i] = p.Clone()
		}
	}
	cpy.GaboPlayers = slices.Clone(g.GaboPlayers)
	cpy.CounterGaboPlayers = slices.Clone(g.CounterGaboPlayers)
	return cpy
}

// Result is the outcome of a lifecycle or turn operation.
type Result = outcome.Outcome[Game, *ActionFailure]

// Target locates the mat card an effect acts on.
type Target struct {
	PlayerID string `json:"playerId"`
	MatIndex int    `json:"matIndex"`
}

// NoMatIndex marks a caster that did not pick a card of their own.
const NoMatIndex = -1

// Caster locates the player invoking an effect and, optionally, one of their cards.
type Caster struct {
	PlayerID string `json:"playerId"`
	MatIndex int    `json:"matIndex"`
}

// CasterWithoutCard builds a caster that has not selected a mat card.
func CasterWithoutCard(playerID string) Caster {
	return Caster{PlayerID: playerID, MatIndex: NoMatIndex}
}

// HasMatIndex reports whether the caster selected a mat card.
func (c Caster) HasMatIndex() bool { return c.MatIndex != NoMatIndex }

// Effect is a special-card rule.
type Effect func(g Game, target Target, caster Caster) Step

// Step is what an effect returns: a ResultStep or a DecisionStep.
type Step interface {
	isStep()
}

// ResultStep is terminal. Revealed is set when the effect showed a card to the caster.
type ResultStep struct {
	Result   Result
	Revealed *card.Card
}

// Resume continues a suspended effect with the player's choice. matIndex is
// ignored when doExchange is false; pass NoMatIndex when no card was picked.
type Resume func(doExchange bool, matIndex int) Step

// DecisionStep suspends an effect until the caster decides. Resume must be
// called at most once.
type DecisionStep struct {
	Card   card.Card
	Resume Resume
}

func (ResultStep) isStep()   {}
func (DecisionStep) isStep() {}

// Terminal unwraps a step that must be terminal.
func Terminal(s Step) (ResultStep, error) {
	switch step := s.(type) {
	case ResultStep:
		return step, nil
	case DecisionStep:
		return ResultStep{}, fmt.Errorf("effect is waiting for a decision on %s", step.Card)
	default:
		return ResultStep{}, fmt.Errorf("unknown step type %T", s)
	}
}
