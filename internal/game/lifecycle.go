package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// CreateGame validates cfg and returns an empty game in the waiting state.
func CreateGame(cfg Config) outcome.Outcome[Game, error] {
	if err := ValidateConfig(cfg); err != nil {
		return outcome.Failure[Game](fmt.Errorf("invalid game configuration: %w", err))
	}
	return outcome.Success[Game, error](Game{
		Config:             cfg,
		State:              StateWaiting,
		Deck:               card.Deck{},
		Stack:              card.NewStack(),
		Players:            []player.Player{},
		GaboPlayers:        []string{},
		CounterGaboPlayers: []string{},
	})
}

// CreatePlayer builds a player ready to be seated.
func CreatePlayer(id, name string) player.Player {
	return player.New(id, name)
}

// AddPlayer seats p at the end of the turn order.
func AddPlayer(g Game, p player.Player) Result {
	return outcome.Validate(IsInState(g, StateWaiting)).
		Check(func(g Game) Result {
			if len(g.Players) >= g.Config.Players {
				return failed(Fail(KindMaxPlayersExceeded, g,
					"Cannot add more players. Maximum players allowed: %d.", g.Config.Players))
			}
			return succeeded(g)
		}).
		Check(func(g Game) Result {
			if PlayerIndex(g, p.ID).IsSuccess() {
				return failed(Fail(KindPlayerAlreadyExists, g,
					"Player with ID %s already exists in the game.", p.ID))
			}
			return succeeded(g)
		}).
		Check(func(g Game) Result {
			next := g.Clone()
			next.Players = append(next.Players, p.Clone())
			return succeeded(next)
		}).
		Result()
}

// RemovePlayer unseats playerID.
func RemovePlayer(g Game, playerID string) Result {
	return outcome.Validate(IsInState(g, StateWaiting)).
		Check(func(g Game) Result {
			return outcome.FlatMap(PlayerIndex(g, playerID), func(i int) Result {
				next := g.Clone()
				next.Players = append(next.Players[:i], next.Players[i+1:]...)
				return succeeded(next)
			})
		}).
		Result()
}

// Initialize gives the game a freshly shuffled deck and an empty stack.
func Initialize(g Game) Result {
	return InitializeWithRand(g, nil)
}

// InitializeWithRand is Initialize with an explicit random source. A nil rng
// uses the package-level source.
func InitializeWithRand(g Game, rng *rand.Rand) Result {
	return outcome.Validate(IsInState(g, StateWaiting)).
		Check(func(g Game) Result {
			if len(g.Players) == 0 {
				return failed(Fail(KindNotEnoughPlayers, g, "Cannot initialize game with no players."))
			}
			next := g.Clone()
			next.Deck = card.Shuffle(card.NewOrderedDeck(), rng)
			next.Stack = card.NewStack()
			return succeeded(next)
		}).
		Result()
}

// DistributeCards deals cardsPerPlayer cards to each player from the deck,
// one player at a time in turn order. Existing mats are replaced.
func DistributeCards(g Game) Result {
	return outcome.Validate(IsInState(g, StateWaiting)).
		Check(func(g Game) Result {
			if len(g.Players) == 0 {
				return failed(Fail(KindNotEnoughPlayers, g, "Cannot distribute cards when there are no players."))
			}
			if len(g.Deck) == 0 {
				return failed(Fail(KindEmptyDeck, g, "Cannot distribute cards when the deck is empty."))
			}
			if len(g.Deck) < len(g.Players)*g.Config.CardsPerPlayer {
				return failed(Fail(KindInsufficientCards, g,
					"Not enough cards in the deck to distribute %d cards to each of the %d players.",
					g.Config.CardsPerPlayer, len(g.Players)))
			}
			return succeeded(g)
		}).
		Check(deal).
		Result()
}

func deal(g Game) Result {
	next := g.Clone()
	for i := range next.Players {
		next.Players[i].CardMat = player.Mat{}
		for range next.Config.CardsPerPlayer {
			drawn := card.Draw(next.Deck)
			if drawn.IsFailure() {
				return failed(Fail(KindInsufficientCards, next, "Deck ran out of cards while distributing."))
			}
			next.Players[i] = player.AddCard(next.Players[i], drawn.Value().Card)
			next.Deck = drawn.Value().Deck
		}
	}
	return succeeded(next)
}

// Start moves the table to playing and gives the turn to the first player.
// Config.Players is the seat limit; any table of at least MinPlayers may start.
func Start(g Game) Result {
	return outcome.Validate(IsInState(g, StateWaiting)).
		Check(func(g Game) Result {
			if len(g.Players) < MinPlayers || len(g.Players) > g.Config.Players {
				return failed(Fail(KindWrongPlayerCount, g,
					"Cannot start game. Expected between %d and %d players, but found %d.",
					MinPlayers, g.Config.Players, len(g.Players)))
			}
			next := g.Clone()
			next.State = StatePlaying
			next.CurrentPlayerID = next.Players[0].ID
			return succeeded(next)
		}).
		Result()
}
