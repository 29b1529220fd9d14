package game

import (
	"slices"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// SetCurrentPlayerToNextPlayer passes the turn to the next player in seat
// order, wrapping around. It is never called implicitly by other operations.
func SetCurrentPlayerToNextPlayer(g Game) Result {
	return outcome.Validate(IsInState(g, StatePlaying)).
		Check(advanceTurn).
		Result()
}

func advanceTurn(g Game) Result {
	if g.CurrentPlayerID == "" {
		return failed(Fail(KindNoCurrentPlayer, g, "No current player set. Cannot determine next player."))
	}
	return outcome.FlatMap(PlayerIndex(g, g.CurrentPlayerID), func(i int) Result {
		next := g.Clone()
		next.CurrentPlayerID = next.Players[(i+1)%len(next.Players)].ID
		return succeeded(next)
	})
}

// Drawn is the game after a deck draw and the card now held by the player.
type Drawn struct {
	Game Game
	Card card.Card
}

// turnGuard checks the common preconditions of an in-turn action.
func turnGuard(g Game, playerID string, states ...State) outcome.Outcome[int, *ActionFailure] {
	checked := outcome.Validate(IsInState(g, states...)).
		Check(func(g Game) Result { return requireCurrentPlayer(g, playerID) }).
		Result()
	return outcome.FlatMap(checked, func(g Game) outcome.Outcome[int, *ActionFailure] {
		return PlayerIndex(g, playerID)
	})
}

// DrawFromDeck moves the top deck card into the current player's hand.
func DrawFromDeck(g Game, playerID string) outcome.Outcome[Drawn, *ActionFailure] {
	return outcome.FlatMap(turnGuard(g, playerID, StatePlaying), func(i int) outcome.Outcome[Drawn, *ActionFailure] {
		if g.Players[i].HasHeldCard() {
			return outcome.Failure[Drawn](Fail(KindAlreadyHoldingCard, g,
				"Player with ID %s already holds a card.", playerID))
		}
		drawn := card.Draw(g.Deck)
		if drawn.IsFailure() {
			return outcome.Failure[Drawn](AsFailure(drawn.Err(), g))
		}
		next := g.Clone()
		next.Deck = drawn.Value().Deck
		next = withPlayer(next, i, player.SetHeldCard(next.Players[i], drawn.Value().Card))
		return outcome.Success[Drawn, *ActionFailure](Drawn{Game: next, Card: drawn.Value().Card})
	})
}

// DrawFromStack takes the top discard into the current player's mat at
// matIndex and discards the card it replaces.
func DrawFromStack(g Game, playerID string, matIndex int) Result {
	return outcome.FlatMap(turnGuard(g, playerID, StatePlaying), func(i int) Result {
		popped := card.DrawFromStack(g.Stack)
		if popped.IsFailure() {
			return failed(AsFailure(popped.Err(), g))
		}
		exchanged := player.ExchangeCard(g.Players[i], matIndex, popped.Value().Card)
		if exchanged.IsFailure() {
			return failed(AsFailure(exchanged.Err(), g))
		}
		next := g.Clone()
		next.Stack = card.Push(popped.Value().Stack, exchanged.Value().Card)
		return succeeded(withPlayer(next, i, exchanged.Value().Player))
	})
}

// DiscardHeldCard puts the current player's held card on the stack.
func DiscardHeldCard(g Game, playerID string) Result {
	return outcome.FlatMap(turnGuard(g, playerID, StatePlaying), func(i int) Result {
		p := g.Players[i]
		if !p.HasHeldCard() {
			return failed(Fail(KindNoHeldCard, g, "Player with ID %s has no card to discard.", playerID))
		}
		next := g.Clone()
		next.Stack = card.Push(next.Stack, *p.HeldCard)
		return succeeded(withPlayer(next, i, player.ClearHeldCard(p)))
	})
}

// ExchangeHeldCard swaps the held card into the mat at matIndex and
// discards the card it replaces. Turn ownership is not checked; holding a
// card already implies the player drew it on their turn.
func ExchangeHeldCard(g Game, playerID string, matIndex int) Result {
	checked := outcome.FlatMap(IsInState(g, StatePlaying), func(g Game) outcome.Outcome[int, *ActionFailure] {
		return PlayerIndex(g, playerID)
	})
	return outcome.FlatMap(checked, func(i int) Result {
		p := g.Players[i]
		if !p.HasHeldCard() {
			return failed(Fail(KindNoHeldCard, g, "Player with ID %s has no card to exchange.", playerID))
		}
		exchanged := player.ExchangeCard(p, matIndex, *p.HeldCard)
		if exchanged.IsFailure() {
			return failed(AsFailure(exchanged.Err(), g))
		}
		next := g.Clone()
		next.Stack = card.Push(next.Stack, exchanged.Value().Card)
		return succeeded(withPlayer(next, i, player.ClearHeldCard(exchanged.Value().Player)))
	})
}

// Played is the game after a held card was played and the rule it triggers.
// HasRule is false when the card carries no effect.
type Played struct {
	Game    Game
	Card    card.Card
	Rule    CardRule
	HasRule bool
}

// PlayHeldCard discards the held card face up and returns the effect bound
// to its rank. The caller resolves the effect separately.
func PlayHeldCard(g Game, playerID string) outcome.Outcome[Played, *ActionFailure] {
	return outcome.FlatMap(turnGuard(g, playerID, StatePlaying), func(i int) outcome.Outcome[Played, *ActionFailure] {
		p := g.Players[i]
		if !p.HasHeldCard() {
			return outcome.Failure[Played](Fail(KindNoHeldCard, g, "Player with ID %s has no card to play.", playerID))
		}
		held := *p.HeldCard
		next := g.Clone()
		next.Stack = card.Push(next.Stack, held)
		next = withPlayer(next, i, player.ClearHeldCard(p))
		rule, ok := g.Config.RuleFor(held)
		return outcome.Success[Played, *ActionFailure](Played{Game: next, Card: held, Rule: rule, HasRule: ok})
	})
}

// SayGabo records playerID's Gabo declaration and moves the game to gabo.
// Out-of-turn declarations are accepted when rapid Gabo is allowed.
func SayGabo(g Game, playerID string) Result {
	return outcome.Validate(IsInState(g, StatePlaying, StateGabo)).
		Check(func(g Game) Result {
			if g.Config.IsRapidGaboAllowed {
				return succeeded(g)
			}
			return requireCurrentPlayer(g, playerID)
		}).
		Check(func(g Game) Result { return requirePlayer(g, playerID) }).
		Check(func(g Game) Result {
			if slices.Contains(g.GaboPlayers, playerID) {
				return failed(Fail(KindAlreadyDeclaredGabo, g, "Player with ID %s has already declared Gabo.", playerID))
			}
			next := g.Clone()
			next.GaboPlayers = append(next.GaboPlayers, playerID)
			next.State = StateGabo
			return succeeded(next)
		}).
		Result()
}

// SayCounterGabo records the current player contesting an opponent's Gabo.
// The player must not have declared Gabo, someone else must have, and a
// player counters at most once.
func SayCounterGabo(g Game, playerID string) Result {
	return outcome.Validate(IsInState(g, StateGabo)).
		Check(func(g Game) Result { return requireCurrentPlayer(g, playerID) }).
		Check(func(g Game) Result { return requirePlayer(g, playerID) }).
		Check(func(g Game) Result {
			if slices.Contains(g.GaboPlayers, playerID) {
				return failed(Fail(KindNotCounterEligible, g,
					"Player with ID %s declared Gabo and cannot counter it.", playerID))
			}
			if len(g.GaboPlayers) == 0 {
				return failed(Fail(KindNotCounterEligible, g, "No Gabo has been declared to counter."))
			}
			if slices.Contains(g.CounterGaboPlayers, playerID) {
				return failed(Fail(KindNotCounterEligible, g,
					"Player with ID %s has already countered Gabo.", playerID))
			}
			next := g.Clone()
			next.CounterGaboPlayers = append(next.CounterGaboPlayers, playerID)
			return succeeded(next)
		}).
		Result()
}

// PassTurn hands the turn on during gabo, so that every opponent gets a
// chance to counter. The current player passes after declaring, after
// countering, or to decline.
func PassTurn(g Game, playerID string) Result {
	return outcome.Validate(IsInState(g, StateGabo)).
		Check(func(g Game) Result { return requireCurrentPlayer(g, playerID) }).
		Check(advanceTurn).
		Result()
}
