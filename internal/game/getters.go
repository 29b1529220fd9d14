package game

import (
	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// PlayerIndex returns the turn-order position of playerID.
func PlayerIndex(g Game, playerID string) outcome.Outcome[int, *ActionFailure] {
	for i, p := range g.Players {
		if p.ID == playerID {
			return outcome.Success[int, *ActionFailure](i)
		}
	}
	return outcome.Failure[int](Fail(KindPlayerNotFound, g,
		"Player with ID %s does not exist in the game.", playerID))
}

// PlayerByID returns a copy of the player with playerID.
func PlayerByID(g Game, playerID string) outcome.Outcome[player.Player, *ActionFailure] {
	return outcome.Map(PlayerIndex(g, playerID), func(i int) player.Player {
		return g.Players[i].Clone()
	})
}

// CurrentPlayer returns the player whose turn it is.
func CurrentPlayer(g Game) outcome.Outcome[player.Player, *ActionFailure] {
	if g.CurrentPlayerID == "" {
		return outcome.Failure[player.Player](Fail(KindNoCurrentPlayer, g,
			"No current player set."))
	}
	return PlayerByID(g, g.CurrentPlayerID)
}

// IsCurrentPlayer reports whether playerID holds the turn.
func IsCurrentPlayer(g Game, playerID string) bool {
	return g.CurrentPlayerID != "" && g.CurrentPlayerID == playerID
}

// DeckSize is the number of cards left to draw.
func DeckSize(g Game) int { return len(g.Deck) }

// StackTop returns the visible discard, if any.
func StackTop(g Game) (card.Card, bool) { return g.Stack.Top() }

func requireCurrentPlayer(g Game, playerID string) Result {
	if !IsCurrentPlayer(g, playerID) {
		return failed(Fail(KindNotCurrentPlayer, g,
			"Player with ID %s is not the current player.", playerID))
	}
	return succeeded(g)
}

func requirePlayer(g Game, playerID string) Result {
	return outcome.Map(PlayerIndex(g, playerID), func(int) Game { return g })
}

// withPlayer replaces the player in slot i of a cloned game.
func withPlayer(g Game, i int, p player.Player) Game {
	g.Players[i] = p
	return g
}
