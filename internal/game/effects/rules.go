// Package effects implements the special-card rules of Gabo.
//
// Every rule is a game.Effect. Lookups and exchanges finish immediately with
// a game.ResultStep; LookupAndMaybeExchangeCard first reveals a card and
// returns a game.DecisionStep whose Resume is called with the caster's choice.
package effects

import (
	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

type located struct {
	index  int
	player player.Player
}

func fail(f *game.ActionFailure) game.Step {
	return game.ResultStep{Result: outcome.Failure[game.Game](f)}
}

func done(g game.Game, revealed *card.Card) game.Step {
	return game.ResultStep{Result: outcome.Success[game.Game, *game.ActionFailure](g), Revealed: revealed}
}

// locate finds playerID and checks that matIndex addresses one of their cards.
func locate(g game.Game, playerID string, matIndex int) outcome.Outcome[located, *game.ActionFailure] {
	return outcome.FlatMap(game.PlayerIndex(g, playerID), func(i int) outcome.Outcome[located, *game.ActionFailure] {
		p := g.Players[i]
		if valid := player.IsValidMatIndex(p, matIndex); valid.IsFailure() {
			return outcome.Failure[located](game.AsFailure(valid.Err(), g))
		}
		return outcome.Success[located, *game.ActionFailure](located{index: i, player: p})
	})
}

func stepOf(o outcome.Outcome[located, *game.ActionFailure], g game.Game, matIndex int) game.Step {
	return outcome.Match(o,
		func(l located) game.Step {
			revealed := l.player.CardMat[matIndex]
			return done(g, &revealed)
		},
		fail,
	)
}

// ExchangeMatCard swaps the target's card with the card the caster selected.
func ExchangeMatCard(g game.Game, target game.Target, caster game.Caster) game.Step {
	from := locate(g, target.PlayerID, target.MatIndex)
	if from.IsFailure() {
		return fail(from.Err())
	}
	to := locate(g, caster.PlayerID, caster.MatIndex)
	if to.IsFailure() {
		return fail(to.Err())
	}

	next := g.Clone()
	t, c := from.Value().index, to.Value().index
	next.Players[t].CardMat[target.MatIndex], next.Players[c].CardMat[caster.MatIndex] =
		next.Players[c].CardMat[caster.MatIndex], next.Players[t].CardMat[target.MatIndex]
	return done(next, nil)
}

// LookupOwnCard reveals one of the caster's own cards.
func LookupOwnCard(g game.Game, target game.Target, caster game.Caster) game.Step {
	checked := outcome.Validate(locate(g, target.PlayerID, target.MatIndex)).
		Check(func(l located) outcome.Outcome[located, *game.ActionFailure] {
			if l.player.ID != caster.PlayerID {
				return outcome.Failure[located](game.Fail(game.KindNotOwnCard, g,
					"Cannot look up card for another player: %s", target.PlayerID))
			}
			return outcome.Success[located, *game.ActionFailure](l)
		}).
		Result()
	return stepOf(checked, g, target.MatIndex)
}

// LookupOthersCard reveals one of an opponent's cards to the caster.
func LookupOthersCard(g game.Game, target game.Target, caster game.Caster) game.Step {
	checked := outcome.Validate(locate(g, target.PlayerID, target.MatIndex)).
		Check(func(l located) outcome.Outcome[located, *game.ActionFailure] {
			if l.player.ID == caster.PlayerID {
				return outcome.Failure[located](game.Fail(game.KindCannotLookupOwnCard, g,
					"Cannot look up own card: %s", target.PlayerID))
			}
			return outcome.Success[located, *game.ActionFailure](l)
		}).
		Result()
	return stepOf(checked, g, target.MatIndex)
}

// LookupAndMaybeExchangeCard reveals an opponent's card, then lets the caster
// decide whether to swap it with one of their own.
func LookupAndMaybeExchangeCard(g game.Game, target game.Target, caster game.Caster) game.Step {
	looked := LookupOthersCard(g, target, caster).(game.ResultStep)
	if looked.Result.IsFailure() {
		return looked
	}
	seen := looked.Result.Value()
	return game.DecisionStep{
		Card: *looked.Revealed,
		Resume: func(doExchange bool, matIndex int) game.Step {
			if !doExchange {
				return done(seen, nil)
			}
			return ExchangeMatCard(seen, target, game.Caster{PlayerID: caster.PlayerID, MatIndex: matIndex})
		},
	}
}
