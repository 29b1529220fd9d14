package game

import (
	"slices"

	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// RoundScore is one player's line on the round sheet.
type RoundScore struct {
	PlayerID  string `json:"playerId"`
	HandScore int    `json:"handScore"`
	Penalty   int    `json:"penalty"`
	Total     int    `json:"total"`
	Descended bool   `json:"descended"`
}

// RoundResult is the finished game together with its scoring breakdown.
type RoundResult struct {
	Game   Game         `json:"game"`
	Scores []RoundScore `json:"scores"`
	Losers []string     `json:"losers"`
}

// HandScore sums the configured points of the cards in p's mat and hand.
func HandScore(cfg Config, p player.Player) int {
	total := 0
	for _, c := range p.CardMat {
		total += cfg.ScoreFor(c)
	}
	if p.HeldCard != nil {
		total += cfg.ScoreFor(*p.HeldCard)
	}
	return total
}

func applyDescents(descents []Descent, total int) (int, bool) {
	for _, d := range descents {
		if total == d[1] {
			return d[0], true
		}
	}
	return total, false
}

// EndRound scores a round that reached gabo and finishes the game.
//
// A Gabo declarer with the strictly lowest hand scores nothing; a wrong
// declarer scores the hand plus FalseGaboScore. A counter player scores
// nothing when every declarer was wrong, otherwise the hand plus
// CounterGaboScore. Everyone else scores their hand.
func EndRound(g Game) outcome.Outcome[RoundResult, *ActionFailure] {
	checked := IsInState(g, StateGabo)
	return outcome.FlatMap(checked, func(g Game) outcome.Outcome[RoundResult, *ActionFailure] {
		if len(g.Players) == 0 {
			return outcome.Failure[RoundResult](Fail(KindNotEnoughPlayers, g, "Cannot score a round without players."))
		}

		hands := make([]int, len(g.Players))
		for i, p := range g.Players {
			hands[i] = HandScore(g.Config, p)
		}
		strictlyLowest := func(i int) bool {
			for j, h := range hands {
				if j != i && h <= hands[i] {
					return false
				}
			}
			return true
		}
		declarerRight := false
		for i, p := range g.Players {
			if slices.Contains(g.GaboPlayers, p.ID) && strictlyLowest(i) {
				declarerRight = true
			}
		}

		next := g.Clone()
		result := RoundResult{Scores: make([]RoundScore, 0, len(next.Players)), Losers: []string{}}
		for i, p := range next.Players {
			line := RoundScore{PlayerID: p.ID, HandScore: hands[i]}
			switch {
			case slices.Contains(g.GaboPlayers, p.ID):
				if !strictlyLowest(i) {
					line.Penalty = hands[i] + g.Config.FalseGaboScore
				}
			case slices.Contains(g.CounterGaboPlayers, p.ID):
				if declarerRight {
					line.Penalty = hands[i] + g.Config.CounterGaboScore
				}
			default:
				line.Penalty = hands[i]
			}
			line.Total, line.Descended = applyDescents(g.Config.Descents, p.Score+line.Penalty)
			next.Players[i].Score = line.Total
			if line.Total >= g.Config.ScoreToLose {
				result.Losers = append(result.Losers, p.ID)
			}
			result.Scores = append(result.Scores, line)
		}
		next.State = StateFinished
		result.Game = next
		return outcome.Success[RoundResult, *ActionFailure](result)
	})
}
