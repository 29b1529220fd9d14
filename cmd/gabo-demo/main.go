// Command gabo-demo plays a scripted Gabo round against the game core and
// renders every step in the terminal. With -replay it renders a saved replay
// file instead.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/effects"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

var (
	replayPath = flag.String("replay", "", "render a saved replay file instead of playing")
	seed       = flag.Uint64("seed", 42, "shuffle seed")
)

func main() {
	flag.Parse()

	var err error
	if *replayPath != "" {
		err = renderReplay(*replayPath)
	} else {
		err = play(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))
	}
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// must unwraps a core result or aborts the demo with the failure message.
func must[T any](o outcome.Outcome[T, *game.ActionFailure], what string) (T, error) {
	v, f, ok := o.Unpack()
	if !ok {
		return v, fmt.Errorf("%s: %w", what, f)
	}
	pterm.Success.Println(what)
	return v, nil
}

func play(rng *rand.Rand) error {
	pterm.DefaultHeader.WithFullWidth().Println("Gabo")

	cfg := game.DefaultConfig(5)
	cfg.CardRules = effects.DefaultRules()
	created := game.CreateGame(cfg)
	if created.IsFailure() {
		return created.Err()
	}
	g := created.Value()

	pterm.DefaultSection.Println("Seating")
	for i, name := range []string{"Alice", "Bob", "Carol", "Dave", "Eve"} {
		var err error
		if g, err = must(game.AddPlayer(g, game.CreatePlayer(strconv.Itoa(i+1), name)), name+" sits down"); err != nil {
			return err
		}
	}
	g, err := must(game.RemovePlayer(g, "4"), "Dave leaves the table")
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Dealing")
	dealt := outcome.FlatMap(game.InitializeWithRand(g, rng), game.DistributeCards)
	if g, err = must(outcome.FlatMap(dealt, game.Start), "deck shuffled, cards dealt, game started"); err != nil {
		return err
	}
	pterm.Info.Printfln("deck holds %d cards, %s plays first", game.DeckSize(g), g.CurrentPlayerID)
	if err := game.CheckCardConservation(g); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Turns")
	// Each turn draws and either plays a special card or discards it.
	for turn := 0; turn < len(g.Players) && g.State == game.StatePlaying; turn++ {
		if g, err = takeTurn(g); err != nil {
			return err
		}
	}
	renderTable(g, false)

	pterm.DefaultSection.Println("Gabo")
	current := g.CurrentPlayerID
	declarer := nextSeat(g, current)
	if g, err = must(game.SayGabo(g, declarer), playerName(g, declarer)+" says Gabo out of turn"); err != nil {
		return err
	}
	if g, err = must(game.SayCounterGabo(g, current), playerName(g, current)+" counters"); err != nil {
		return err
	}
	round, err := must(game.EndRound(g), "round scored")
	if err != nil {
		return err
	}
	renderRound(round)
	renderTable(round.Game, true)
	return nil
}

func takeTurn(g game.Game) (game.Game, error) {
	id := g.CurrentPlayerID
	name := playerName(g, id)
	drawn, err := must(game.DrawFromDeck(g, id), name+" draws from the deck")
	if err != nil {
		return g, err
	}
	g = drawn.Game
	pterm.Info.Printfln("%s holds %s", name, drawn.Card)

	if _, ok := g.Config.RuleFor(drawn.Card); !ok {
		if g, err = must(game.DiscardHeldCard(g, id), name+" discards "+drawn.Card.String()); err != nil {
			return g, err
		}
		return must(game.SetCurrentPlayerToNextPlayer(g), "turn passes")
	}

	played, err := must(game.PlayHeldCard(g, id), name+" plays "+drawn.Card.String())
	if err != nil {
		return g, err
	}
	g = played.Game
	target := game.Target{PlayerID: nextSeat(g, id), MatIndex: 0}
	if played.Rule.Name == effects.NameLookupOwn {
		target.PlayerID = id
	}
	pterm.Info.Printfln("%s resolves %s on seat %s", name, played.Rule.Name, target.PlayerID)

	step := played.Rule.Effect(g, target, game.Caster{PlayerID: id, MatIndex: 0})
	if decision, ok := step.(game.DecisionStep); ok {
		pterm.Info.Printfln("%s sees %s and swaps it with their first card", name, decision.Card)
		step = decision.Resume(true, 0)
	}
	res, err := game.Terminal(step)
	if err != nil {
		return g, err
	}
	if res.Revealed != nil {
		pterm.Info.Printfln("%s peeks at %s", name, *res.Revealed)
	}
	if g, err = must(res.Result, played.Rule.Name+" resolved"); err != nil {
		return g, err
	}
	return must(game.SetCurrentPlayerToNextPlayer(g), "turn passes")
}

func nextSeat(g game.Game, id string) string {
	i := game.PlayerIndex(g, id).OrElse(0)
	return g.Players[(i+1)%len(g.Players)].ID
}

func playerName(g game.Game, id string) string {
	p := game.PlayerByID(g, id)
	if p.IsFailure() {
		return id
	}
	return p.Value().Name
}

func renderTable(g game.Game, reveal bool) {
	data := pterm.TableData{{"Seat", "Name", "Mat", "Held", "Score"}}
	for _, p := range g.Players {
		mat := make([]string, len(p.CardMat))
		for i, c := range p.CardMat {
			if reveal {
				mat[i] = c.String()
			} else {
				mat[i] = "##"
			}
		}
		held := "-"
		if p.HeldCard != nil {
			held = p.HeldCard.String()
		}
		data = append(data, []string{p.ID, p.Name, strings.Join(mat, " "), held, strconv.Itoa(p.Score)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()

	top := "empty"
	if c, ok := game.StackTop(g); ok {
		top = c.String()
	}
	pterm.Info.Printfln("state %s, deck %d, stack top %s", g.State, game.DeckSize(g), top)
}

func renderRound(r game.RoundResult) {
	data := pterm.TableData{{"Player", "Hand", "Penalty", "Total", "Descended"}}
	for _, s := range r.Scores {
		data = append(data, []string{
			playerName(r.Game, s.PlayerID),
			strconv.Itoa(s.HandScore),
			strconv.Itoa(s.Penalty),
			strconv.Itoa(s.Total),
			strconv.FormatBool(s.Descended),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if len(r.Losers) > 0 {
		pterm.Warning.Printfln("reached the losing score: %s", strings.Join(r.Losers, ", "))
	}
}

func renderReplay(path string) error {
	replay, err := game.LoadReplayFile(path)
	if err != nil {
		return err
	}
	pterm.DefaultHeader.WithFullWidth().Printfln("Replay of %s", replay.GameID)

	cfg := game.DefaultConfig(0)
	for i := 0; i < replay.Size(); i++ {
		snap := replay.StateAt(i)
		pterm.DefaultSection.Printfln("#%d %s (%s)", snap.Sequence, snap.Action, snap.Timestamp.Format("15:04:05"))
		renderTable(snap.Restore(cfg), snap.State == game.StateFinished)
	}
	return nil
}
