package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// CommandType names a player command.
type CommandType string

const (
	CmdDrawDeck    CommandType = "draw_deck"
	CmdDrawStack   CommandType = "draw_stack"
	CmdDiscard     CommandType = "discard"
	CmdExchange    CommandType = "exchange"
	CmdPlayHeld    CommandType = "play_held"
	CmdUseEffect   CommandType = "use_effect"
	CmdDecision    CommandType = "decision"
	CmdSkipEffect  CommandType = "skip_effect"
	CmdGabo        CommandType = "gabo"
	CmdCounterGabo CommandType = "counter_gabo"
	CmdPass        CommandType = "pass"
	CmdEndRound    CommandType = "end_round"
)

// Command is one player action. PlayerID is filled in by the transport from
// the connection, never from the payload.
type Command struct {
	Type           CommandType `json:"action"`
	PlayerID       string      `json:"-"`
	MatIndex       int         `json:"matIndex"`
	Target         game.Target `json:"target"`
	CasterMatIndex *int        `json:"casterMatIndex,omitempty"`
	Exchange       bool        `json:"exchange"`
}

// ApplyResult is the outcome of an accepted command. Revealed is private to
// the acting player; everything else may be broadcast.
type ApplyResult struct {
	Event    string
	Game     game.Game
	Revealed *card.Card
	Pending  *PendingEffect
	Decision bool
	Round    *game.RoundResult
}

// Apply runs cmd against the session's game under the session lock.
func (m *Manager) Apply(id string, cmd Command) (ApplyResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return ApplyResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := m.dispatch(s, cmd)
	if err != nil {
		m.logger.Warn("command rejected",
			zap.String("game_id", id),
			zap.String("player_id", cmd.PlayerID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err),
		)
		return ApplyResult{}, err
	}
	s.game = res.Game
	s.skipAbsentLocked()
	res.Game = s.game
	s.lastActivity = m.now()

	if m.recorder != nil && m.recorder.IsRecording(id) {
		m.recorder.RecordState(id, s.game, string(cmd.Type))
		if cmd.Type == CmdEndRound {
			if saveErr := m.recorder.SaveReplay(id); saveErr != nil {
				m.logger.Error("failed to save replay", zap.String("game_id", id), zap.Error(saveErr))
			}
		}
	}
	m.logger.Debug("command applied",
		zap.String("game_id", id),
		zap.String("player_id", cmd.PlayerID),
		zap.String("command", string(cmd.Type)),
		zap.String("state", s.game.State.String()),
		zap.String("current_player", s.game.CurrentPlayerID),
	)
	return res, nil
}

func (m *Manager) dispatch(s *Session, cmd Command) (ApplyResult, error) {
	if _, ok := s.members[cmd.PlayerID]; !ok {
		return ApplyResult{}, ErrNotMember
	}
	if s.pendingDecision != nil && cmd.Type != CmdDecision {
		return ApplyResult{}, ErrPendingAction
	}
	if s.pendingEffect != nil && cmd.Type != CmdUseEffect && cmd.Type != CmdSkipEffect {
		return ApplyResult{}, ErrPendingAction
	}

	g := s.game
	switch cmd.Type {
	case CmdDrawDeck:
		drawn := game.DrawFromDeck(g, cmd.PlayerID)
		if drawn.IsFailure() {
			return ApplyResult{}, drawn.Err()
		}
		held := drawn.Value().Card
		return ApplyResult{Event: "card_drawn", Game: drawn.Value().Game, Revealed: &held}, nil

	case CmdDrawStack:
		return turnEnding("card_taken", game.DrawFromStack(g, cmd.PlayerID, cmd.MatIndex))

	case CmdDiscard:
		return turnEnding("card_discarded", game.DiscardHeldCard(g, cmd.PlayerID))

	case CmdExchange:
		return turnEnding("card_exchanged", game.ExchangeHeldCard(g, cmd.PlayerID, cmd.MatIndex))

	case CmdPlayHeld:
		played := game.PlayHeldCard(g, cmd.PlayerID)
		if played.IsFailure() {
			return ApplyResult{}, played.Err()
		}
		p := played.Value()
		if !p.HasRule {
			return turnEnding("card_played", succeededWith(p.Game))
		}
		s.pendingEffect = &PendingEffect{PlayerID: cmd.PlayerID, Card: p.Card, Rule: p.Rule, Effect: p.Rule.Name}
		pending := *s.pendingEffect
		return ApplyResult{Event: "effect_pending", Game: p.Game, Pending: &pending}, nil

	case CmdUseEffect:
		return m.useEffect(s, cmd)

	case CmdDecision:
		return m.decide(s, cmd)

	case CmdSkipEffect:
		if err := ownsPending(s.pendingEffect, cmd.PlayerID); err != nil {
			return ApplyResult{}, err
		}
		res, err := turnEnding("effect_skipped", succeededWith(g))
		if err == nil {
			s.pendingEffect = nil
		}
		return res, err

	case CmdGabo:
		said := game.SayGabo(g, cmd.PlayerID)
		if game.IsCurrentPlayer(g, cmd.PlayerID) {
			// An in-turn declaration ends the turn; a rapid one leaves it alone.
			return turnEnding("gabo", said)
		}
		if said.IsFailure() {
			return ApplyResult{}, said.Err()
		}
		return ApplyResult{Event: "gabo", Game: said.Value()}, nil

	case CmdCounterGabo:
		return turnEnding("counter_gabo", game.SayCounterGabo(g, cmd.PlayerID))

	case CmdPass:
		passed := game.PassTurn(g, cmd.PlayerID)
		if passed.IsFailure() {
			return ApplyResult{}, passed.Err()
		}
		return ApplyResult{Event: "turn_passed", Game: passed.Value()}, nil

	case CmdEndRound:
		ended := game.EndRound(g)
		if ended.IsFailure() {
			return ApplyResult{}, ended.Err()
		}
		round := ended.Value()
		return ApplyResult{Event: "round_ended", Game: round.Game, Round: &round}, nil

	default:
		return ApplyResult{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

func (m *Manager) useEffect(s *Session, cmd Command) (ApplyResult, error) {
	pe := s.pendingEffect
	if err := ownsPending(pe, cmd.PlayerID); err != nil {
		return ApplyResult{}, err
	}
	caster := game.CasterWithoutCard(cmd.PlayerID)
	if cmd.CasterMatIndex != nil {
		caster.MatIndex = *cmd.CasterMatIndex
	}

	switch step := pe.Rule.Effect(s.game, cmd.Target, caster).(type) {
	case game.DecisionStep:
		s.pendingEffect = nil
		s.pendingDecision = &PendingDecision{PlayerID: cmd.PlayerID, Card: step.Card, Resume: step.Resume}
		seen := step.Card
		return ApplyResult{Event: "decision_pending", Game: s.game, Revealed: &seen, Decision: true}, nil
	case game.ResultStep:
		res, err := turnEnding("effect_resolved", step.Result)
		if err != nil {
			// The effect stays pending so the player can pick another target.
			return ApplyResult{}, err
		}
		s.pendingEffect = nil
		res.Revealed = step.Revealed
		return res, nil
	default:
		return ApplyResult{}, fmt.Errorf("unexpected effect step %T", step)
	}
}

func (m *Manager) decide(s *Session, cmd Command) (ApplyResult, error) {
	pd := s.pendingDecision
	if pd == nil {
		return ApplyResult{}, ErrNoPendingDecision
	}
	if pd.PlayerID != cmd.PlayerID {
		return ApplyResult{}, fmt.Errorf("%w for player %s", ErrNoPendingDecision, cmd.PlayerID)
	}
	if cmd.Exchange {
		caster := game.PlayerByID(s.game, cmd.PlayerID)
		if caster.IsFailure() {
			return ApplyResult{}, caster.Err()
		}
		if valid := player.IsValidMatIndex(caster.Value(), cmd.MatIndex); valid.IsFailure() {
			return ApplyResult{}, game.AsFailure(valid.Err(), s.game)
		}
	}

	s.pendingDecision = nil
	done, err := game.Terminal(pd.Resume(cmd.Exchange, cmd.MatIndex))
	if err != nil {
		return ApplyResult{}, err
	}
	return turnEnding("effect_resolved", done.Result)
}

// turnEnding finishes the acting player's turn after a successful result.
func turnEnding(event string, r game.Result) (ApplyResult, error) {
	if r.IsFailure() {
		return ApplyResult{}, r.Err()
	}
	g := r.Value()
	if g.State == game.StatePlaying || g.State == game.StateGabo {
		next := advance(g)
		if next.IsFailure() {
			return ApplyResult{}, next.Err()
		}
		g = next.Value()
	}
	return ApplyResult{Event: event, Game: g}, nil
}

// advance passes the turn; during gabo the current player hands it on.
func advance(g game.Game) game.Result {
	if g.State == game.StateGabo {
		return game.PassTurn(g, g.CurrentPlayerID)
	}
	return game.SetCurrentPlayerToNextPlayer(g)
}

func ownsPending(pe *PendingEffect, playerID string) error {
	if pe == nil {
		return ErrNoPendingEffect
	}
	if pe.PlayerID != playerID {
		return fmt.Errorf("%w for player %s", ErrNoPendingEffect, playerID)
	}
	return nil
}

func succeededWith(g game.Game) game.Result {
	return outcome.Success[game.Game, *game.ActionFailure](g)
}
