package effects

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabo-game/gabo-server/internal/game"
)

func newTable(t *testing.T) game.Game {
	t.Helper()
	g := game.CreateGame(game.DefaultConfig(3)).Value()
	for _, p := range []struct{ id, name string }{{"P1", "Alice"}, {"P2", "Bob"}, {"P3", "Carol"}} {
		g = game.AddPlayer(g, game.CreatePlayer(p.id, p.name)).Value()
	}
	res := game.InitializeWithRand(g, rand.New(rand.NewPCG(11, 13)))
	require.True(t, res.IsSuccess())
	res = game.DistributeCards(res.Value())
	require.True(t, res.IsSuccess())
	res = game.Start(res.Value())
	require.True(t, res.IsSuccess())
	return res.Value()
}

func terminal(t *testing.T, s game.Step) game.ResultStep {
	t.Helper()
	step, err := game.Terminal(s)
	require.NoError(t, err)
	return step
}

func TestExchangeMatCard(t *testing.T) {
	g := newTable(t)
	theirs := g.Players[1].CardMat[2]
	mine := g.Players[0].CardMat[0]

	step := terminal(t, ExchangeMatCard(g, game.Target{PlayerID: "P2", MatIndex: 2}, game.Caster{PlayerID: "P1", MatIndex: 0}))
	require.True(t, step.Result.IsSuccess())
	next := step.Result.Value()
	assert.Equal(t, theirs, next.Players[0].CardMat[0])
	assert.Equal(t, mine, next.Players[1].CardMat[2])
	assert.Nil(t, step.Revealed)

	assert.Equal(t, mine, g.Players[0].CardMat[0], "input game must be unchanged")
	assert.NoError(t, game.CheckCardConservation(next))
}

func TestExchangeMatCardFailures(t *testing.T) {
	g := newTable(t)
	tests := []struct {
		name   string
		target game.Target
		caster game.Caster
		kind   game.FailureKind
	}{
		{"bad target index", game.Target{PlayerID: "P2", MatIndex: 4}, game.Caster{PlayerID: "P1", MatIndex: 0}, game.KindInvalidIndex},
		{"caster without card", game.Target{PlayerID: "P2", MatIndex: 0}, game.CasterWithoutCard("P1"), game.KindInvalidIndex},
		{"unknown target", game.Target{PlayerID: "P9", MatIndex: 0}, game.Caster{PlayerID: "P1", MatIndex: 0}, game.KindPlayerNotFound},
		{"unknown caster", game.Target{PlayerID: "P2", MatIndex: 0}, game.Caster{PlayerID: "P9", MatIndex: 0}, game.KindPlayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := terminal(t, ExchangeMatCard(g, tt.target, tt.caster))
			require.True(t, step.Result.IsFailure())
			assert.Equal(t, tt.kind, step.Result.Err().Kind)
			assert.Equal(t, g, step.Result.Err().Game)
		})
	}
}

// TestLookupsNeverMutate checks that a successful lookup hands back the
// game it was given.
func TestLookupsNeverMutate(t *testing.T) {
	g := newTable(t)
	before := g.Clone()

	own := terminal(t, LookupOwnCard(g, game.Target{PlayerID: "P1", MatIndex: 3}, game.CasterWithoutCard("P1")))
	require.True(t, own.Result.IsSuccess())
	require.NotNil(t, own.Revealed)
	assert.Equal(t, g.Players[0].CardMat[3], *own.Revealed)
	assert.Equal(t, before, own.Result.Value())

	other := terminal(t, LookupOthersCard(g, game.Target{PlayerID: "P3", MatIndex: 1}, game.CasterWithoutCard("P1")))
	require.True(t, other.Result.IsSuccess())
	require.NotNil(t, other.Revealed)
	assert.Equal(t, g.Players[2].CardMat[1], *other.Revealed)
	assert.Equal(t, before, other.Result.Value())
	assert.Equal(t, before, g)
}

func TestLookupOwnership(t *testing.T) {
	g := newTable(t)

	own := terminal(t, LookupOwnCard(g, game.Target{PlayerID: "P2", MatIndex: 0}, game.CasterWithoutCard("P1")))
	require.True(t, own.Result.IsFailure())
	assert.Equal(t, game.KindNotOwnCard, own.Result.Err().Kind)
	assert.Equal(t, "Cannot look up card for another player: P2", own.Result.Err().Message)

	other := terminal(t, LookupOthersCard(g, game.Target{PlayerID: "P1", MatIndex: 0}, game.CasterWithoutCard("P1")))
	require.True(t, other.Result.IsFailure())
	assert.ErrorIs(t, other.Result.Err(), game.ErrCannotLookupOwnCard)

	bad := terminal(t, LookupOwnCard(g, game.Target{PlayerID: "P1", MatIndex: 7}, game.CasterWithoutCard("P1")))
	assert.Equal(t, game.KindInvalidIndex, bad.Result.Err().Kind)
}

func TestLookupAndMaybeExchangeCard(t *testing.T) {
	g := newTable(t)
	target := game.Target{PlayerID: "P2", MatIndex: 1}
	theirs := g.Players[1].CardMat[1]
	mine := g.Players[0].CardMat[0]

	step := LookupAndMaybeExchangeCard(g, target, game.CasterWithoutCard("P1"))
	decision, ok := step.(game.DecisionStep)
	require.True(t, ok, "expected a decision step, got %T", step)
	assert.Equal(t, theirs, decision.Card)

	_, err := game.Terminal(step)
	assert.Error(t, err)

	t.Run("exchange", func(t *testing.T) {
		done := terminal(t, decision.Resume(true, 0))
		require.True(t, done.Result.IsSuccess())
		next := done.Result.Value()
		assert.Equal(t, theirs, next.Players[0].CardMat[0])
		assert.Equal(t, mine, next.Players[1].CardMat[1])
	})

	t.Run("keep", func(t *testing.T) {
		done := terminal(t, decision.Resume(false, game.NoMatIndex))
		require.True(t, done.Result.IsSuccess())
		assert.Equal(t, g, done.Result.Value())
	})

	t.Run("bad index", func(t *testing.T) {
		done := terminal(t, decision.Resume(true, 12))
		require.True(t, done.Result.IsFailure())
		assert.Equal(t, game.KindInvalidIndex, done.Result.Err().Kind)
	})
}

func TestLookupAndMaybeExchangeOwnCardFails(t *testing.T) {
	g := newTable(t)
	step := terminal(t, LookupAndMaybeExchangeCard(g, game.Target{PlayerID: "P1", MatIndex: 0}, game.CasterWithoutCard("P1")))
	require.True(t, step.Result.IsFailure())
	assert.Equal(t, game.KindCannotLookupOwnCard, step.Result.Err().Kind)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{NameExchange, NameLookupAndExchange, NameLookupOthers, NameLookupOwn}, Names())

	_, err := Lookup("teleport")
	assert.ErrorContains(t, err, `unknown card effect "teleport"`)

	rule, err := Rule(5, NameLookupOwn)
	require.NoError(t, err)
	assert.Equal(t, NameLookupOwn, rule.Name)
	assert.NotNil(t, rule.Effect)

	_, err = Rule(0, NameLookupOwn)
	assert.Error(t, err)

	rules := DefaultRules()
	assert.Len(t, rules, 6)
	for _, rule := range rules {
		assert.NotNil(t, rule.Effect, rule.Name)
		_, err := Lookup(rule.Name)
		assert.NoError(t, err)
	}
	assert.NoError(t, game.ValidateConfig(game.Config{
		Players: 2, CardsPerPlayer: 4, ScoreToLose: 100, FalseGaboScore: 1, CounterGaboScore: 1, CardRules: rules,
	}))
}
