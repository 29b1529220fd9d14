package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

var playerNames = []string{"Alice", "Bob", "Charlie", "Diana", "Eve", "Frank"}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(2024, 7))
}

// newWaitingGame creates a game with n seats and seats n players with IDs "1".."n".
func newWaitingGame(t *testing.T, n int) Game {
	t.Helper()
	created := CreateGame(DefaultConfig(n))
	require.True(t, created.IsSuccess(), "create game: %v", created.Err())
	g := created.Value()
	for i := 0; i < n; i++ {
		added := AddPlayer(g, CreatePlayer(string(rune('1'+i)), playerNames[i]))
		require.True(t, added.IsSuccess(), "add player: %v", added.Err())
		g = added.Value()
	}
	return g
}

// newPlayingGame returns a dealt and started game.
func newPlayingGame(t *testing.T, n int) Game {
	t.Helper()
	g := newWaitingGame(t, n)
	res := InitializeWithRand(g, testRand())
	require.True(t, res.IsSuccess())
	res = DistributeCards(res.Value())
	require.True(t, res.IsSuccess())
	res = Start(res.Value())
	require.True(t, res.IsSuccess(), "start: %v", res.Err())
	return res.Value()
}

func requireKind(t *testing.T, res Result, kind FailureKind) *ActionFailure {
	t.Helper()
	require.True(t, res.IsFailure(), "expected %s failure", kind)
	require.Equal(t, kind, res.Err().Kind, res.Err().Message)
	return res.Err()
}

func gameOf(o outcome.Outcome[RoundResult, *ActionFailure]) Result {
	return outcome.Map(o, func(r RoundResult) Game { return r.Game })
}

func TestCreateGameRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Players = 9
	cfg.ScoreToLose = 0

	res := CreateGame(cfg)
	require.True(t, res.IsFailure())
	assert.Contains(t, res.Err().Error(), "players must be between 2 and 6")
	assert.Contains(t, res.Err().Error(), "scoreToLose must be at least 1")
}

func TestCreateGameStartsWaiting(t *testing.T) {
	res := CreateGame(DefaultConfig(3))
	require.True(t, res.IsSuccess())
	g := res.Value()
	assert.Equal(t, StateWaiting, g.State)
	assert.Empty(t, g.Players)
	assert.Empty(t, g.Deck)
	assert.Empty(t, g.CurrentPlayerID)
}

func TestAddPlayer(t *testing.T) {
	g := newWaitingGame(t, 2)

	t.Run("table full", func(t *testing.T) {
		requireKind(t, AddPlayer(g, CreatePlayer("9", "Zed")), KindMaxPlayersExceeded)
	})

	t.Run("duplicate id", func(t *testing.T) {
		created := CreateGame(DefaultConfig(3))
		open := AddPlayer(created.Value(), CreatePlayer("1", "Alice")).Value()
		failure := requireKind(t, AddPlayer(open, CreatePlayer("1", "Other")), KindPlayerAlreadyExists)
		assert.Equal(t, "Player with ID 1 already exists in the game.", failure.Message)
		assert.ErrorIs(t, failure, ErrPlayerAlreadyExists)
	})

	t.Run("input untouched", func(t *testing.T) {
		created := CreateGame(DefaultConfig(3)).Value()
		added := AddPlayer(created, CreatePlayer("1", "Alice"))
		require.True(t, added.IsSuccess())
		assert.Len(t, added.Value().Players, 1)
		assert.Empty(t, created.Players)
	})
}

func TestRemovePlayer(t *testing.T) {
	g := newWaitingGame(t, 3)

	res := RemovePlayer(g, "2")
	require.True(t, res.IsSuccess())
	ids := []string{}
	for _, p := range res.Value().Players {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids)
	assert.Len(t, g.Players, 3)

	requireKind(t, RemovePlayer(g, "42"), KindPlayerNotFound)
}

func TestInitializeNeedsPlayers(t *testing.T) {
	empty := CreateGame(DefaultConfig(2)).Value()
	requireKind(t, Initialize(empty), KindNotEnoughPlayers)

	res := Initialize(newWaitingGame(t, 2))
	require.True(t, res.IsSuccess())
	assert.Len(t, res.Value().Deck, card.DeckSize)
	assert.Empty(t, res.Value().Stack)
}

func TestDistributeCardsConservesCards(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		g := InitializeWithRand(newWaitingGame(t, n), testRand()).Value()
		before := len(g.Deck)

		res := DistributeCards(g)
		require.True(t, res.IsSuccess())

		dealt := res.Value()
		total := len(dealt.Deck)
		for _, p := range dealt.Players {
			assert.Len(t, p.CardMat, dealt.Config.CardsPerPlayer)
			total += len(p.CardMat)
		}
		assert.Equal(t, before, total, "%d players", n)
		assert.NoError(t, CheckCardConservation(dealt))
	}
}

func TestDistributeCardsFailures(t *testing.T) {
	g := newWaitingGame(t, 2)
	requireKind(t, DistributeCards(g), KindEmptyDeck)

	short := InitializeWithRand(g, testRand()).Value()
	short.Deck = short.Deck[:5]
	requireKind(t, DistributeCards(short), KindInsufficientCards)
}

func TestStartRequiresEnoughPlayers(t *testing.T) {
	g := CreateGame(DefaultConfig(4)).Value()
	g = AddPlayer(g, CreatePlayer("1", "Alice")).Value()
	failure := requireKind(t, Start(g), KindWrongPlayerCount)
	assert.Equal(t, StateWaiting, failure.Game.State)

	g = AddPlayer(g, CreatePlayer("2", "Bob")).Value()
	res := Start(g)
	require.True(t, res.IsSuccess())
	assert.Equal(t, StatePlaying, res.Value().State)
	assert.Equal(t, "1", res.Value().CurrentPlayerID)
}

// TestStateGuards checks that every waiting-only operation refuses a started
// game and reports the game unchanged.
func TestStateGuards(t *testing.T) {
	g := newPlayingGame(t, 3)

	ops := map[string]func(Game) Result{
		"add":        func(g Game) Result { return AddPlayer(g, CreatePlayer("9", "Zed")) },
		"remove":     func(g Game) Result { return RemovePlayer(g, "1") },
		"initialize": Initialize,
		"distribute": DistributeCards,
		"start":      Start,
		"end round":  func(g Game) Result { return gameOf(EndRound(g)) },
		"counter":    func(g Game) Result { return SayCounterGabo(g, "1") },
		"pass":       func(g Game) Result { return PassTurn(g, "1") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			failure := requireKind(t, op(g), KindWrongState)
			assert.ErrorIs(t, failure, ErrWrongState)
			assert.Equal(t, g, failure.Game)
		})
	}

	waiting := newWaitingGame(t, 3)
	waitingOps := map[string]func(Game) Result{
		"next player": SetCurrentPlayerToNextPlayer,
		"discard":     func(g Game) Result { return DiscardHeldCard(g, "1") },
		"exchange":    func(g Game) Result { return ExchangeHeldCard(g, "1", 0) },
		"draw stack":  func(g Game) Result { return DrawFromStack(g, "1", 0) },
		"gabo":        func(g Game) Result { return SayGabo(g, "1") },
		"draw deck": func(g Game) Result {
			return outcome.Map(DrawFromDeck(g, "1"), func(d Drawn) Game { return d.Game })
		},
		"play held": func(g Game) Result {
			return outcome.Map(PlayHeldCard(g, "1"), func(p Played) Game { return p.Game })
		},
	}
	for name, op := range waitingOps {
		t.Run("waiting "+name, func(t *testing.T) {
			failure := requireKind(t, op(waiting), KindWrongState)
			assert.Equal(t, waiting, failure.Game)
		})
	}
}

func TestIsInStateMessage(t *testing.T) {
	g := newWaitingGame(t, 2)
	failure := requireKind(t, IsInState(g, StatePlaying, StateGabo), KindWrongState)
	assert.Equal(t, "Game is in state waiting, expected one of: playing, gabo", failure.Message)
}

// TestEndToEndScenario plays the opening of a five seat table with one
// player leaving before the deal.
func TestEndToEndScenario(t *testing.T) {
	g := CreateGame(DefaultConfig(5)).Value()
	for i, name := range []string{"Alice", "Bob", "Charlie", "Diana", "Eve"} {
		g = AddPlayer(g, player.New(string(rune('1'+i)), name)).Value()
	}
	g = RemovePlayer(g, "4").Value()
	require.Len(t, g.Players, 4)

	g = InitializeWithRand(g, testRand()).Value()
	res := DistributeCards(g)
	require.True(t, res.IsSuccess())
	g = res.Value()
	assert.Len(t, g.Deck, 52-4*4)

	res = Start(g)
	require.True(t, res.IsSuccess())
	g = res.Value()
	assert.Equal(t, StatePlaying, g.State)
	assert.Equal(t, "1", g.CurrentPlayerID)

	drawn := DrawFromDeck(g, "1")
	require.True(t, drawn.IsSuccess())
	g = drawn.Value().Game
	assert.Len(t, g.Deck, 35)
	first := PlayerByID(g, "1").Value()
	require.NotNil(t, first.HeldCard)
	assert.Equal(t, drawn.Value().Card, *first.HeldCard)

	res = DiscardHeldCard(g, "1")
	require.True(t, res.IsSuccess())
	g = res.Value()
	top, ok := StackTop(g)
	require.True(t, ok)
	assert.Equal(t, drawn.Value().Card, top)
	assert.Nil(t, PlayerByID(g, "1").Value().HeldCard)
	assert.NoError(t, CheckCardConservation(g))
}
