package integration

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gabo-game/gabo-server/internal/config"
	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/session"
)

type tableEnv struct {
	cfg      *config.Config
	sessions *session.Manager
	recorder *game.ReplayRecorder
	dir      string
}

func newTableEnv(t *testing.T) *tableEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
game:
  cards_per_player: 4
  card_scores:
    King: 0
replay:
  enabled: true
  directory: %q
`, filepath.Join(dir, "replays"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	recorder := game.NewReplayRecorder(logger, cfg.Replay.Directory)
	sessions := session.NewManager(cfg.Game.Rules, cfg.Server.MaxSessions, logger,
		session.WithRecorder(recorder),
		session.WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(3, 5)) }),
	)
	return &tableEnv{cfg: cfg, sessions: sessions, recorder: recorder, dir: cfg.Replay.Directory}
}

func (e *tableEnv) apply(t *testing.T, s *session.Session, cmd session.Command) session.ApplyResult {
	t.Helper()
	res, err := e.sessions.Apply(s.ID, cmd)
	require.NoError(t, err, "%s by %s", cmd.Type, cmd.PlayerID)
	require.NoError(t, game.CheckCardConservation(res.Game), "after %s", cmd.Type)
	return res
}

func TestFullRoundIsRecordedAndReplayable(t *testing.T) {
	env := newTableEnv(t)

	s, err := env.sessions.CreateSession(session.Options{Name: "friday", MaxPlayers: 3, CreatedBy: "alice"})
	require.NoError(t, err)
	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := env.sessions.Join(s.ID, id, id, "")
		require.NoError(t, err)
	}
	g, err := env.sessions.Start(s.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 52-3*4, game.DeckSize(g))
	assert.Equal(t, "alice", g.CurrentPlayerID)

	for _, id := range []string{"alice", "bob", "carol"} {
		drawn := env.apply(t, s, session.Command{Type: session.CmdDrawDeck, PlayerID: id})
		require.NotNil(t, drawn.Revealed)
		discarded := env.apply(t, s, session.Command{Type: session.CmdDiscard, PlayerID: id})
		top, ok := game.StackTop(discarded.Game)
		require.True(t, ok)
		assert.Equal(t, *drawn.Revealed, top)
	}
	assert.Equal(t, "alice", s.Game().CurrentPlayerID)

	env.apply(t, s, session.Command{Type: session.CmdGabo, PlayerID: "bob"})
	env.apply(t, s, session.Command{Type: session.CmdCounterGabo, PlayerID: "alice"})
	ended := env.apply(t, s, session.Command{Type: session.CmdEndRound, PlayerID: "carol"})
	require.NotNil(t, ended.Round)
	assert.Equal(t, game.StateFinished, ended.Game.State)
	assert.Len(t, ended.Round.Scores, 3)

	replay, err := game.LoadReplayFile(game.ReplayPath(env.dir, s.ID))
	require.NoError(t, err)
	assert.Equal(t, s.ID, replay.GameID)
	require.Equal(t, 1+6+3, replay.Size())
	assert.Equal(t, "start", replay.StateAt(0).Action)
	assert.Equal(t, string(session.CmdEndRound), replay.StateAt(replay.Size()-1).Action)

	rules, err := env.cfg.Game.Rules(3)
	require.NoError(t, err)
	for i := 0; i < replay.Size(); i++ {
		snap := replay.StateAt(i)
		assert.NoError(t, game.CheckCardConservation(snap.Restore(rules)), "snapshot %d", i)
	}

	last := replay.StateAt(replay.Size() - 1)
	want, err := last.ComputeChecksum()
	require.NoError(t, err)
	live := game.TakeSnapshot(s.Game(), last.Sequence, last.Action)
	ok, err := live.VerifyChecksum(want)
	require.NoError(t, err)
	assert.True(t, ok, "live game and saved replay diverged")
}

func TestRejectedCommandsLeaveNoTrace(t *testing.T) {
	env := newTableEnv(t)

	s, err := env.sessions.CreateSession(session.Options{MaxPlayers: 2, CreatedBy: "alice"})
	require.NoError(t, err)
	for _, id := range []string{"alice", "bob"} {
		_, err := env.sessions.Join(s.ID, id, id, "")
		require.NoError(t, err)
	}
	_, err = env.sessions.Start(s.ID, "bob")
	assert.ErrorIs(t, err, session.ErrNotCreator)
	before, err := env.sessions.Start(s.ID, "alice")
	require.NoError(t, err)

	_, err = env.sessions.Apply(s.ID, session.Command{Type: session.CmdDrawDeck, PlayerID: "bob"})
	assert.ErrorIs(t, err, game.ErrNotCurrentPlayer)
	_, err = env.sessions.Apply(s.ID, session.Command{Type: session.CmdDiscard, PlayerID: "alice"})
	assert.ErrorIs(t, err, game.ErrNoHeldCard)
	_, err = env.sessions.Apply(s.ID, session.Command{Type: session.CmdEndRound, PlayerID: "alice"})
	assert.ErrorIs(t, err, game.ErrWrongState)

	after := s.Game()
	assert.Equal(t, before.Deck, after.Deck)
	assert.Equal(t, before.Players, after.Players)
	assert.Equal(t, before.CurrentPlayerID, after.CurrentPlayerID)
	replay, ok := env.recorder.Replay(s.ID)
	require.True(t, ok)
	assert.Equal(t, 1, replay.Size())
}
