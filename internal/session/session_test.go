package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DoyleJ11/match-commentary/internal/match"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(t *testing.T) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, "m1")
}

func move(id string) match.Action { return match.Move{PlayerID: id} }

func TestSession_BeginWithoutSnapshot(t *testing.T) {
	s := newSession(t)
	s.Submit(match.Request{Action: move("p1")})

	_, err := s.Begin()
	require.ErrorIs(t, err, ErrNoSnapshot)
	assert.Equal(t, 1, s.PendingActions(), "failed begin must not drain")
}

func TestSession_CommitPromotesSnapshot(t *testing.T) {
	s := newSession(t)
	first := &match.Snapshot{Turn: 1}
	second := &match.Snapshot{Turn: 2}

	s.Submit(match.Request{GameState: first, Action: move("p1")})
	c, err := s.Begin()
	require.NoError(t, err)
	assert.True(t, c.First)
	assert.Nil(t, c.Previous)
	assert.Same(t, first, c.Current)
	assert.Equal(t, []match.Action{move("p1")}, c.Actions)
	s.Commit(c)

	s.Submit(match.Request{GameState: second})
	c, err = s.Begin()
	require.NoError(t, err)
	assert.False(t, c.First)
	assert.Same(t, first, c.Previous)
	assert.Same(t, second, c.Current)
	assert.Empty(t, c.Actions)
	s.Commit(c)
}

func TestSession_LatestSnapshotWins(t *testing.T) {
	s := newSession(t)
	s.Submit(match.Request{GameState: &match.Snapshot{Turn: 1}})
	s.Submit(match.Request{GameState: &match.Snapshot{Turn: 2}})

	assert.Equal(t, 2, s.Latest().Turn)
	c, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Current.Turn)
}

func TestSession_AbortLeavesStateUntouched(t *testing.T) {
	s := newSession(t)
	base := &match.Snapshot{Turn: 1}
	s.Submit(match.Request{GameState: base})
	c, err := s.Begin()
	require.NoError(t, err)
	s.Commit(c)

	s.Submit(match.Request{GameState: &match.Snapshot{Turn: 2}, Action: move("a")})
	s.Submit(match.Request{Action: move("b")})
	c, err = s.Begin()
	require.NoError(t, err)

	// arrives while the cycle is running
	s.Submit(match.Request{Action: move("c")})
	s.Abort(c)

	c, err = s.Begin()
	require.NoError(t, err)
	assert.Same(t, base, c.Previous)
	assert.False(t, c.First)
	assert.Equal(t, []match.Action{move("a"), move("b"), move("c")}, c.Actions)
}

func TestSession_OneCycleAtATime(t *testing.T) {
	s := newSession(t)
	s.Submit(match.Request{GameState: &match.Snapshot{}})

	c, err := s.Begin()
	require.NoError(t, err)
	_, err = s.Begin()
	require.ErrorIs(t, err, ErrBusy)

	s.Abort(c)
	_, err = s.Begin()
	require.NoError(t, err)
}

func TestSession_CloseStopsFeed(t *testing.T) {
	s := New(context.Background(), "m2")
	s.Close()
	<-s.Feed().Done()
}
