// Package session holds the per-match state the commentary pipeline diffs
// against: the latest buffered snapshot, the snapshot of the last completed
// cycle, and the queue of actions seen in between.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DoyleJ11/match-commentary/internal/feed"
	"github.com/DoyleJ11/match-commentary/internal/match"
	"github.com/DoyleJ11/match-commentary/internal/queue"
)

var (
	ErrNoSnapshot = errors.New("no snapshot buffered")
	ErrBusy       = errors.New("a commentary cycle is already running")
)

type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	latest    *match.Snapshot
	previous  *match.Snapshot
	committed bool
	running   bool

	actions *queue.Queue[match.Action]
	feed    *feed.Feed
}

// Cycle is one pipeline run's view of the session. Nothing in the session
// changes until the cycle is committed or aborted.
type Cycle struct {
	Previous *match.Snapshot
	Current  *match.Snapshot
	First    bool
	Actions  []match.Action
}

func New(ctx context.Context, id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		actions:   queue.New[match.Action](),
		feed:      feed.New(ctx),
	}
}

// Submit buffers a notification. A snapshot replaces the latest one
// wholesale; an action is queued.
func (s *Session) Submit(req match.Request) {
	if req.GameState != nil {
		s.mu.Lock()
		s.latest = req.GameState
		s.mu.Unlock()
	}
	if req.Action != nil {
		s.actions.Enqueue(req.Action)
	}
}

// Begin opens a cycle against the latest snapshot and drains queued actions.
// Only one cycle may be open at a time.
func (s *Session) Begin() (Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return Cycle{}, ErrBusy
	}
	if s.latest == nil {
		return Cycle{}, ErrNoSnapshot
	}
	s.running = true
	return Cycle{
		Previous: s.previous,
		Current:  s.latest,
		First:    !s.committed,
		Actions:  s.actions.Drain(),
	}, nil
}

// Commit promotes the cycle's snapshot to previous.
func (s *Session) Commit(c Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = c.Current
	s.committed = true
	s.running = false
}

// Abort puts the cycle's actions back at the front of the queue so the next
// cycle sees them.
func (s *Session) Abort(c Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions.Requeue(c.Actions)
	s.running = false
}

// Latest returns the most recently buffered snapshot, or nil.
func (s *Session) Latest() *match.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Session) PendingActions() int { return s.actions.Count() }

func (s *Session) Feed() *feed.Feed { return s.feed }

// Close stops the session's feed and disconnects its subscribers.
func (s *Session) Close() {
	s.feed.Send(feed.Shutdown{})
}
