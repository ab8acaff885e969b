// Package hub is the registry of live match sessions.
package hub

import (
	"context"

	"github.com/google/uuid"

	"github.com/DoyleJ11/match-commentary/internal/session"
)

type HubMsg interface{ isHubMsg() }

// CreateMatch starts a session and makes it current. An empty ID gets a
// fresh UUID; an existing ID returns the existing session.
type CreateMatch struct {
	ID    string
	Reply chan *session.Session
}

type GetMatch struct {
	ID    string
	Reply chan *session.Session
}

// CurrentMatch returns the most recently created match, or nil.
type CurrentMatch struct {
	Reply chan *session.Session
}

type RemoveMatch struct {
	ID    string
	Reply chan bool
}

type ShutdownHub struct{}

func (CreateMatch) isHubMsg()  {}
func (GetMatch) isHubMsg()     {}
func (CurrentMatch) isHubMsg() {}
func (RemoveMatch) isHubMsg()  {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox   chan HubMsg
	matches map[string]*session.Session
	current string
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		matches: make(map[string]*session.Session),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateMatch:
				id := msg.ID
				if id == "" {
					id = uuid.NewString()
				}
				s := h.matches[id]
				if s == nil {
					s = session.New(h.ctx, id)
					h.matches[id] = s
				}
				h.current = id
				msg.Reply <- s

			case GetMatch:
				msg.Reply <- h.matches[msg.ID] // may be nil

			case CurrentMatch:
				msg.Reply <- h.matches[h.current] // may be nil

			case RemoveMatch:
				s, ok := h.matches[msg.ID]
				if ok {
					s.Close()
					delete(h.matches, msg.ID)
					if h.current == msg.ID {
						h.current = ""
					}
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ShutdownHub:
				h.closeAll()
				h.cancel()
			}
		}
	}
}

func (h *Hub) closeAll() {
	for _, s := range h.matches {
		s.Close()
	}
	clear(h.matches)
	h.current = ""
}

// The helpers below wrap the request/reply messages for callers that hold a
// context. They return nil (or false) if the hub has stopped.

func (h *Hub) Create(ctx context.Context, id string) *session.Session {
	reply := make(chan *session.Session, 1)
	return ask(ctx, h, CreateMatch{ID: id, Reply: reply}, reply)
}

func (h *Hub) Get(ctx context.Context, id string) *session.Session {
	reply := make(chan *session.Session, 1)
	return ask(ctx, h, GetMatch{ID: id, Reply: reply}, reply)
}

func (h *Hub) Current(ctx context.Context) *session.Session {
	reply := make(chan *session.Session, 1)
	return ask(ctx, h, CurrentMatch{Reply: reply}, reply)
}

func (h *Hub) Remove(ctx context.Context, id string) bool {
	reply := make(chan bool, 1)
	return ask(ctx, h, RemoveMatch{ID: id, Reply: reply}, reply)
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func ask[T any](ctx context.Context, h *Hub, msg HubMsg, reply chan T) T {
	var zero T
	select {
	case h.inbox <- msg:
	case <-h.ctx.Done():
		return zero
	case <-ctx.Done():
		return zero
	}
	select {
	case v := <-reply:
		return v
	case <-h.ctx.Done():
		return zero
	case <-ctx.Done():
		return zero
	}
}
