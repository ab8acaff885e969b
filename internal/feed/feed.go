// Package feed fans finished commentary out to live subscribers of one match.
package feed

import (
	"context"
	"time"
)

type Msg interface{ isFeedMsg() }

type Join struct {
	ClientID string
	Outbox   chan Update // where this subscriber receives commentary
}

func (Join) isFeedMsg() {}

type Leave struct{ ClientID string }

func (Leave) isFeedMsg() {}

type Publish struct {
	Update Update
}

func (Publish) isFeedMsg() {}

type Shutdown struct{}

func (Shutdown) isFeedMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isFeedMsg() {}

// Update is one finished piece of commentary. Seq is assigned by the feed.
type Update struct {
	Seq        int
	MatchID    string
	Commentary string
	AudioFile  string
	Events     []string
	BundleID   string
	At         time.Time
}

type View struct {
	Seq        int
	NumClients int
	Last       *Update
}

type Feed struct {
	inbox   chan Msg
	seq     int
	last    *Update
	clients map[string]chan Update
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context) *Feed {
	ctx, cancel := context.WithCancel(parent)

	f := &Feed{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan Update),
		ctx:     ctx,
		cancel:  cancel,
	}

	go f.loop()
	return f
}

func (f *Feed) loop() {
	for {
		select {
		case <-f.ctx.Done():
			f.shutdown()
			return

		case m := <-f.inbox:
			switch msg := m.(type) {
			case Join:
				f.clients[msg.ClientID] = msg.Outbox
				if f.last != nil {
					f.deliver(msg.ClientID, msg.Outbox, *f.last)
				}

			case Leave:
				if ch, ok := f.clients[msg.ClientID]; ok {
					close(ch)
					delete(f.clients, msg.ClientID)
				}

			case Publish:
				f.seq++
				u := msg.Update
				u.Seq = f.seq
				f.last = &u
				for id, ch := range f.clients {
					f.deliver(id, ch, u)
				}

			case GetState:
				msg.Reply <- View{Seq: f.seq, NumClients: len(f.clients), Last: f.last}

			case Shutdown:
				f.shutdown()
				return
			}
		}
	}
}

// deliver never blocks the actor: a subscriber with a full outbox is dropped.
func (f *Feed) deliver(id string, ch chan Update, u Update) {
	select {
	case ch <- u:
	default:
		close(ch)
		delete(f.clients, id)
	}
}

func (f *Feed) shutdown() {
	for id, ch := range f.clients {
		close(ch)
		delete(f.clients, id)
	}
	f.cancel()
}

func (f *Feed) Inbox() chan<- Msg { return f.inbox }

// Send delivers m unless the feed has already stopped.
func (f *Feed) Send(m Msg) bool {
	select {
	case f.inbox <- m:
		return true
	case <-f.ctx.Done():
		return false
	}
}

// Done is closed once the feed stops.
func (f *Feed) Done() <-chan struct{} { return f.ctx.Done() }
