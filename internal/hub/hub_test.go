package hub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/DoyleJ11/match-commentary/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(context.Background())
	t.Cleanup(h.Shutdown)
	return h
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newHub(t)
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateMatch{ID: "ZED123", Reply: reply}
	s1 := <-reply

	h.Inbox() <- GetMatch{ID: "ZED123", Reply: reply}
	s2 := <-reply

	if s1 == nil || s2 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_CreateAssignsUUIDAndBecomesCurrent(t *testing.T) {
	ctx := context.Background()
	h := newHub(t)

	first := h.Create(ctx, "")
	if first == nil {
		t.Fatalf("expected a session")
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Fatalf("match id %q is not a uuid: %v", first.ID, err)
	}
	if cur := h.Current(ctx); cur != first {
		t.Fatalf("current = %v, want first match", cur)
	}

	second := h.Create(ctx, "")
	if second.ID == first.ID {
		t.Fatalf("expected distinct ids")
	}
	if cur := h.Current(ctx); cur != second {
		t.Fatalf("current should follow the newest match")
	}
	if h.Get(ctx, first.ID) != first {
		t.Fatalf("older match must stay reachable by id")
	}
}

func TestHub_RemoveClosesSession(t *testing.T) {
	ctx := context.Background()
	h := newHub(t)

	s := h.Create(ctx, "gone")
	if !h.Remove(ctx, "gone") {
		t.Fatalf("expected remove to report success")
	}
	if h.Remove(ctx, "gone") {
		t.Fatalf("second remove should report false")
	}
	if h.Get(ctx, "gone") != nil {
		t.Fatalf("removed match still reachable")
	}
	if h.Current(ctx) != nil {
		t.Fatalf("removed match still current")
	}

	select {
	case <-s.Feed().Done():
	case <-time.After(time.Second):
		t.Fatalf("session feed not stopped")
	}
}

func TestHub_ShutdownStopsEverything(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx)
	s := h.Create(ctx, "m")

	h.Shutdown()

	select {
	case <-s.Feed().Done():
	case <-time.After(time.Second):
		t.Fatalf("session feed not stopped")
	}
	if h.Get(ctx, "m") != nil {
		t.Fatalf("stopped hub must answer nil")
	}
}
