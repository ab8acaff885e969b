// Package ws streams a match's finished commentary to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/match-commentary/internal/commentary"
	"github.com/DoyleJ11/match-commentary/internal/feed"
	"github.com/DoyleJ11/match-commentary/internal/types"
	pub "github.com/DoyleJ11/match-commentary/pkg/types"
)

const (
	outboxSize   = 8
	writeTimeout = 3 * time.Second
)

type Options struct {
	// OriginPatterns are passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
	Logger         *zap.Logger
}

// Handler upgrades GET /matches/{id}/ws. Clients receive every published
// commentary line (the most recent one immediately on join) and may send
// {"type":"Poll"} to run a cycle or {"type":"Ping"}.
func Handler(svc *commentary.Service, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := chi.URLParam(r, "id")
		sess, err := svc.Session(r.Context(), matchID)
		if err != nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		f := sess.Feed()
		out := make(chan feed.Update, outboxSize)
		clientID := uuid.NewString()
		if !f.Send(feed.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "match ended")
			return
		}
		defer f.Send(feed.Leave{ClientID: clientID})
		log := log.With(zap.String("match_id", matchID), zap.String("client_id", clientID))
		log.Debug("subscriber joined")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. The feed closes out when the match ends or this
		// client falls too far behind.
		go func() {
			for u := range out {
				if err := write(ctx, conn, updateMessage(u)); err != nil {
					break
				}
			}
			conn.Close(websocket.StatusGoingAway, "feed closed")
			cancel()
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(ctx, conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			switch cm.Type {
			case "Ping":
				_ = write(ctx, conn, types.ServerMessage{Type: "Pong"})
			case "Poll":
				// Successful cycles reach this client through the feed.
				if _, err := svc.Poll(ctx, matchID); err != nil {
					log.Debug("poll from websocket failed", zap.Error(err))
					_ = write(ctx, conn, types.ServerMessage{Type: "Error", Error: err.Error()})
				}
			default:
				_ = write(ctx, conn, types.ServerMessage{Type: "Error", Error: "unknown type"})
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func updateMessage(u feed.Update) types.ServerMessage {
	at := u.At
	return types.ServerMessage{
		Type: "Commentary",
		Seq:  u.Seq,
		At:   &at,
		Commentary: &pub.Commentary{
			MatchID:    u.MatchID,
			Commentary: u.Commentary,
			AudioFile:  u.AudioFile,
			Events:     u.Events,
			BundleID:   u.BundleID,
		},
	}
}
