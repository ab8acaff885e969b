package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/match-commentary/internal/commentary"
	"github.com/DoyleJ11/match-commentary/internal/hub"
	"github.com/DoyleJ11/match-commentary/internal/match"
	"github.com/DoyleJ11/match-commentary/internal/prompt"
	"github.com/DoyleJ11/match-commentary/internal/tts"
	"github.com/DoyleJ11/match-commentary/internal/types"
)

type echoGen struct{}

func (echoGen) Chat(context.Context, string, string, string, string) (string, error) {
	return "Marcus Windcaller breaks the line.", nil
}

func snapshot() *match.Snapshot {
	x, y := 9, 12
	return &match.Snapshot{Half: 1, Turn: 2, Teams: []match.Team{
		{ID: "t1", Name: "Thornwood Giants", Players: []match.Player{
			{ID: "p1", Name: "Marcus Windcaller", Role: "Blitzer", Position: &match.Position{X: &x, Y: &y}},
		}},
		{ID: "t2", Name: "Silver Falcons"},
	}}
}

func setup(t *testing.T) (*commentary.Service, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := hub.NewHub(ctx)
	svc := commentary.NewService(h, echoGen{}, tts.Nop{}, nil, commentary.Config{Profile: prompt.DefaultProfile()}, nil)

	r := chi.NewRouter()
	r.Get("/matches/{id}/ws", Handler(svc, Options{}))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		h.Shutdown()
		cancel()
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server, matchID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/matches/" + matchID + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string) {
	t.Helper()
	data, err := json.Marshal(types.ClientMessage{Type: typ})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func receive(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_UnknownMatch(t *testing.T) {
	_, srv := setup(t)
	resp, err := http.Get(srv.URL + "/matches/nope/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_PingAndErrors(t *testing.T) {
	svc, srv := setup(t)
	id, err := svc.StartMatch(context.Background())
	require.NoError(t, err)
	conn := dial(t, srv, id)

	send(t, conn, "Ping")
	assert.Equal(t, "Pong", receive(t, conn).Type)

	send(t, conn, "Dance")
	msg := receive(t, conn)
	assert.Equal(t, "Error", msg.Type)
	assert.Equal(t, "unknown type", msg.Error)

	// nothing buffered yet
	send(t, conn, "Poll")
	msg = receive(t, conn)
	assert.Equal(t, "Error", msg.Type)
}

func TestHandler_StreamsCommentary(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	id, err := svc.StartMatch(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Submit(ctx, id, match.Request{GameState: snapshot()}))

	conn := dial(t, srv, id)
	send(t, conn, "Poll")

	msg := receive(t, conn)
	require.Equal(t, "Commentary", msg.Type)
	assert.Equal(t, 1, msg.Seq)
	require.NotNil(t, msg.Commentary)
	assert.Equal(t, id, msg.Commentary.MatchID)
	assert.Equal(t, "Marcus Windcaller breaks the line.", msg.Commentary.Commentary)

	// a late subscriber gets the last line straight away
	late := dial(t, srv, id)
	msg = receive(t, late)
	assert.Equal(t, 1, msg.Seq)

	// ending the match closes the stream
	require.NoError(t, svc.EndMatch(ctx, id))
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err = late.Read(rctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
