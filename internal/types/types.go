package types

import (
	"time"

	pub "github.com/DoyleJ11/match-commentary/pkg/types"
)

// ClientMessage is sent by websocket subscribers.
type ClientMessage struct {
	Type string `json:"type"` // "Poll" | "Ping"
}

type ServerMessage struct {
	Type       string          `json:"type"` // "Commentary" | "Pong" | "Error"
	Seq        int             `json:"seq,omitempty"`
	At         *time.Time      `json:"at,omitempty"`
	Commentary *pub.Commentary `json:"commentary,omitempty"`
	Error      string          `json:"error,omitempty"`
}
