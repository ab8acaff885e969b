package match

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is one discrete notification from the game client. The set of
// variants is closed; Describe switches over all of them.
type Action interface{ isAction() }

type Move struct {
	PlayerID string
	To       *Coord
}

type Block struct {
	PlayerID string
	Target   *Coord
}

type Blitz struct {
	PlayerID string
	Target   *Coord
}

type Foul struct {
	PlayerID string
	Target   *Coord
}

type Pass struct {
	PlayerID string
	Target   *Coord
}

type Handoff struct {
	PlayerID string
	Target   *Coord
}

// Unrecognized keeps action types the commentary does not narrate
// (setup, end turn, reroll prompts...).
type Unrecognized struct {
	Type     string
	PlayerID string
}

func (Move) isAction()         {}
func (Block) isAction()        {}
func (Blitz) isAction()        {}
func (Foul) isAction()         {}
func (Pass) isAction()         {}
func (Handoff) isAction()      {}
func (Unrecognized) isAction() {}

type wireAction struct {
	ActionType string    `json:"action_type"`
	Position   *Position `json:"position,omitempty"`
	PlayerID   string    `json:"player_id,omitempty"`
}

func decodeAction(raw json.RawMessage) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	var target *Coord
	if c, ok := w.Position.Coord(); ok {
		target = &c
	}

	kind := strings.ToUpper(strings.TrimSpace(w.ActionType))
	kind = strings.TrimPrefix(kind, "ACTIONTYPE.")
	switch kind {
	case "MOVE":
		return Move{PlayerID: w.PlayerID, To: target}, nil
	case "BLOCK":
		return Block{PlayerID: w.PlayerID, Target: target}, nil
	case "BLITZ":
		return Blitz{PlayerID: w.PlayerID, Target: target}, nil
	case "FOUL":
		return Foul{PlayerID: w.PlayerID, Target: target}, nil
	case "PASS":
		return Pass{PlayerID: w.PlayerID, Target: target}, nil
	case "HANDOFF":
		return Handoff{PlayerID: w.PlayerID, Target: target}, nil
	default:
		return Unrecognized{Type: w.ActionType, PlayerID: w.PlayerID}, nil
	}
}

// Describe renders an action as one prompt line, resolving the acting
// player against the snapshot. ok is false for actions that are not narrated.
func Describe(a Action, s *Snapshot) (line string, ok bool) {
	switch act := a.(type) {
	case Move:
		return fmt.Sprintf("move: player=%q to=%s", playerName(s, act.PlayerID), square(act.To)), true
	case Block:
		return fmt.Sprintf("block: player=%q at=%s", playerName(s, act.PlayerID), square(act.Target)), true
	case Blitz:
		return fmt.Sprintf("blitz: player=%q at=%s", playerName(s, act.PlayerID), square(act.Target)), true
	case Foul:
		return fmt.Sprintf("foul: player=%q at=%s", playerName(s, act.PlayerID), square(act.Target)), true
	case Pass:
		return fmt.Sprintf("pass: player=%q to=%s", playerName(s, act.PlayerID), square(act.Target)), true
	case Handoff:
		return fmt.Sprintf("handoff: player=%q to=%s", playerName(s, act.PlayerID), square(act.Target)), true
	case Unrecognized:
		return "", false
	default:
		return "", false
	}
}

func playerName(s *Snapshot, id string) string {
	if p, ok := s.PlayerByID(id); ok && p.Name != "" {
		if p.Role != "" {
			return p.Name + " (" + p.Role + ")"
		}
		return p.Name
	}
	return "unknown player"
}

func square(c *Coord) string {
	if c == nil {
		return "(" + Absent.String() + ")"
	}
	return "(" + c.String() + ")"
}
