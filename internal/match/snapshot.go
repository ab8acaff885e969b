package match

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the full match state at one instant. Once parsed it is never
// mutated; a newer update replaces it wholesale.
type Snapshot struct {
	Half             int               `json:"half"`
	Turn             int               `json:"turn"`
	Weather          string            `json:"weather,omitempty"`
	Ball             *Ball             `json:"ball,omitempty"`
	Teams            []Team            `json:"teams"`
	CurrentTeam      string            `json:"current_team,omitempty"`
	GameOver         bool              `json:"game_over"`
	Cage             *Cage             `json:"cage,omitempty"`
	Screen           *Screen           `json:"screen,omitempty"`
	SidelinePressure *SidelinePressure `json:"sideline_pressure,omitempty"`
	Stalling         *Stalling         `json:"stalling,omitempty"`
}

type Ball struct {
	Position *Position `json:"position,omitempty"`
	OnGround bool      `json:"on_ground"`
	Carried  string    `json:"carried,omitempty"`
}

type Team struct {
	ID      string   `json:"team_id"`
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Turn    int      `json:"turn"`
	Rerolls int      `json:"rerolls"`
	Players []Player `json:"players"`
}

type Player struct {
	ID       string       `json:"player_id"`
	Position *Position    `json:"position,omitempty"`
	Team     string       `json:"team,omitempty"`
	Role     string       `json:"role,omitempty"`
	Name     string       `json:"name"`
	Skills   []string     `json:"skills,omitempty"`
	State    *PlayerState `json:"state,omitempty"`
}

type PlayerState struct {
	Stunned bool `json:"stunned"`
	Used    bool `json:"used"`
	HasBall bool `json:"has_ball"`
	Up      bool `json:"up"`
}

// Position is a nullable grid square. Off-pitch players carry nil fields.
type Position struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// Coord returns the square and whether both components are known.
func (p *Position) Coord() (Coord, bool) {
	if p == nil || p.X == nil || p.Y == nil {
		return Absent, false
	}
	return Coord{X: *p.X, Y: *p.Y}, true
}

type Cage struct {
	IsCaged         bool    `json:"cage_present"`
	CarrierName     string  `json:"carrier_name,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	CarrierPosition *Coord  `json:"carrier_position,omitempty"`
	Corners         []Coord `json:"cage_positions,omitempty"`
	MissingCorners  []Coord `json:"missing_cage_corners,omitempty"`
}

type Screen struct {
	HasScreen bool    `json:"has_screen"`
	Screeners []Coord `json:"screeners,omitempty"`
}

type SidelinePressure struct {
	SidelineThreat  bool       `json:"sideline_threat"`
	NearSideline    bool       `json:"near_sideline"`
	DefendersNearby []Occupant `json:"defenders_nearby,omitempty"`
}

type Stalling struct {
	Stalling            bool       `json:"stalling"`
	NearEndzone         bool       `json:"near_endzone"`
	SupportingTeammates []Occupant `json:"supporting_teammates,omitempty"`
}

// Occupant is a role standing on a square, as reported by the tactical
// detectors upstream.
type Occupant struct {
	Role     string `json:"role,omitempty"`
	Position *Coord `json:"position,omitempty"`
}

// Coord is a grid square encoded on the wire as a [x, y] array.
type Coord struct {
	X int
	Y int
}

// Absent renders missing coordinates.
var Absent = Coord{X: -1, Y: -1}

func (c Coord) String() string { return fmt.Sprintf("%d,%d", c.X, c.Y) }

// Chebyshev is the king-move distance between two squares.
func (c Coord) Chebyshev(o Coord) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON accepts short or null arrays; missing components become -1.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var raw []*int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	*c = Absent
	if len(raw) > 0 && raw[0] != nil {
		c.X = *raw[0]
	}
	if len(raw) > 1 && raw[1] != nil {
		c.Y = *raw[1]
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlayerByID resolves a player id to a player.
func (s *Snapshot) PlayerByID(id string) (Player, bool) {
	if s == nil || id == "" {
		return Player{}, false
	}
	for _, t := range s.Teams {
		for _, p := range t.Players {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Player{}, false
}
