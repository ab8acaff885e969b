package engine

import (
	"strings"

	"github.com/DoyleJ11/match-commentary/internal/match"
)

func ContainsEvent(events []Event, kind Kind) bool {
	for _, event := range events {
		if event.Kind == kind {
			return true
		}
	}
	return false
}

// matchTeam finds the counterpart of t in s, by id when present and by name
// otherwise.
func matchTeam(s *match.Snapshot, t match.Team) (match.Team, bool) {
	for _, other := range s.Teams {
		if t.ID != "" && other.ID == t.ID {
			return other, true
		}
		if t.ID == "" && other.ID == "" && other.Name == t.Name {
			return other, true
		}
	}
	return match.Team{}, false
}

func caged(s *match.Snapshot) bool {
	return s.Cage != nil && s.Cage.IsCaged
}

func carrier(s *match.Snapshot) string {
	if s.Ball == nil {
		return ""
	}
	return s.Ball.Carried
}

// carrierSquare resolves where the caged carrier stands: the reported carrier
// position, then the carrier's own position, then the sentinel.
func carrierSquare(s *match.Snapshot) match.Coord {
	if s.Cage == nil {
		return match.Absent
	}
	if s.Cage.CarrierPosition != nil {
		return *s.Cage.CarrierPosition
	}
	if p, _, ok := locate(s, s.Cage.CarrierName); ok {
		if c, ok := p.Position.Coord(); ok {
			return c
		}
	}
	return match.Absent
}

func missingCorners(s *match.Snapshot) []match.Coord {
	if s.Cage == nil {
		return nil
	}
	return s.Cage.MissingCorners
}

func cageCorners(s *match.Snapshot) []match.Coord {
	if s.Cage == nil {
		return nil
	}
	return s.Cage.Corners
}

// subtract returns the distinct coords of a that are not in b, in the order
// they first appear in a.
func subtract(a, b []match.Coord) []match.Coord {
	drop := make(map[match.Coord]bool, len(b))
	for _, c := range b {
		drop[c] = true
	}
	var out []match.Coord
	for _, c := range a {
		if drop[c] {
			continue
		}
		drop[c] = true
		out = append(out, c)
	}
	return out
}

func joinCoords(cs []match.Coord) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

func orUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

// locate finds a named player and the index of its team.
func locate(s *match.Snapshot, name string) (match.Player, int, bool) {
	if name == "" {
		return match.Player{}, -1, false
	}
	for ti, t := range s.Teams {
		for _, p := range t.Players {
			if p.Name == name {
				return p, ti, true
			}
		}
	}
	return match.Player{}, -1, false
}

// carrierTeam is the team index of whoever the cage protects, falling back
// to the ball carrier.
func carrierTeam(s *match.Snapshot) int {
	name := carrier(s)
	if s.Cage != nil && s.Cage.CarrierName != "" {
		name = s.Cage.CarrierName
	}
	_, ti, _ := locate(s, name)
	return ti
}

// occupantAt names the player standing on c, searching the carrier's team
// before the rest.
func occupantAt(s *match.Snapshot, c match.Coord) (string, bool) {
	preferred := carrierTeam(s)
	order := make([]int, 0, len(s.Teams))
	if preferred >= 0 {
		order = append(order, preferred)
	}
	for ti := range s.Teams {
		if ti != preferred {
			order = append(order, ti)
		}
	}
	for _, ti := range order {
		for _, p := range s.Teams[ti].Players {
			if pc, ok := p.Position.Coord(); ok && pc == c && p.Name != "" {
				return p.Name, true
			}
		}
	}
	return "", false
}

// adjacentOpponents lists opposing players within one square of the ball
// carrier, in roster order.
func adjacentOpponents(s *match.Snapshot) []string {
	p, team, ok := locate(s, carrier(s))
	if !ok {
		return nil
	}
	at, ok := p.Position.Coord()
	if !ok && s.Ball != nil {
		at, ok = s.Ball.Position.Coord()
	}
	if !ok {
		return nil
	}

	var names []string
	for ti, t := range s.Teams {
		if ti == team {
			continue
		}
		for _, opp := range t.Players {
			c, ok := opp.Position.Coord()
			if !ok || opp.Name == "" {
				continue
			}
			if at.Chebyshev(c) <= 1 {
				names = append(names, opp.Name)
			}
		}
	}
	return names
}
