package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DoyleJ11/match-commentary/internal/match"
)

// maxNamedAttackers caps how many names an adjacency event lists.
const maxNamedAttackers = 3

type detector func(prev, cur *match.Snapshot) []Event

// detectors run in the category order events are reported in.
var detectors = []detector{
	halfAndTurn,
	scores,
	cageStatus,
	cageConstruction,
	cornerChanges,
	screenStatus,
	sidelineThreat,
	stallingStatus,
	ballControl,
	adjacencyThreat,
}

// Diff compares two snapshots and reports the tactical changes between them.
// It is pure and total: nil snapshots or sub-objects count as absent, and the
// same inputs always yield the same events in the same order.
func Diff(prev, cur *match.Snapshot) []Event {
	if prev == nil {
		prev = &match.Snapshot{}
	}
	if cur == nil {
		cur = &match.Snapshot{}
	}
	var events []Event
	for _, d := range detectors {
		events = append(events, d(prev, cur)...)
	}
	return events
}

func halfAndTurn(prev, cur *match.Snapshot) []Event {
	var events []Event
	if cur.Half != prev.Half {
		events = append(events, Event{Kind: KindHalfChange, Params: []Param{raw("new_half", strconv.Itoa(cur.Half))}})
	}
	if cur.Turn != prev.Turn {
		events = append(events, Event{Kind: KindTurnChange, Params: []Param{raw("new_turn", strconv.Itoa(cur.Turn))}})
	}
	return events
}

func scores(prev, cur *match.Snapshot) []Event {
	var events []Event
	for _, after := range cur.Teams {
		before, ok := matchTeam(prev, after)
		if !ok || after.Score <= before.Score {
			continue
		}
		events = append(events, Event{Kind: KindScoreChange, Params: []Param{
			quoted("team", after.Name),
			raw("touchdowns_gained", strconv.Itoa(after.Score-before.Score)),
		}})
	}
	return events
}

func cageStatus(prev, cur *match.Snapshot) []Event {
	was, is := caged(prev), caged(cur)
	switch {
	case !was && is:
		pos := carrierSquare(cur)
		return []Event{{Kind: KindCageFormed, Params: []Param{
			quoted("carrier", orUnknown(cur.Cage.CarrierName)),
			raw("pos", "("+pos.String()+")"),
		}}}
	case was && !is:
		return []Event{{Kind: KindCageBroken, Params: []Param{
			quoted("carrier", orUnknown(prev.Cage.CarrierName)),
		}}}
	}
	return nil
}

func cageConstruction(prev, cur *match.Snapshot) []Event {
	before, after := missingCorners(prev), missingCorners(cur)
	newlyMissing := subtract(after, before)
	restored := subtract(before, after)

	switch {
	case len(newlyMissing) > len(restored):
		return []Event{{Kind: KindCageWeakened, Params: []Param{raw("new_missing_corners", joinCoords(newlyMissing))}}}
	case len(restored) > len(newlyMissing):
		return []Event{{Kind: KindCageStrengthened, Params: []Param{raw("restored_corners", joinCoords(restored))}}}
	}
	return nil
}

func cornerChanges(prev, cur *match.Snapshot) []Event {
	before, after := cageCorners(prev), cageCorners(cur)

	var events []Event
	for _, c := range subtract(after, before) {
		events = append(events, cornerEvent(KindCornerJoined, cur, c))
	}
	for _, c := range subtract(before, after) {
		events = append(events, cornerEvent(KindCornerLeft, prev, c))
	}
	return events
}

func cornerEvent(kind Kind, s *match.Snapshot, c match.Coord) Event {
	ev := Event{Kind: kind, Params: []Param{raw("corner", c.String())}}
	if name, ok := occupantAt(s, c); ok {
		ev.Params = append(ev.Params, quoted("player", name))
	}
	return ev
}

func screenStatus(prev, cur *match.Snapshot) []Event {
	was := prev.Screen != nil && prev.Screen.HasScreen
	is := cur.Screen != nil && cur.Screen.HasScreen
	switch {
	case !was && is:
		return []Event{{Kind: KindScreenFormed}}
	case was && !is:
		return []Event{{Kind: KindScreenBroken}}
	}
	return nil
}

// sidelineThreat only reports the threat appearing; it has no "ended" event.
func sidelineThreat(prev, cur *match.Snapshot) []Event {
	was := prev.SidelinePressure != nil && prev.SidelinePressure.SidelineThreat
	is := cur.SidelinePressure != nil && cur.SidelinePressure.SidelineThreat
	if !was && is {
		return []Event{{Kind: KindSidelineThreat}}
	}
	return nil
}

func stallingStatus(prev, cur *match.Snapshot) []Event {
	was := prev.Stalling != nil && prev.Stalling.Stalling
	is := cur.Stalling != nil && cur.Stalling.Stalling
	switch {
	case !was && is:
		return []Event{{Kind: KindStallingStart}}
	case was && !is:
		return []Event{{Kind: KindStallingEnd}}
	}
	return nil
}

func ballControl(prev, cur *match.Snapshot) []Event {
	before, after := carrier(prev), carrier(cur)
	switch {
	case before == "" && after != "":
		return []Event{{Kind: KindBallPickup, Params: []Param{quoted("carrier", after)}}}
	case before != "" && after == "":
		return []Event{{Kind: KindBallDropped, Params: []Param{quoted("previous_carrier", before)}}}
	case before != "" && after != "" && before != after:
		return []Event{{Kind: KindPossessionChange, Params: []Param{quoted("new_carrier", after)}}}
	}
	return nil
}

func adjacencyThreat(prev, cur *match.Snapshot) []Event {
	before := adjacentOpponents(prev)
	seen := make(map[string]bool, len(before))
	for _, n := range before {
		seen[n] = true
	}

	var fresh []string
	for _, n := range adjacentOpponents(cur) {
		if !seen[n] {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	names := fresh
	if len(names) > maxNamedAttackers {
		names = names[:maxNamedAttackers]
	}
	list := strings.Join(names, ",")
	if extra := len(fresh) - len(names); extra > 0 {
		list += fmt.Sprintf(" +%d more", extra)
	}
	return []Event{{Kind: KindAdjacencyThreat, Params: []Param{
		raw("adjacent_enemies", strconv.Itoa(len(fresh))),
		quoted("names", list),
	}}}
}
