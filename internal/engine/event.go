package engine

import "strings"

// Kind is the closed set of tactical changes the diff can report.
type Kind string

const (
	KindHalfChange       Kind = "half-change"
	KindTurnChange       Kind = "turn-change"
	KindScoreChange      Kind = "score-change"
	KindCageFormed       Kind = "cage-formed"
	KindCageBroken       Kind = "cage-broken"
	KindCageStrengthened Kind = "cage-strengthened"
	KindCageWeakened     Kind = "cage-weakened"
	KindCornerJoined     Kind = "corner-joined"
	KindCornerLeft       Kind = "corner-left"
	KindScreenFormed     Kind = "screen-formed"
	KindScreenBroken     Kind = "screen-broken"
	KindSidelineThreat   Kind = "sideline-threat"
	KindStallingStart    Kind = "stalling-start"
	KindStallingEnd      Kind = "stalling-end"
	KindBallPickup       Kind = "ball-pickup"
	KindBallDropped      Kind = "ball-dropped"
	KindPossessionChange Kind = "possession-change"
	KindAdjacencyThreat  Kind = "adjacency-threat"
)

type Priority string

const (
	PriorityHigh Priority = "HIGH"
	PriorityMed  Priority = "MED"
)

// label is how a kind is written in prompt text: "<category>: <verb>".
type label struct {
	category string
	verb     string
}

var labels = map[Kind]label{
	KindHalfChange:       {category: "half_change"},
	KindTurnChange:       {category: "turn_change"},
	KindScoreChange:      {category: "score_change"},
	KindCageFormed:       {category: "cage_status", verb: "formed"},
	KindCageBroken:       {category: "cage_status", verb: "broken"},
	KindCageStrengthened: {category: "cage_construction", verb: "strengthened"},
	KindCageWeakened:     {category: "cage_construction", verb: "weakened"},
	KindCornerJoined:     {category: "cage_corner", verb: "joined"},
	KindCornerLeft:       {category: "cage_corner", verb: "left"},
	KindScreenFormed:     {category: "screen_status", verb: "formed"},
	KindScreenBroken:     {category: "screen_status", verb: "broken"},
	KindSidelineThreat:   {category: "sideline_threat", verb: "active"},
	KindStallingStart:    {category: "stalling_status", verb: "active"},
	KindStallingEnd:      {category: "stalling_status", verb: "ended"},
	KindBallPickup:       {category: "ball_event", verb: "pickup"},
	KindBallDropped:      {category: "ball_event", verb: "dropped"},
	KindPossessionChange: {category: "ball_event", verb: "possession_change"},
	KindAdjacencyThreat:  {category: "attackers_appear"},
}

// Kinds lists every kind in diff category order.
var Kinds = []Kind{
	KindHalfChange, KindTurnChange,
	KindScoreChange,
	KindCageFormed, KindCageBroken,
	KindCageStrengthened, KindCageWeakened,
	KindCornerJoined, KindCornerLeft,
	KindScreenFormed, KindScreenBroken,
	KindSidelineThreat,
	KindStallingStart, KindStallingEnd,
	KindBallPickup, KindBallDropped, KindPossessionChange,
	KindAdjacencyThreat,
}

type Param struct {
	Key    string
	Value  string
	Quoted bool
}

type Event struct {
	Kind     Kind
	Params   []Param
	Priority Priority
}

// Param returns the value stored under key.
func (e Event) Param(key string) (string, bool) {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the event the way it appears in prompts, e.g.
// `cage_status: formed carrier="Marcus Windcaller" pos=(9,12)`.
func (e Event) String() string {
	l, ok := labels[e.Kind]
	if !ok {
		l = label{category: string(e.Kind)}
	}
	var b strings.Builder
	b.WriteString(l.category)
	b.WriteByte(':')
	if l.verb != "" {
		b.WriteByte(' ')
		b.WriteString(l.verb)
	}
	for _, p := range e.Params {
		b.WriteByte(' ')
		b.WriteString(p.Key)
		b.WriteByte('=')
		if p.Quoted {
			b.WriteByte('"')
			b.WriteString(p.Value)
			b.WriteByte('"')
		} else {
			b.WriteString(p.Value)
		}
	}
	return b.String()
}

func raw(key, value string) Param    { return Param{Key: key, Value: value} }
func quoted(key, value string) Param { return Param{Key: key, Value: value, Quoted: true} }
