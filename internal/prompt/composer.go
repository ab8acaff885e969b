// Package prompt turns a diff cycle into the instruction and the whitelist
// sidecar handed to the text generator.
package prompt

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/match-commentary/internal/engine"
	"github.com/DoyleJ11/match-commentary/internal/match"
)

// FillerInstruction is sent instead of a full prompt when nothing changed
// and no actions were queued.
const FillerInstruction = "nothing notable changed this update.\n" +
	"write exactly one short lowercase line about pressure or build-up on the pitch.\n" +
	"do not write the word \"stall\". no labels, no colons, no names that are not on the roster."

const openingNote = "this is the first update of a new match: set the scene in one line before the action."

// Input is one cycle's worth of material.
type Input struct {
	Previous *match.Snapshot
	Current  *match.Snapshot
	Events   []engine.Event
	Actions  []match.Action
	First    bool
}

type Composer struct {
	profile Profile
}

func NewComposer(p Profile) *Composer {
	return &Composer{profile: p}
}

func (c *Composer) Profile() Profile { return c.profile }

// Compose builds the user message. Events are listed HIGH first, capped at
// MaxEvents; actions keep only the MaxActions most recent.
func (c *Composer) Compose(in Input) string {
	actions := c.describeActions(in)
	if len(in.Events) == 0 && len(actions) == 0 {
		return FillerInstruction
	}
	lim := c.profile.Limits

	var b strings.Builder
	b.WriteString("you are calling a live blood bowl match. write commentary for this update only.\n\n")

	b.WriteString("rules:\n")
	b.WriteString("- 1-3 lines, one sentence each, at most 18 words per line, all lowercase.\n")
	b.WriteString("- no lists, bullets, markdown, json or meta commentary.\n")
	b.WriteString("- use only team and player names from the current state; otherwise use the role.\n")
	b.WriteString("- lead with HIGH events.\n\n")

	if in.First {
		b.WriteString(openingNote + "\n\n")
	}

	if len(in.Events) > 0 {
		b.WriteString("[TACTICAL EVENTS]\n")
		shown, more := capEvents(in.Events, lim.MaxEvents)
		for _, e := range shown {
			fmt.Fprintf(&b, "[%s] %s\n", e.Priority, e)
		}
		if more > 0 {
			fmt.Fprintf(&b, "(+%d more)\n", more)
		}
		b.WriteString("\n")
	}

	if len(actions) > 0 {
		b.WriteString("[RECENT ACTIONS]\n")
		skipped := 0
		if lim.MaxActions >= 0 && len(actions) > lim.MaxActions {
			skipped = len(actions) - lim.MaxActions
			actions = actions[skipped:]
		}
		if skipped > 0 {
			fmt.Fprintf(&b, "(+%d more)\n", skipped)
		}
		for _, a := range actions {
			b.WriteString(a + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("[CURRENT STATE]\n")
	b.WriteString(c.snapshotJSON(in.Current) + "\n")
	if in.Previous != nil {
		b.WriteString("[PREVIOUS STATE]\n")
		b.WriteString(c.snapshotJSON(in.Previous) + "\n")
	}

	if len(c.profile.StyleExamples) > 0 {
		b.WriteString("\n[STYLE EXAMPLES] (match the tone, never copy)\n")
		for _, ex := range c.profile.StyleExamples {
			b.WriteString(ex + "\n")
		}
	}
	return b.String()
}

func (c *Composer) describeActions(in Input) []string {
	var out []string
	for _, a := range in.Actions {
		if line, ok := match.Describe(a, in.Current); ok {
			out = append(out, line)
		}
	}
	return out
}

// capEvents orders HIGH before MED, keeping relative order, and truncates.
func capEvents(events []engine.Event, limit int) ([]engine.Event, int) {
	sorted := slices.Clone(events)
	for i := range sorted {
		if sorted[i].Priority == "" {
			sorted[i].Priority = engine.Prioritize(sorted[i].String())
		}
	}
	slices.SortStableFunc(sorted, func(a, b engine.Event) int {
		return rank(a.Priority) - rank(b.Priority)
	})
	if limit <= 0 || len(sorted) <= limit {
		return sorted, 0
	}
	return sorted[:limit], len(sorted) - limit
}

func rank(p engine.Priority) int {
	if p == engine.PriorityHigh {
		return 0
	}
	return 1
}

func (c *Composer) snapshotJSON(s *match.Snapshot) string {
	if s == nil {
		return "null"
	}
	raw, err := json.Marshal(promptView(s))
	if err != nil {
		return "null"
	}
	return truncate(string(raw), c.profile.Limits.MaxSnapshotBytes)
}

// promptView drops per-player detail the generator never uses. s itself is
// not modified.
func promptView(s *match.Snapshot) *match.Snapshot {
	v := *s
	v.Teams = make([]match.Team, len(s.Teams))
	for i, t := range s.Teams {
		players := make([]match.Player, len(t.Players))
		for j, p := range t.Players {
			p.Skills, p.State, p.Team = nil, nil, ""
			players[j] = p
		}
		t.Players = players
		v.Teams[i] = t
	}
	return &v
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
