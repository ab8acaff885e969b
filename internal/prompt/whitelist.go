package prompt

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/match-commentary/internal/match"
)

// SidecarBanned is always part of the whitelist sidecar, on top of whatever
// the profile bans.
var SidecarBanned = []string{"folks", "welcome", "stay tuned", "halftime", "pregame", "postgame"}

// Whitelist is the set of names the generator may use plus the phrases it
// must not. Every list is lowercased, deduplicated and sorted.
type Whitelist struct {
	Teams   []string `json:"teams"`
	Players []string `json:"players"`
	Roles   []string `json:"roles"`
	Banned  []string `json:"banned"`
}

// BuildWhitelist collects team, player and role names from the snapshot.
func BuildWhitelist(s *match.Snapshot, extraBanned []string) Whitelist {
	lower := cases.Lower(language.Und)
	var teams, players, roles []string
	if s != nil {
		for _, t := range s.Teams {
			teams = append(teams, t.Name)
			for _, p := range t.Players {
				players = append(players, p.Name)
				roles = append(roles, p.Role)
			}
		}
	}
	return Whitelist{
		Teams:   normalizeSet(lower, teams),
		Players: normalizeSet(lower, players),
		Roles:   normalizeSet(lower, roles),
		Banned:  normalizeSet(lower, append(slices.Clone(SidecarBanned), extraBanned...)),
	}
}

func normalizeSet(lower cases.Caser, in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = lower.String(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Render produces the system-level sidecar appended to the generator's
// system prompt. It ends with the ### stop sentinel.
func (w Whitelist) Render() string {
	var b strings.Builder
	b.WriteString("whitelist and output gate:\n")
	b.WriteString("VALID_TEAMS: " + jsonList(w.Teams) + "\n")
	b.WriteString("VALID_PLAYERS: " + jsonList(w.Players) + "\n")
	b.WriteString("VALID_ROLES: " + jsonList(w.Roles) + "\n")
	b.WriteString("BANNED_PHRASES: " + jsonList(w.Banned) + "\n")
	b.WriteString("rules:\n")
	b.WriteString("- output 1-3 lines, each at most 18 words, all lowercase.\n")
	b.WriteString("- use only names from VALID_TEAMS and VALID_PLAYERS; if unsure, use a role from VALID_ROLES.\n")
	b.WriteString("- no intros, no summaries, no greetings, no crowd hype, no banned phrases.\n")
	b.WriteString("- comment only on the newest events; do not repeat earlier highlights.\n")
	b.WriteString(StopSentinel + "\n")
	return b.String()
}

// StopSentinel closes the sidecar; generators should stop on it.
const StopSentinel = "###"

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(items)
	return strings.TrimSuffix(buf.String(), "\n")
}
