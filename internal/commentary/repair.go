package commentary

import (
	"context"
	"fmt"
	"strings"

	"github.com/DoyleJ11/match-commentary/internal/llm"
	"github.com/DoyleJ11/match-commentary/internal/prompt"
)

type RepairPolicy string

const (
	// PolicyFailOpen returns the repaired text whether or not it validates.
	PolicyFailOpen RepairPolicy = "fail-open"
	// PolicySuppress re-validates and returns nothing on a second failure.
	PolicySuppress RepairPolicy = "suppress"
	// PolicySalvage re-validates and keeps only the lines that pass.
	PolicySalvage RepairPolicy = "salvage"
)

func ParseRepairPolicy(s string) (RepairPolicy, error) {
	switch p := RepairPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyFailOpen, nil
	case PolicyFailOpen, PolicySuppress, PolicySalvage:
		return p, nil
	default:
		return "", fmt.Errorf("commentary: unknown repair policy %q", s)
	}
}

// Repairer asks the generator to rewrite output that failed validation. It
// makes exactly one call and does not validate the result.
type Repairer struct {
	gen         llm.Generator
	model       string
	examples    []string
	maxExamples int
}

func NewRepairer(gen llm.Generator, model string, examples []string, maxExamples int) *Repairer {
	return &Repairer{gen: gen, model: model, examples: examples, maxExamples: maxExamples}
}

func (r *Repairer) Repair(ctx context.Context, sessionID, badOutput string, wl prompt.Whitelist) (string, error) {
	examples := r.examples
	if r.maxExamples >= 0 && len(examples) > r.maxExamples {
		examples = examples[:r.maxExamples]
	}
	return r.gen.Chat(ctx, sessionID, BuildRepairPrompt(badOutput, examples, wl), wl.Render(), r.model)
}

// BuildRepairPrompt restates the output rules and the exact name sets, then
// quotes the rejected text.
func BuildRepairPrompt(badOutput string, examples []string, wl prompt.Whitelist) string {
	var b strings.Builder
	b.WriteString("rewrite the commentary to satisfy every rule. output only the final lines, nothing else.\n")
	b.WriteString("- 1-3 lines total; one sentence per line; at most 18 words per line.\n")
	b.WriteString("- no intros, no meta, no lists, no markdown.\n")
	b.WriteString("- use only these names; do not invent others.\n")
	b.WriteString("teams: " + strings.Join(wl.Teams, ", ") + "\n")
	b.WriteString("players: " + strings.Join(wl.Players, ", ") + "\n")
	b.WriteString("roles: " + strings.Join(wl.Roles, ", ") + "\n")
	b.WriteString("- if nothing notable happened, output nothing.\n")
	if len(examples) > 0 {
		b.WriteString("\nstyle examples (do not copy content):\n")
		for _, ex := range examples {
			b.WriteString("- " + ex + "\n")
		}
	}
	b.WriteString("\nbad output to fix:\n")
	b.WriteString(strings.TrimSpace(badOutput) + "\n")
	return b.String()
}
