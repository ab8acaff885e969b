// Package validate enforces the output contract on generated commentary:
// line and word limits, no list formatting, no banned phrases, and no names
// outside the match roster.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLines        = 1
	MaxLines        = 3
	MaxWordsPerLine = 18
)

const (
	ReasonOK               = "ok"
	ReasonLinesCount       = "lines-count"
	ReasonTooManySentences = "too-many-sentences"
	ReasonTooManyWords     = "too-many-words"
	ReasonListy            = "listy"
	ReasonBannedPhrase     = "banned-phrase"
	ReasonUnknownNamePfx   = "unknown-name:"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'-]*`)

type Result struct {
	OK     bool
	Reason string
}

func pass() Result               { return Result{OK: true, Reason: ReasonOK} }
func fail(reason string) Result { return Result{Reason: reason} }

// Validator checks text against a fixed roster and banned-phrase list.
type Validator struct {
	names  *Dictionary
	banned []string
}

func New(teams, players, roles, banned []string) *Validator {
	low := make([]string, 0, len(banned))
	for _, b := range banned {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			low = append(low, b)
		}
	}
	return &Validator{names: NewDictionary(teams, players, roles), banned: low}
}

// Validate is the one-shot form of New(...).Validate(text).
func Validate(text string, teams, players, roles, banned []string) Result {
	return New(teams, players, roles, banned).Validate(text)
}

// Validate applies the checks in order and stops at the first failure.
func (v *Validator) Validate(text string) Result {
	lines := Lines(text)
	if len(lines) < MinLines || len(lines) > MaxLines {
		return fail(ReasonLinesCount)
	}

	for _, line := range lines {
		if r := v.checkLine(line); !r.OK {
			return r
		}
	}

	for _, line := range lines {
		if span, ok := v.names.Unknown(line); !ok {
			return fail(ReasonUnknownNamePfx + span)
		}
	}
	return pass()
}

func (v *Validator) checkLine(line string) Result {
	if strings.Count(line, ".")+strings.Count(line, "!")+strings.Count(line, "?") > 1 {
		return fail(ReasonTooManySentences)
	}
	if WordCount(line) > MaxWordsPerLine {
		return fail(ReasonTooManyWords)
	}
	if isListy(line) {
		return fail(ReasonListy)
	}
	low := strings.ToLower(line)
	for _, b := range v.banned {
		if strings.Contains(low, b) {
			return fail(ReasonBannedPhrase)
		}
	}
	return pass()
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// WordCount counts tokens that start with a letter or digit and continue
// with letters, digits, apostrophes or hyphens.
func WordCount(line string) int {
	return len(wordPattern.FindAllStringIndex(line, -1))
}

func isListy(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsDigit(r)
}

// FilterCleanLines keeps up to three lines that pass validation on their
// own, in order.
func (v *Validator) FilterCleanLines(text string) string {
	var kept []string
	for _, line := range Lines(text) {
		if v.Validate(line).OK {
			kept = append(kept, line)
		}
		if len(kept) == MaxLines {
			break
		}
	}
	return strings.Join(kept, "\n")
}
