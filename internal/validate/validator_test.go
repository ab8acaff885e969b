package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	teams   = []string{"Thornwood Giants", "Silver Falcons"}
	players = []string{"Marcus Windcaller", "Liam Swiftfoot", "Grim of the North"}
	roles   = []string{"Blitzer", "Lineman"}
	banned  = []string{"folks", "Stay Tuned"}
)

func check(text string) Result {
	return Validate(text, teams, players, roles, banned)
}

func TestValidate_LineCount(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Result
	}{
		{name: "empty", text: "", want: Result{Reason: ReasonLinesCount}},
		{name: "blank lines only", text: "\n  \r\n\t\n", want: Result{Reason: ReasonLinesCount}},
		{name: "one line", text: "a cage forms", want: Result{OK: true, Reason: ReasonOK}},
		{name: "three lines with blanks", text: "one\n\n two \r\nthree", want: Result{OK: true, Reason: ReasonOK}},
		{name: "four lines", text: "one\ntwo\nthree\nfour", want: Result{Reason: ReasonLinesCount}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, check(tc.text))
		})
	}
}

func TestValidate_WordBoundary(t *testing.T) {
	eighteen := strings.TrimSpace(strings.Repeat("go ", 18))
	assert.Equal(t, 18, WordCount(eighteen))
	assert.Equal(t, Result{OK: true, Reason: ReasonOK}, check(eighteen))
	assert.Equal(t, Result{Reason: ReasonTooManyWords}, check(eighteen+" go"))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 4, WordCount("rock-and-roll — don't stop 2nd-half"))
	assert.Equal(t, 0, WordCount(" — ... !"))
	assert.Equal(t, 3, WordCount("'tis the cage"))
}

func TestValidate_LineChecks(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "two sentences", text: "the cage forms. the crowd roars!", want: ReasonTooManySentences},
		{name: "ellipsis", text: "wait for it...", want: ReasonTooManySentences},
		{name: "dash bullet", text: "- a cage forms", want: ReasonListy},
		{name: "star bullet", text: "* a cage forms", want: ReasonListy},
		{name: "numbered", text: "1) a cage forms", want: ReasonListy},
		{name: "banned phrase any case", text: "FOLKS, what a cage", want: ReasonBannedPhrase},
		{name: "banned phrase normalized", text: "stay tuned for more", want: ReasonBannedPhrase},
		{name: "dash without space is fine", text: "-the cage holds", want: ReasonOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, check(tc.text).Reason)
		})
	}
}

func TestValidate_Names(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Result
	}{
		{name: "known team", text: "Thornwood Giants lock it down.", want: Result{OK: true, Reason: ReasonOK}},
		{name: "unknown name", text: "Zorblax smashes through the line", want: Result{Reason: "unknown-name:Zorblax"}},
		{name: "unknown multi token run", text: "the Iron Hammers arrive", want: Result{Reason: "unknown-name:Iron Hammers"}},
		{name: "sentence starter", text: "The cage tightens around windcaller", want: Result{OK: true, Reason: ReasonOK}},
		{name: "starter then name", text: "They watch Liam Swiftfoot scoop it", want: Result{OK: true, Reason: ReasonOK}},
		{name: "case insensitive roster", text: "marcus windcaller and the silver falcons", want: Result{OK: true, Reason: ReasonOK}},
		{name: "role", text: "a Blitzer crashes in", want: Result{OK: true, Reason: ReasonOK}},
		{name: "lowercase connectors", text: "Grim of the North stands tall", want: Result{OK: true, Reason: ReasonOK}},
		{name: "possessive", text: "Windcaller's cage? no, Marcus Windcaller's cage", want: Result{Reason: "unknown-name:Windcaller's"}},
		{name: "possessive full name", text: "Marcus Windcaller's cage holds", want: Result{OK: true, Reason: ReasonOK}},
		{name: "name then unknown", text: "Liam Swiftfoot Zorblax", want: Result{Reason: "unknown-name:Zorblax"}},
		{name: "single capital letter ignored", text: "I see a gap", want: Result{OK: true, Reason: ReasonOK}},
		{name: "punctuation splits a name", text: "Thornwood, Giants", want: Result{Reason: "unknown-name:Thornwood"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, check(tc.text))
		})
	}
}

func TestValidate_LineChecksRunBeforeNames(t *testing.T) {
	// Line two breaks the word limit; the unknown name on line one must not
	// be what gets reported.
	text := "Zorblax arrives\n" + strings.Repeat("go ", 19)
	assert.Equal(t, ReasonTooManyWords, check(text).Reason)
}

func TestValidate_PassingOutputOnlyUsesKnownNames(t *testing.T) {
	dict := NewDictionary(teams, players, roles)
	inputs := []string{
		"Thornwood Giants surge — Liam Swiftfoot breaks free",
		"The Blitzer and Marcus Windcaller square up",
		"Silver Falcons collapse; Grim of the North watches",
	}
	for _, in := range inputs {
		if !check(in).OK {
			t.Fatalf("expected %q to pass, got %+v", in, check(in))
		}
		// Strip every dictionary match; whatever is capitalized afterwards
		// may only be a sentence starter.
		rest := in
		for _, n := range append(append(append([]string{}, teams...), players...), roles...) {
			rest = strings.ReplaceAll(rest, n, "")
		}
		for _, tok := range tokenize(rest) {
			if isCapitalized(tok.text) && !sentenceStarters[tok.text] {
				t.Fatalf("capitalized token %q in passing output %q", tok.text, in)
			}
		}
		if _, ok := dict.Unknown(in); !ok {
			t.Fatalf("dictionary rejected passing output %q", in)
		}
	}
}

func TestFilterCleanLines(t *testing.T) {
	v := New(teams, players, roles, banned)
	text := "- bullet line\nmarcus windcaller bursts clear\nfolks what a play\nZorblax\nthe cage holds\nscreen forms\nextra line"
	assert.Equal(t, "marcus windcaller bursts clear\nthe cage holds\nscreen forms", v.FilterCleanLines(text))
	assert.Equal(t, "", v.FilterCleanLines("- only bad"))
}
