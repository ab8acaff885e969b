package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var nameToken = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)

// sentenceStarters may appear capitalized without being a roster name.
var sentenceStarters = map[string]bool{
	"The": true, "A": true, "An": true, "They": true, "He": true, "She": true, "It": true,
}

// Dictionary is the set of names commentary may use, matched
// case-insensitively with longest-match tokenization so multi-word names
// ("Grim of the North") are recognised as a whole.
type Dictionary struct {
	entries   map[string]bool
	maxTokens int
}

func NewDictionary(sets ...[]string) *Dictionary {
	d := &Dictionary{entries: make(map[string]bool)}
	fold := cases.Fold()
	for _, set := range sets {
		for _, name := range set {
			var parts []string
			for _, tok := range tokenize(name) {
				parts = append(parts, normalize(fold, tok.text))
			}
			if len(parts) == 0 {
				continue
			}
			d.entries[strings.Join(parts, " ")] = true
			d.maxTokens = max(d.maxTokens, len(parts))
		}
	}
	return d
}

// Unknown scans a line and returns the first run of capitalized tokens that
// is neither covered by a dictionary entry nor a sentence starter.
func (d *Dictionary) Unknown(line string) (string, bool) {
	fold := cases.Fold()
	toks := tokenize(line)
	norm := make([]string, len(toks))
	for i, t := range toks {
		norm[i] = normalize(fold, t.text)
	}

	for i := 0; i < len(toks); {
		if n := d.longestMatch(line, toks, norm, i); n > 0 {
			i += n
			continue
		}
		if !isCapitalized(toks[i].text) || sentenceStarters[toks[i].text] {
			i++
			continue
		}

		j := i + 1
		for j < len(toks) &&
			isCapitalized(toks[j].text) &&
			!sentenceStarters[toks[j].text] &&
			adjacent(line, toks[j-1], toks[j]) &&
			d.longestMatch(line, toks, norm, j) == 0 {
			j++
		}
		return line[toks[i].start:toks[j-1].end], false
	}
	return "", true
}

// longestMatch returns how many tokens starting at i form a dictionary entry.
func (d *Dictionary) longestMatch(line string, toks []token, norm []string, i int) int {
	limit := min(d.maxTokens, len(toks)-i)
	for n := limit; n > 0; n-- {
		contiguous := true
		for k := i + 1; k < i+n; k++ {
			if !adjacent(line, toks[k-1], toks[k]) {
				contiguous = false
				break
			}
		}
		if contiguous && d.entries[strings.Join(norm[i:i+n], " ")] {
			return n
		}
	}
	return 0
}

type token struct {
	text       string
	start, end int
}

func tokenize(s string) []token {
	idx := nameToken.FindAllStringIndex(s, -1)
	out := make([]token, len(idx))
	for i, m := range idx {
		out[i] = token{text: s[m[0]:m[1]], start: m[0], end: m[1]}
	}
	return out
}

// adjacent reports whether only whitespace separates two tokens.
func adjacent(line string, a, b token) bool {
	gap := line[a.end:b.start]
	return gap != "" && strings.TrimSpace(gap) == ""
}

// normalize folds case and strips possessives and trailing joiners so
// "Windcaller's" matches "Windcaller".
func normalize(fold cases.Caser, tok string) string {
	tok = strings.ReplaceAll(tok, "’", "'")
	tok = strings.TrimSuffix(tok, "'s")
	tok = strings.TrimRight(tok, "'-")
	return fold.String(tok)
}

func isCapitalized(tok string) bool {
	r, size := utf8.DecodeRuneInString(tok)
	return unicode.IsUpper(r) && len(tok) > size
}
