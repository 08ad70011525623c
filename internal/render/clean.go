package render

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/otranscribe/otranscribe/internal/errs"
)

var spaceBeforePunct = regexp.MustCompile(`\s+([,.;:!?])`)

// Cleaner normalises transcript text and strips filler words.
type Cleaner struct {
	// each filler is one pattern per token, matched against consecutive tokens
	fillers [][]*regexp.Regexp
}

// NewCleaner compiles the filler list. Every entry is a case-insensitive
// pattern that must match a whole token; entries with spaces match that
// many consecutive tokens.
func NewCleaner(fillers []string) (*Cleaner, error) {
	c := &Cleaner{}
	for _, f := range fillers {
		words := strings.Fields(norm.NFC.String(f))
		if len(words) == 0 {
			continue
		}
		seq := make([]*regexp.Regexp, 0, len(words))
		for _, w := range words {
			re, err := regexp.Compile(`(?i)^(?:` + w + `)$`)
			if err != nil {
				return nil, errs.Configf("invalid filler pattern %q: %v", f, err)
			}
			seq = append(seq, re)
		}
		c.fillers = append(c.fillers, seq)
	}
	return c, nil
}

// Clean applies NFC normalisation, whitespace collapse, filler removal and
// removes spaces before punctuation.
func (c *Cleaner) Clean(s string) string {
	tokens := strings.Fields(norm.NFC.String(s))
	kept := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); {
		n := c.match(tokens[i:])
		if n == 0 {
			kept = append(kept, tokens[i])
			i++
			continue
		}
		// "so, um, we" keeps its comma, "we started uh." keeps its period
		_, _, trail := splitToken(tokens[i+n-1])
		if trail != "" && len(kept) > 0 {
			last := kept[len(kept)-1]
			if _, _, t := splitToken(last); t == "" {
				kept[len(kept)-1] = last + trail
			}
		}
		i += n
	}

	out := strings.Join(kept, " ")
	return spaceBeforePunct.ReplaceAllString(out, "$1")
}

// match returns how many leading tokens form the longest filler, or 0.
func (c *Cleaner) match(tokens []string) int {
	best := 0
	for _, seq := range c.fillers {
		if len(seq) > len(tokens) || len(seq) <= best {
			continue
		}
		ok := true
		for j, re := range seq {
			_, core, _ := splitToken(tokens[j])
			if core == "" || !re.MatchString(core) {
				ok = false
				break
			}
		}
		if ok {
			best = len(seq)
		}
	}
	return best
}

// splitToken separates leading and trailing punctuation from a token.
func splitToken(tok string) (lead, core, trail string) {
	start := 0
	for start < len(tok) {
		r, size := utf8.DecodeRuneInString(tok[start:])
		if !unicode.IsPunct(r) {
			break
		}
		start += size
	}
	end := len(tok)
	for end > start {
		r, size := utf8.DecodeLastRuneInString(tok[start:end])
		if !unicode.IsPunct(r) {
			break
		}
		end -= size
	}
	return tok[:start], tok[start:end], tok[end:]
}
