package chunk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/otranscribe/otranscribe/internal/transcript"
)

const (
	DefaultTolerance  = 1.0
	DefaultSimilarity = 0.85

	// minContainedRunes is the shortest text accepted as a prefix/suffix duplicate.
	minContainedRunes = 3
)

// MergeOptions tunes overlap de-duplication.
type MergeOptions struct {
	// Tolerance is how far, in seconds, a candidate may start outside the
	// span of an already emitted item and still be compared with it.
	Tolerance float64
	// Similarity is the minimum normalised Levenshtein similarity (0..1)
	// for two texts to count as the same utterance.
	Similarity float64
}

// DefaultMergeOptions returns the stock tolerance and similarity.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{Tolerance: DefaultTolerance, Similarity: DefaultSimilarity}
}

// Merge rebases each window's items onto the global timeline and returns a
// single ordered transcript. parts[i] holds window i's items with
// window-local timestamps.
func Merge(windows []Window, parts [][]transcript.Item, opts MergeOptions) ([]transcript.Item, error) {
	if len(windows) != len(parts) {
		return nil, fmt.Errorf("merge: %d windows but %d results", len(windows), len(parts))
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Similarity <= 0 || opts.Similarity > 1 {
		opts.Similarity = DefaultSimilarity
	}

	if len(windows) == 1 {
		return rebase(windows[0], parts[0]), nil
	}

	var merged, prev []transcript.Item
	for i, w := range windows {
		items := rebase(w, parts[i])
		if i == 0 {
			merged = append(merged, items...)
			prev = items
			continue
		}

		overlapEnd := windows[i-1].End()
		kept := make([]transcript.Item, 0, len(items))
		for _, it := range items {
			if it.Start >= w.Offset && it.Start < overlapEnd && duplicated(it, prev, opts) {
				continue
			}
			kept = append(kept, it)
		}
		merged = append(merged, kept...)
		prev = kept
	}

	transcript.SortItems(merged)
	for i := 0; i+1 < len(merged); i++ {
		if merged[i].End > merged[i+1].Start {
			merged[i].End = max(merged[i].Start, merged[i+1].Start)
		}
	}
	return merged, nil
}

func rebase(w Window, items []transcript.Item) []transcript.Item {
	out := make([]transcript.Item, len(items))
	for i, it := range items {
		it.Start += w.Offset
		it.End += w.Offset
		if it.End < it.Start {
			it.End = it.Start
		}
		out[i] = it
	}
	transcript.SortItems(out)
	return out
}

// duplicated reports whether it repeats an item the previous window already
// emitted near the same time.
func duplicated(it transcript.Item, prev []transcript.Item, opts MergeOptions) bool {
	text := normalize(it.Text)
	if text == "" {
		return false
	}
	for _, p := range prev {
		if it.Start < p.Start-opts.Tolerance || it.Start > p.End+opts.Tolerance {
			continue
		}
		if sameText(text, normalize(p.Text), opts.Similarity) {
			return true
		}
	}
	return false
}

// sameText compares a candidate against an emitted text. Only the candidate
// may be the shorter side of a containment match, so a longer candidate
// carrying new words is never dropped. Containment is by whole words.
func sameText(candidate, emitted string, similarity float64) bool {
	if emitted == "" {
		return false
	}
	if candidate == emitted {
		return true
	}
	if utf8.RuneCountInString(candidate) >= minContainedRunes &&
		(strings.HasPrefix(emitted, candidate+" ") || strings.HasSuffix(emitted, " "+candidate)) {
		return true
	}
	longest := max(utf8.RuneCountInString(candidate), utf8.RuneCountInString(emitted))
	dist := fuzzy.LevenshteinDistance(candidate, emitted)
	return 1-float64(dist)/float64(longest) >= similarity
}

// normalize folds case, drops punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
