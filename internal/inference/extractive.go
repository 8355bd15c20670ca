package inference

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Extractive is the offline Service: it scores sentences by corpus word
// frequency and returns the highest-scoring ones. Deterministic, no network.
type Extractive struct{}

// NewExtractive creates the local fallback summarizer.
func NewExtractive() *Extractive {
	return &Extractive{}
}

// Sentences shorter than this are fragments, longer ones are walls of text;
// both make poor bullet points.
const (
	minSentenceLen = 25
	maxSentenceLen = 300
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"as": {}, "from": {}, "has": {}, "have": {}, "had": {}, "not": {}, "no": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "you": {}, "your": {},
	"we": {}, "our": {}, "they": {}, "their": {}, "he": {}, "she": {}, "his": {},
	"her": {}, "i": {}, "my": {}, "me": {}, "do": {}, "does": {}, "did": {},
	"if": {}, "then": {}, "than": {}, "so": {}, "all": {}, "also": {}, "more": {},
	"which": {}, "what": {}, "when": {}, "where": {}, "who": {}, "how": {},
}

type scoredSentence struct {
	text  string
	score float64
	order int
}

// KeyPoints implements Service without leaving the process.
func (e *Extractive) KeyPoints(ctx context.Context, req KeyPointsRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sentences []string
	for _, doc := range req.Documents {
		sentences = append(sentences, splitSentences(doc.Content)...)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no usable sentences in documents")
	}

	// Corpus-wide word frequencies drive sentence scores.
	freq := map[string]int{}
	for _, s := range sentences {
		for _, w := range contentWords(s) {
			freq[w]++
		}
	}

	scored := make([]scoredSentence, 0, len(sentences))
	seen := map[string]struct{}{}
	for i, s := range sentences {
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		words := contentWords(s)
		if len(words) == 0 {
			continue
		}
		total := 0
		for _, w := range words {
			total += freq[w]
		}
		scored = append(scored, scoredSentence{
			text:  s,
			score: float64(total) / float64(len(words)),
			order: i,
		})
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("no usable sentences in documents")
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].order < scored[j].order
	})

	limit := req.limit()
	if limit > len(scored) {
		limit = len(scored)
	}
	points := make([]string, 0, limit)
	for _, s := range scored[:limit] {
		points = append(points, s.text)
	}
	return points, nil
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if len(s) >= minSentenceLen && len(s) <= maxSentenceLen {
			out = append(out, s)
		}
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

func contentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := fields[:0]
	for _, w := range fields {
		if len(w) < 2 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	return words
}
