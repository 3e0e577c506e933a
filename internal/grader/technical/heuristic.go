package technical

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Essay length bounds for a full word-count score.
const (
	MinEssayWords = 100
	MaxEssayWords = 5000
)

const (
	keywordMinRunes = 6
	keywordLimit    = 10
)

// connectors are discourse markers counted by the readability proxy,
// Indonesian first.
var connectors = []string{
	"dan", "atau", "namun", "tetapi", "karena", "oleh karena itu",
	"sebagai hasil", "lebih lanjut", "however", "moreover", "therefore",
}

// EssayBreakdown holds the component scores of EssayScore, each 0-100.
type EssayBreakdown struct {
	WordCount   float64
	Sentences   float64
	Keywords    float64
	Readability float64
	Total       float64
	Notes       []string
}

// Summary renders the breakdown as multi-line feedback.
func (b EssayBreakdown) Summary() string {
	var sb strings.Builder
	if len(b.Notes) == 0 {
		sb.WriteString("Essay meets the basic standard.")
	} else {
		sb.WriteString(strings.Join(b.Notes, "\n"))
	}
	fmt.Fprintf(&sb, "\n\nScore detail:\n- Word count: %.1f/100\n- Sentence structure: %.1f/100\n- Keyword match: %.1f/100\n- Grammar/readability: %.1f/100",
		b.WordCount, b.Sentences, b.Keywords, b.Readability)
	return sb.String()
}

// EssayScore rates text without any model: word count 20%, sentence
// structure 20%, keyword coverage 30% and a grammar/readability proxy 30%.
// With no keywords the keyword component is a flat 70.
func EssayScore(text string, keywords []string) EssayBreakdown {
	text = strings.TrimSpace(text)
	if text == "" {
		return EssayBreakdown{Notes: []string{"Essay is empty and cannot be graded."}}
	}

	var b EssayBreakdown
	words := strings.Fields(text)
	wc := len(words)

	switch {
	case wc < 50:
		b.WordCount = float64(wc) / 50 * 50
		b.Notes = append(b.Notes, fmt.Sprintf("Too few words (%d, aim for at least %d).", wc, MinEssayWords))
	case wc < MinEssayWords:
		b.WordCount = float64(wc-50) / float64(MinEssayWords-50) * 100
		b.Notes = append(b.Notes, fmt.Sprintf("Still short (%d words, target %d).", wc, MinEssayWords))
	case wc > MaxEssayWords:
		b.WordCount = math.Max(50, 100-float64(wc-MaxEssayWords)/1000)
		b.Notes = append(b.Notes, fmt.Sprintf("Too long (%d words, limit %d).", wc, MaxEssayWords))
	default:
		b.WordCount = 100
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		b.Notes = append(b.Notes, "No complete sentence found.")
	} else {
		avg := float64(wc) / float64(len(sentences))
		switch {
		case avg < 5:
			b.Sentences = avg / 5 * 50
			b.Notes = append(b.Notes, "Sentences are very short; structure lacks complexity.")
		case avg < 10:
			b.Sentences = 60
			b.Notes = append(b.Notes, "Sentence structure could be more varied.")
		case avg <= 20:
			b.Sentences = 100
		default:
			b.Sentences = math.Max(50, 100-(avg-20)/30*50)
			b.Notes = append(b.Notes, "Some sentences are too long; consider splitting them.")
		}
	}

	lower := strings.ToLower(text)
	if len(keywords) > 0 {
		var found []string
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = append(found, kw)
			}
		}
		b.Keywords = float64(len(found)) / float64(len(keywords)) * 100
		if len(found) > 0 {
			b.Notes = append(b.Notes, "Keywords found: "+strings.Join(found, ", "))
		} else {
			b.Notes = append(b.Notes, "No keywords found. Use the specific terms of the topic.")
		}
	} else {
		b.Keywords = 70
	}

	b.Readability = readability(text, sentences, wc, lower)

	b.Total = math.Round((b.WordCount*0.2+b.Sentences*0.2+b.Keywords*0.3+b.Readability*0.3)*100) / 100
	return b
}

func readability(text string, sentences []string, wordCount int, lower string) float64 {
	score := 50.0

	if len(sentences) > 0 {
		capital := 0
		for _, s := range sentences {
			r, _ := utf8.DecodeRuneInString(s)
			if unicode.IsUpper(r) {
				capital++
			}
		}
		ratio := float64(capital) / float64(len(sentences))
		switch {
		case ratio > 0.8:
			score += 30
		case ratio > 0.5:
			score += 15
		}
	}

	punct := strings.Count(text, ".") + strings.Count(text, ",") + strings.Count(text, ";") +
		strings.Count(text, ":") + strings.Count(text, "-")
	if float64(punct) > float64(wordCount)*0.05 {
		score += 10
	}

	for _, c := range connectors {
		if strings.Contains(lower, c) {
			score += 5
		}
	}
	return math.Min(100, score)
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Keywords picks up to ten distinct long words from the reference answer.
func Keywords(reference string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(reference), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(w) < keywordMinRunes || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == keywordLimit {
			break
		}
	}
	return out
}

// HeuristicScorer is a model-free technical backend built on EssayScore,
// with keywords drawn from the reference answer.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer { return &HeuristicScorer{} }

func (*HeuristicScorer) Available() bool { return true }

func (*HeuristicScorer) ScoreTechnical(ctx context.Context, student, reference string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	b := EssayScore(student, Keywords(reference))
	return Score{Value: clamp100(b.Total), Source: SourceHeuristic, Detail: b.Summary()}, nil
}
