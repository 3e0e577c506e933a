package embedder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSeqLen matches the 128-token window MiniLM sentence models were trained with.
const maxSeqLen = 128

// tokenized is one sequence ready for inference, trimmed to its real length.
type tokenized struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	seqLen        int64
}

// tokenizer performs uncased BERT WordPiece tokenization.
type tokenizer struct {
	vocab *vocab
}

func newTokenizer(vocabPath string) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	return &tokenizer{vocab: v}, nil
}

// tokenize wraps the WordPiece pieces of text in [CLS] ... [SEP]. Long
// answers are truncated to the model window.
func (t *tokenizer) tokenize(text string) tokenized {
	pieces := t.wordpiece(basicTokenize(text))
	if len(pieces) > maxSeqLen-2 {
		pieces = pieces[:maxSeqLen-2]
	}

	n := len(pieces) + 2
	ids := make([]int64, n)
	mask := make([]int64, n)

	ids[0] = t.vocab.clsID
	for i, p := range pieces {
		ids[i+1] = t.vocab.lookup(p)
	}
	ids[n-1] = t.vocab.sepID
	for i := range mask {
		mask[i] = 1
	}

	return tokenized{
		inputIDs:      ids,
		attentionMask: mask,
		tokenTypeIDs:  make([]int64, n),
		seqLen:        int64(n),
	}
}

func (t *tokenizer) wordpiece(words []string) []string {
	var out []string
	for _, w := range words {
		out = append(out, t.wordpieceWord(w)...)
	}
	return out
}

// wordpieceWord splits one word into the longest matching vocabulary pieces,
// continuation pieces carrying the "##" prefix. A word that cannot be fully
// covered becomes a single [UNK].
func (t *tokenizer) wordpieceWord(word string) []string {
	runes := []rune(word)
	if len(runes) > 100 {
		return []string{"[UNK]"}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.contains(sub) {
				match = sub
				break
			}
		}
		if match == "" {
			return []string{"[UNK]"}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

// basicTokenize cleans, lowercases, strips accents and splits on whitespace
// and punctuation. CJK ideographs become single-character words.
func basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := stripAccents(strings.ToLower(b.String()))

	var words []string
	for _, field := range strings.Fields(cleaned) {
		words = append(words, splitPunctuation(field)...)
	}
	return words
}

func stripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunctuation(word string) []string {
	var out []string
	start := -1
	for i, r := range word {
		if isPunctuation(r) {
			if start >= 0 {
				out = append(out, word[start:i])
				start = -1
			}
			out = append(out, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word[start:])
	}
	return out
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

// isPunctuation treats all non-alphanumeric ASCII symbols as punctuation, as
// the reference BERT tokenizer does, plus Unicode punctuation.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
