package embedder

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeVocab(t *testing.T, tokens ...string) string {
	t.Helper()
	base := []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]"}
	path := filepath.Join(t.TempDir(), "vocab.txt")
	content := strings.Join(append(base, tokens...), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	return path
}

func TestBasicTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", ",", "world", "!"}},
		{"  Jaringan\tkomputer\n", []string{"jaringan", "komputer"}},
		{"Café résumé", []string{"cafe", "resume"}},
		{"TCP/IP", []string{"tcp", "/", "ip"}},
		{"数据", []string{"数", "据"}},
	}
	for _, tt := range tests {
		got := basicTokenize(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("basicTokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWordpiece(t *testing.T) {
	tok, err := newTokenizer(writeVocab(t, "algo", "##rithm", "##s", "sort"))
	if err != nil {
		t.Fatalf("newTokenizer: %v", err)
	}

	got := tok.wordpiece([]string{"algorithms", "sort", "xyz"})
	want := []string{"algo", "##rithm", "##s", "sort", "[UNK]"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wordpiece = %v, want %v", got, want)
	}
}

func TestTokenizeWrapsAndTruncates(t *testing.T) {
	tok, err := newTokenizer(writeVocab(t, "word"))
	if err != nil {
		t.Fatalf("newTokenizer: %v", err)
	}

	short := tok.tokenize("word word")
	wantIDs := []int64{2, 4, 4, 3}
	if !reflect.DeepEqual(short.inputIDs, wantIDs) {
		t.Errorf("inputIDs = %v, want %v", short.inputIDs, wantIDs)
	}
	if short.seqLen != 4 {
		t.Errorf("seqLen = %d, want 4", short.seqLen)
	}
	for i, m := range short.attentionMask {
		if m != 1 {
			t.Errorf("attentionMask[%d] = %d, want 1", i, m)
		}
	}

	long := tok.tokenize(strings.Repeat("word ", 500))
	if long.seqLen != maxSeqLen {
		t.Errorf("long seqLen = %d, want %d", long.seqLen, maxSeqLen)
	}
	if long.inputIDs[maxSeqLen-1] != 3 {
		t.Errorf("last token = %d, want [SEP]", long.inputIDs[maxSeqLen-1])
	}
}

func TestLoadVocabMissingSpecialToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("[PAD]\n[UNK]\nhello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadVocab(path); err == nil {
		t.Error("expected error for vocab without [CLS]/[SEP]")
	}
}

func TestLoadVocabEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadVocab(path); err == nil {
		t.Error("expected error for empty vocab")
	}
}
