// Package embedder turns answer text into sentence embeddings with a local
// BERT-style ONNX model (e.g. paraphrase-MiniLM-L6-v2).
package embedder

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrClosed is returned by Embed after Close.
var ErrClosed = errors.New("embedder: closed")

// Embedder produces vector embeddings from text.
type Embedder interface {
	Embed(text string) ([]float32, error)
	Close() error
}

// Options locate the model artifacts.
type Options struct {
	ModelPath string
	VocabPath string
	// LibraryPath is the onnxruntime shared library. Empty means
	// libonnxruntime.so next to the model file.
	LibraryPath string
	// Threads bounds intra-op parallelism per inference call. Zero means 4.
	Threads int
}

// ONNXEmbedder runs tokenize → ONNX inference → mean pool.
type ONNXEmbedder struct {
	session *onnxSession
	tok     *tokenizer
}

// Compile-time check: *ONNXEmbedder satisfies the Embedder interface.
var _ Embedder = (*ONNXEmbedder)(nil)

// New loads the vocabulary and the ONNX model.
func New(opts Options) (*ONNXEmbedder, error) {
	if opts.ModelPath == "" {
		return nil, errors.New("embedder: model path is empty")
	}
	lib := opts.LibraryPath
	if lib == "" {
		lib = filepath.Join(filepath.Dir(opts.ModelPath), "libonnxruntime.so")
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = 4
	}

	tok, err := newTokenizer(opts.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	sess, err := newONNXSession(opts.ModelPath, lib, threads)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &ONNXEmbedder{session: sess, tok: tok}, nil
}

// Dim returns the embedding dimensionality.
func (e *ONNXEmbedder) Dim() int {
	return int(e.session.embedDim)
}

// Embed produces the pooled embedding of text.
func (e *ONNXEmbedder) Embed(text string) ([]float32, error) {
	if e.session == nil {
		return nil, ErrClosed
	}
	batch := e.tok.tokenize(text)

	hidden, err := e.session.infer(batch)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return meanPool(hidden, batch.attentionMask, batch.seqLen, e.session.embedDim), nil
}

// Close releases ONNX Runtime resources.
func (e *ONNXEmbedder) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.close()
	e.session = nil
	return err
}
