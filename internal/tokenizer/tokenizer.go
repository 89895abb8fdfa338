package tokenizer

import (
	"fmt"
	"strings"
)

// Tokenizer is the engine interface served by the tokenizer service.
//
// All engines (byte-level BPE merges, tiktoken) implement this interface.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// Info returns metadata reported by the /info endpoint.
	Info() Info
}

// Info describes a loaded tokenizer.
type Info struct {
	// Name identifies the engine instance (file or encoding name).
	Name string

	// Algorithm is a human readable algorithm name.
	Algorithm string

	// VocabSize is the total vocabulary size.
	VocabSize int

	// NumMerges is the number of BPE merge rules, 0 if not applicable.
	NumMerges int

	// CompressionRatio is the training-time bytes per token ratio, 0 if unknown.
	CompressionRatio float64
}

// Load creates a tokenizer from an engine spec of the form "kind:arg".
//
// Supported specs:
//   - merges:<path>      byte-level BPE merges file
//   - tiktoken:<name>    tiktoken encoding, e.g. tiktoken:cl100k_base
//   - example            the built-in demo merges
func Load(spec string) (Tokenizer, error) {
	if spec == "example" {
		return ExampleMerges(), nil
	}

	kind, arg, ok := strings.Cut(spec, ":")
	if !ok || arg == "" {
		return nil, fmt.Errorf("invalid engine spec %q: want kind:arg", spec)
	}

	var (
		tok Tokenizer
		err error
	)
	switch kind {
	case "merges":
		tok, err = LoadMerges(arg)
	case "tiktoken":
		tok, err = NewTikToken(arg)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return tok, nil
}
