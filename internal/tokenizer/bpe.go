package tokenizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when decoded bytes do not form valid UTF-8.
var ErrInvalidUTF8 = errors.New("decoded bytes are not valid UTF-8")

// firstMergeID is the ID of the first merged token; 0-255 are raw bytes.
const firstMergeID = 256

// BPETokenizer implements byte-level Byte-Pair Encoding.
//
// Text is split into UTF-8 bytes (IDs 0-255) and merge rule i replaces
// the pair it names with token ID 256+i.
type BPETokenizer struct {
	name             string
	ranks            map[pair]int     // pair -> merge rank
	vocab            map[int32][]byte // ID -> bytes
	vocabSize        int
	compressionRatio float64
}

type pair struct {
	first  int32
	second int32
}

// NewBPETokenizer creates a byte-level BPE tokenizer from merge rules.
//
// vocab may be nil; missing entries are derived from the merges.
func NewBPETokenizer(name string, merges [][2]int32, vocab map[int32][]byte) (*BPETokenizer, error) {
	full := make(map[int32][]byte, firstMergeID+len(merges))
	for i := 0; i < firstMergeID; i++ {
		full[int32(i)] = []byte{byte(i)} //nolint:gosec // G115: i < 256.
	}
	for id, b := range vocab {
		full[id] = b
	}

	ranks := make(map[pair]int, len(merges))
	for i, m := range merges {
		id := int32(firstMergeID + i) //nolint:gosec // G115: merge count < 2^31.
		left, ok := full[m[0]]
		if !ok {
			return nil, fmt.Errorf("merge %d references unknown token %d", i, m[0])
		}
		right, ok := full[m[1]]
		if !ok {
			return nil, fmt.Errorf("merge %d references unknown token %d", i, m[1])
		}
		if _, ok := full[id]; !ok {
			full[id] = append(append([]byte{}, left...), right...)
		}
		p := pair{m[0], m[1]}
		if _, dup := ranks[p]; !dup {
			ranks[p] = i
		}
	}

	return &BPETokenizer{
		name:      name,
		ranks:     ranks,
		vocab:     full,
		vocabSize: len(full),
	}, nil
}

// Encode converts text to token IDs using BPE.
func (b *BPETokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	tokens := make([]int32, 0, len(text))
	for i := 0; i < len(text); i++ {
		tokens = append(tokens, int32(text[i]))
	}

	// Merge the lowest-ranked pair until no pair is mergeable.
	for len(tokens) > 1 {
		best := pair{}
		bestRank := -1
		for i := 0; i < len(tokens)-1; i++ {
			p := pair{tokens[i], tokens[i+1]}
			if rank, ok := b.ranks[p]; ok && (bestRank < 0 || rank < bestRank) {
				best = p
				bestRank = rank
			}
		}
		if bestRank < 0 {
			break
		}

		merged := int32(firstMergeID + bestRank) //nolint:gosec // G115: rank < 2^31.
		out := tokens[:0]
		for i := 0; i < len(tokens); i++ {
			if i < len(tokens)-1 && tokens[i] == best.first && tokens[i+1] == best.second {
				out = append(out, merged)
				i++ // Skip next token (it's merged).
			} else {
				out = append(out, tokens[i])
			}
		}
		tokens = out
	}

	return tokens, nil
}

// Decode converts token IDs back to text.
//
// Unknown IDs are skipped. The concatenated bytes must be valid UTF-8.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var buf []byte
	for _, token := range tokens {
		if bytes, ok := b.vocab[token]; ok {
			buf = append(buf, bytes...)
		}
	}

	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

// Info returns tokenizer metadata.
func (b *BPETokenizer) Info() Info {
	return Info{
		Name:             b.name,
		Algorithm:        "Byte-Level BPE",
		VocabSize:        b.vocabSize,
		NumMerges:        len(b.ranks),
		CompressionRatio: b.compressionRatio,
	}
}

// mergesFile is the on-disk format written by the BPE trainer.
type mergesFile struct {
	Merges           [][2]int32       `json:"merges"`
	Vocab            map[string][]int `json:"vocab"`
	VocabSize        int              `json:"vocab_size"`
	CompressionRatio float64          `json:"compression_ratio"`
}

// LoadMerges loads a byte-level BPE tokenizer from a merges.json file.
func LoadMerges(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read merges file: %w", err)
	}
	return ParseMerges(path, data)
}

// ParseMerges builds a byte-level BPE tokenizer from merges.json contents.
func ParseMerges(name string, data []byte) (*BPETokenizer, error) {
	var file mergesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse merges file: %w", err)
	}

	vocab := make(map[int32][]byte, len(file.Vocab))
	for key, values := range file.Vocab {
		id, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vocab id %q: %w", key, err)
		}
		bytes := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("vocab id %d: byte value %d out of range", id, v)
			}
			bytes[i] = byte(v)
		}
		vocab[int32(id)] = bytes
	}

	tok, err := NewBPETokenizer(name, file.Merges, vocab)
	if err != nil {
		return nil, err
	}
	if file.VocabSize > 0 {
		tok.vocabSize = file.VocabSize
	}
	tok.compressionRatio = file.CompressionRatio
	return tok, nil
}
