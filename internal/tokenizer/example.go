package tokenizer

// ExampleMerges creates a minimal byte-level BPE tokenizer for testing.
//
// It merges "hello" into a single token (259) and "नम" into 263.
func ExampleMerges() *BPETokenizer {
	merges := [][2]int32{
		{104, 101}, // 256 "he"
		{108, 108}, // 257 "ll"
		{256, 257}, // 258 "hell"
		{258, 111}, // 259 "hello"
		{224, 164}, // 260 "\xe0\xa4"
		{260, 168}, // 261 "न"
		{260, 174}, // 262 "म"
		{261, 262}, // 263 "नम"
	}

	tok, err := NewBPETokenizer("example", merges, nil)
	if err != nil {
		panic(err)
	}
	return tok
}
