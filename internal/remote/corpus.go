package remote

// Corpus names the backend vocabulary a request targets.
type Corpus string

const (
	// CorpusSmall is the tokenizer trained on the small corpus.
	CorpusSmall Corpus = "vani-small"
	// CorpusLarge is the tokenizer trained on the large corpus.
	CorpusLarge Corpus = "vani-large"
)

// String returns the corpus name.
func (c Corpus) String() string {
	return string(c)
}

// Valid reports whether c is a known corpus.
func (c Corpus) Valid() bool {
	return c == CorpusSmall || c == CorpusLarge
}
