// Package state holds the small UI state machines of the tokenizer front
// end: the view-mode and corpus toggles, per-button copy feedback and the
// transient error banner.
//
// None of these issue network calls; they are synchronous and owned by the
// single UI writer.
package state

import "github.com/born-ml/vani/internal/remote"

// ViewMode selects which rendered list is visible.
type ViewMode int

const (
	// ViewTokens shows the decoded token text boxes.
	ViewTokens ViewMode = iota
	// ViewIDs shows the token ID boxes.
	ViewIDs
)

// String returns the mode name.
func (v ViewMode) String() string {
	switch v {
	case ViewTokens:
		return "tokens"
	case ViewIDs:
		return "ids"
	default:
		return "unknown"
	}
}

// ViewToggle is a two-state toggle with exactly one active mode.
type ViewToggle struct {
	mode ViewMode
}

// Mode returns the active mode.
func (t *ViewToggle) Mode() ViewMode {
	return t.mode
}

// Set activates mode.
func (t *ViewToggle) Set(mode ViewMode) {
	if mode != ViewIDs {
		mode = ViewTokens
	}
	t.mode = mode
}

// Toggle switches to the other mode and returns it.
func (t *ViewToggle) Toggle() ViewMode {
	if t.mode == ViewTokens {
		t.mode = ViewIDs
	} else {
		t.mode = ViewTokens
	}
	return t.mode
}

// Active reports whether mode is the active one.
func (t *ViewToggle) Active(mode ViewMode) bool {
	return t.mode == mode
}

// CorpusToggle selects the corpus targeted by subsequent requests.
//
// Switching never re-tokenizes an already rendered session.
type CorpusToggle struct {
	corpus remote.Corpus
}

// NewCorpusToggle starts on corpus, or vani-small if corpus is unknown.
func NewCorpusToggle(corpus remote.Corpus) CorpusToggle {
	t := CorpusToggle{}
	t.Set(corpus)
	return t
}

// Corpus returns the active corpus.
func (t *CorpusToggle) Corpus() remote.Corpus {
	if t.corpus == "" {
		return remote.CorpusSmall
	}
	return t.corpus
}

// Set activates corpus.
func (t *CorpusToggle) Set(corpus remote.Corpus) {
	if !corpus.Valid() {
		corpus = remote.CorpusSmall
	}
	t.corpus = corpus
}

// Toggle switches to the other corpus and returns it.
func (t *CorpusToggle) Toggle() remote.Corpus {
	if t.Corpus() == remote.CorpusSmall {
		t.corpus = remote.CorpusLarge
	} else {
		t.corpus = remote.CorpusSmall
	}
	return t.corpus
}

// Active reports whether corpus is the active one.
func (t *CorpusToggle) Active(corpus remote.Corpus) bool {
	return t.Corpus() == corpus
}
