// Package render projects pipeline sessions into display boxes.
//
// Everything here is pure: the same session and view always give the same
// projection.
package render

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/state"
)

// PaletteSize is the number of token colors.
const PaletteSize = 8

// Unknown is shown for tokens without display text.
const Unknown = "<unknown>"

// EmptyDecode is shown in the decode panel when decoding yields no text.
const EmptyDecode = "(empty)"

// Palette holds the token colors, indexed by ColorIndex.
var Palette = [PaletteSize]string{
	"#4a9eff",
	"#ff6b35",
	"#51cf66",
	"#9775fa",
	"#ffd43b",
	"#ff8787",
	"#20c997",
	"#f06595",
}

// ColorIndex returns the palette slot for a token ID. It depends on the ID
// only, so equal IDs share a color everywhere.
func ColorIndex(id int32) int {
	idx := int(id) % PaletteSize
	if idx < 0 {
		idx += PaletteSize
	}
	return idx
}

// Box is one rendered token.
type Box struct {
	Label      string
	ID         int32
	ColorIndex int
	Title      string // Hover/selection detail
}

// Width returns the display width of the label in terminal cells.
func (b Box) Width() int {
	return runewidth.StringWidth(b.Label)
}

// Stats are the counters shown above the tokens.
type Stats struct {
	Tokens     int
	Characters int
}

// Projection is the display state of one session.
type Projection struct {
	Tokens []Box // Decoded texts
	IDs    []Box // Token IDs; same length and colors as Tokens
	View   state.ViewMode
	Stats  Stats
}

// Active returns the boxes of the active view.
func (p Projection) Active() []Box {
	if p.View == state.ViewIDs {
		return p.IDs
	}
	return p.Tokens
}

// Empty reports whether there is nothing to show.
func (p Projection) Empty() bool {
	return len(p.Tokens) == 0
}

// Project builds the projection of s. A nil session projects to nothing.
func Project(s *pipeline.Session, view state.ViewMode) Projection {
	p := Projection{View: view}
	if s == nil {
		return p
	}

	p.Tokens = make([]Box, len(s.Tokens))
	p.IDs = make([]Box, len(s.Tokens))
	for i, t := range s.Tokens {
		label := t.Text
		if !t.Resolved || label == "" {
			label = Unknown
		}
		color := ColorIndex(t.ID)
		id := strconv.FormatInt(int64(t.ID), 10)

		p.Tokens[i] = Box{Label: label, ID: t.ID, ColorIndex: color, Title: "Token ID: " + id}
		p.IDs[i] = Box{Label: id, ID: t.ID, ColorIndex: color, Title: "Token: " + label}
	}
	p.Stats = Stats{
		Tokens:     len(s.Tokens),
		Characters: utf8.RuneCountInString(s.Text),
	}
	return p
}

// JoinTokens returns the token texts separated by single spaces.
func JoinTokens(p Projection) string {
	labels := make([]string, len(p.Tokens))
	for i, b := range p.Tokens {
		labels[i] = b.Label
	}
	return strings.Join(labels, " ")
}

// JoinIDs returns the token IDs separated by ", ".
func JoinIDs(p Projection) string {
	labels := make([]string, len(p.IDs))
	for i, b := range p.IDs {
		labels[i] = b.Label
	}
	return strings.Join(labels, ", ")
}

// DecodeText returns the decode panel text.
func DecodeText(text string) string {
	if text == "" {
		return EmptyDecode
	}
	return text
}

// Wrap splits boxes into rows that fit width cells. Each box takes its
// label width plus pad cells. A box wider than width gets a row of its own.
func Wrap(boxes []Box, width, pad int) [][]Box {
	var rows [][]Box
	var row []Box
	used := 0
	for _, b := range boxes {
		w := b.Width() + pad
		if len(row) > 0 && used+w > width {
			rows = append(rows, row)
			row, used = nil, 0
		}
		row = append(row, b)
		used += w
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// Truncate shortens label to at most width cells, marking the cut with "…".
func Truncate(label string, width int) string {
	return runewidth.Truncate(label, width, "…")
}
