package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/state"
)

func session() *pipeline.Session {
	return &pipeline.Session{
		Generation: 1,
		Text:       "नमस्ते",
		Tokens: []pipeline.TokenRecord{
			{ID: 101, Text: "नम", Resolved: true},
			{ID: 205, Text: "स्ते", Resolved: true},
		},
	}
}

func TestProject(t *testing.T) {
	p := Project(session(), state.ViewTokens)

	require.Len(t, p.Tokens, 2)
	require.Len(t, p.IDs, 2)
	assert.Equal(t, Stats{Tokens: 2, Characters: 6}, p.Stats)

	assert.Equal(t, "नम", p.Tokens[0].Label)
	assert.Equal(t, "स्ते", p.Tokens[1].Label)
	assert.Equal(t, "101", p.IDs[0].Label)
	assert.Equal(t, "205", p.IDs[1].Label)
	assert.Equal(t, "Token ID: 101", p.Tokens[0].Title)
	assert.Equal(t, "Token: नम", p.IDs[0].Title)

	assert.Equal(t, Palette[101%8], Palette[p.Tokens[0].ColorIndex])
	assert.Equal(t, Palette[205%8], Palette[p.Tokens[1].ColorIndex])
	for i := range p.Tokens {
		assert.Equal(t, p.Tokens[i].ColorIndex, p.IDs[i].ColorIndex)
		assert.Equal(t, p.Tokens[i].ID, p.IDs[i].ID)
	}
}

func TestProject_View(t *testing.T) {
	s := session()

	tokens := Project(s, state.ViewTokens)
	ids := Project(s, state.ViewIDs)

	assert.Equal(t, tokens.Tokens, tokens.Active())
	assert.Equal(t, ids.IDs, ids.Active())

	// Switching views changes only which list is active.
	assert.Equal(t, tokens.Tokens, ids.Tokens)
	assert.Equal(t, tokens.IDs, ids.IDs)
	assert.Equal(t, tokens.Stats, ids.Stats)
}

func TestProject_Nil(t *testing.T) {
	p := Project(nil, state.ViewIDs)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Active())
	assert.Equal(t, Stats{}, p.Stats)
	assert.Empty(t, JoinTokens(p))
	assert.Empty(t, JoinIDs(p))
}

func TestProject_Unknown(t *testing.T) {
	s := &pipeline.Session{
		Text: "ab",
		Tokens: []pipeline.TokenRecord{
			{ID: 1},
			{ID: 2, Resolved: true},
			{ID: 3, Text: "<3>", Resolved: true, Fallback: true},
		},
	}

	p := Project(s, state.ViewTokens)
	assert.Equal(t, Unknown, p.Tokens[0].Label)
	assert.Equal(t, Unknown, p.Tokens[1].Label)
	assert.Equal(t, "<3>", p.Tokens[2].Label)
	assert.Equal(t, "Token: <unknown>", p.IDs[0].Title)
	assert.Equal(t, Stats{Tokens: 3, Characters: 2}, p.Stats)
}

func TestColorIndex(t *testing.T) {
	tests := []struct {
		id   int32
		want int
	}{
		{id: 0, want: 0},
		{id: 7, want: 7},
		{id: 8, want: 0},
		{id: 101, want: 5},
		{id: 205, want: 5},
		{id: -1, want: 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorIndex(tt.id), "id %d", tt.id)
	}
}

func TestJoin(t *testing.T) {
	p := Project(session(), state.ViewTokens)
	assert.Equal(t, "नम स्ते", JoinTokens(p))
	assert.Equal(t, "101, 205", JoinIDs(p))
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "(empty)", DecodeText(""))
	assert.Equal(t, "नमस्ते", DecodeText("नमस्ते"))
}

func TestWrap(t *testing.T) {
	boxes := []Box{{Label: "hello"}, {Label: "a"}, {Label: "world"}, {Label: "verylongtoken"}}

	rows := Wrap(boxes, 10, 2)
	require.Len(t, rows, 3)
	assert.Equal(t, []Box{{Label: "hello"}, {Label: "a"}}, rows[0])
	assert.Equal(t, []Box{{Label: "world"}}, rows[1])
	assert.Equal(t, []Box{{Label: "verylongtoken"}}, rows[2])

	assert.Empty(t, Wrap(nil, 10, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel…", Truncate("hello", 4))
}
