package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit     key.Binding
	Panel      key.Binding
	View       key.Binding
	Corpus     key.Binding
	CopyTokens key.Binding
	CopyIDs    key.Binding
	Prev       key.Binding
	Next       key.Binding
	CopyBox    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Panel, k.View, k.Corpus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Panel, k.View, k.Corpus},
		{k.CopyTokens, k.CopyIDs},
		{k.Prev, k.Next, k.CopyBox},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter", "tab"),
		key.WithHelp("enter/tab", "submit"),
	),
	Panel: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "encoder/decoder"),
	),
	View: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "tokens/ids"),
	),
	Corpus: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "corpus"),
	),
	CopyTokens: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy tokens"),
	),
	CopyIDs: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "copy ids"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+left"),
		key.WithHelp("shift+←", "prev token"),
	),
	Next: key.NewBinding(
		key.WithKeys("shift+right"),
		key.WithHelp("shift+→", "next token"),
	),
	CopyBox: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "copy token"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc/ctrl+c", "quit"),
	),
}
