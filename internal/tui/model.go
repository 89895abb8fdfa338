// Package tui is the interactive terminal front end.
//
// The bubbletea Update loop is the single writer of the pipeline Machine:
// network calls run as tea.Cmds and come back as messages carrying
// pipeline events.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/born-ml/vani/internal/debounce"
	"github.com/born-ml/vani/internal/parallel"
	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/render"
	"github.com/born-ml/vani/internal/state"
)

// Banner messages.
const (
	msgNotAvailable = "Backend server is not available. Make sure the server is running on port 5000."
	msgCannotReach  = "Cannot connect to backend server. Make sure the server is running on port 5000."
	msgNoTokens     = "No tokens to copy."
	msgNoIDs        = "No token IDs to copy."
	msgCopyTokens   = "Failed to copy tokens."
	msgCopyIDs      = "Failed to copy token IDs."
)

// Service is the tokenization service used by the front end.
type Service interface {
	pipeline.Remote
	Health(ctx context.Context) error
	Info(ctx context.Context, corpus remote.Corpus) (*remote.Info, error)
}

// Options configures a Model.
type Options struct {
	Service Service

	// Executor runs pipeline effects. Nil builds one over Service with
	// default fan-out and caching.
	Executor pipeline.EffectExecutor

	Clock     debounce.Clock // Nil uses the real clock
	Clipboard Clipboard      // Nil uses the system clipboard
	Logger    *slog.Logger
	Corpus    remote.Corpus

	Debounce       time.Duration
	CopyFeedback   time.Duration
	InlineFeedback time.Duration
	Banner         time.Duration
}

type panel int

const (
	panelEncoder panel = iota
	panelDecoder
)

type copyTarget int

const (
	copyAllTokens copyTarget = iota
	copyAllIDs
	copyBox
)

type (
	encodeDueMsg struct{}

	eventMsg struct {
		ev pipeline.Event
	}

	healthMsg struct {
		err error
	}

	infoMsg struct {
		corpus remote.Corpus
		info   *remote.Info
		err    error
	}

	bannerExpiredMsg struct {
		seq uint64
	}

	feedbackExpiredMsg struct {
		target copyTarget
		index  int // Box index for copyBox
		seq    uint64
	}
)

// Model is the bubbletea model of the tokenizer front end.
type Model struct {
	ctx     context.Context
	service Service
	exec    pipeline.EffectExecutor
	machine *pipeline.Machine
	sched   *debounce.Scheduler
	due     chan struct{}
	clip    Clipboard
	logger  *slog.Logger
	after   func(d time.Duration, msg tea.Msg) tea.Cmd

	panel   panel
	encoder textinput.Model
	decoder textinput.Model
	view    state.ViewToggle
	corpus  state.CorpusToggle

	copyTokens state.Feedback
	copyIDs    state.Feedback
	copyBoxes  state.FeedbackSet
	selected   int // -1 when no box is selected

	banner state.Banner
	info   *remote.Info

	spinner spinner.Model
	help    help.Model
	theme   theme
	width   int
}

// New creates a Model. ctx bounds every request the model issues.
func New(ctx context.Context, opts Options) (Model, error) {
	if opts.Service == nil {
		return Model{}, errors.New("tui: no service")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	exec := opts.Executor
	if exec == nil {
		resolver, err := pipeline.NewResolver(opts.Service, parallel.DefaultConfig(), pipeline.DefaultCacheSize, logger)
		if err != nil {
			return Model{}, err
		}
		exec = pipeline.NewExecutor(opts.Service, resolver, logger)
	}

	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}

	encoder := newInput("Type text to tokenize...")
	encoder.Focus()
	decoder := newInput("Token IDs, e.g. 101, 205 or [101, 205]")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		service:    opts.Service,
		exec:       exec,
		machine:    pipeline.NewMachine(logger),
		sched:      debounce.New(opts.Debounce, opts.Clock),
		due:        make(chan struct{}, 1),
		clip:       clip,
		logger:     logger,
		after:      tick,
		encoder:    encoder,
		decoder:    decoder,
		corpus:     state.NewCorpusToggle(opts.Corpus),
		copyTokens: state.NewFeedback(orDefault(opts.CopyFeedback, state.ButtonFeedback)),
		copyIDs:    state.NewFeedback(orDefault(opts.CopyFeedback, state.ButtonFeedback)),
		copyBoxes:  state.NewFeedbackSet(orDefault(opts.InlineFeedback, state.InlineFeedback)),
		selected:   -1,
		banner:     state.NewBanner(orDefault(opts.Banner, state.BannerDuration)),
		spinner:    sp,
		help:       help.New(),
		theme:      newTheme(),
		width:      80,
	}, nil
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = placeholder
	ti.CharLimit = 10000
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func tick(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

// Init starts the health check, the info fetch and the debounce listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForDue(),
		m.healthCmd(),
		m.infoCmd(),
		m.spinner.Tick,
	)
}

// waitForDue turns the next debounce trigger into an encodeDueMsg.
func (m Model) waitForDue() tea.Cmd {
	due, done := m.due, m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-due:
			return encodeDueMsg{}
		case <-done:
			return nil
		}
	}
}

func (m Model) healthCmd() tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return healthMsg{err: svc.Health(ctx)}
	}
}

func (m Model) infoCmd() tea.Cmd {
	ctx, svc, corpus := m.ctx, m.service, m.corpus.Corpus()
	return func() tea.Msg {
		info, err := svc.Info(ctx, corpus)
		return infoMsg{corpus: corpus, info: info, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case encodeDueMsg:
		var cmds []tea.Cmd
		cmds = append(cmds, m.handle(pipeline.EncodeRequested{
			Text:   m.encoder.Value(),
			Corpus: m.corpus.Corpus(),
		})...)
		cmds = append(cmds, m.waitForDue())
		return m, tea.Batch(cmds...)

	case eventMsg:
		if msg.ev == nil {
			return m, nil
		}
		return m, tea.Batch(m.handle(msg.ev)...)

	case healthMsg:
		if msg.err == nil {
			return m, nil
		}
		m.logger.Warn("health check failed", "err", msg.err)
		if errors.Is(msg.err, remote.ErrNetwork) {
			return m, m.showBanner(msgCannotReach)
		}
		return m, m.showBanner(msgNotAvailable)

	case infoMsg:
		if msg.corpus != m.corpus.Corpus() {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Debug("info unavailable", "err", msg.err)
			return m, nil
		}
		m.info = msg.info
		return m, nil

	case bannerExpiredMsg:
		m.banner.Dismiss(msg.seq)
		return m, nil

	case feedbackExpiredMsg:
		switch msg.target {
		case copyAllTokens:
			m.copyTokens.Expire(msg.seq)
		case copyAllIDs:
			m.copyIDs.Expire(msg.seq)
		case copyBox:
			m.copyBoxes.Expire(msg.index, msg.seq)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.updateInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.sched.CancelPending()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Panel):
		m.switchPanel()
	case key.Matches(msg, keys.View):
		m.view.Toggle()
		m.copyBoxes.Reset()
	case key.Matches(msg, keys.Corpus):
		m.corpus.Toggle()
		m.info = nil
		return m, m.infoCmd()
	case key.Matches(msg, keys.CopyTokens):
		return m, m.copyAll(copyAllTokens)
	case key.Matches(msg, keys.CopyIDs):
		return m, m.copyAll(copyAllIDs)
	case key.Matches(msg, keys.Prev):
		m.moveSelection(-1)
	case key.Matches(msg, keys.Next):
		m.moveSelection(1)
	case key.Matches(msg, keys.CopyBox):
		return m, m.copySelected()
	case key.Matches(msg, keys.Submit):
		return m, m.submit()
	default:
		return m, m.updateInput(msg)
	}
	return m, nil
}

// handle applies ev to the machine and turns the effects into commands.
func (m *Model) handle(ev pipeline.Event) []tea.Cmd {
	before := m.machine.Rendered()
	effects := m.machine.Handle(ev)
	if m.machine.Rendered() != before {
		m.selected = -1
		m.copyBoxes.Reset()
	}

	var cmds []tea.Cmd
	for _, eff := range effects {
		if n, ok := eff.(pipeline.Notice); ok {
			cmds = append(cmds, m.showBanner(n.Message))
			continue
		}
		ctx, exec := m.ctx, m.exec
		cmds = append(cmds, func() tea.Msg {
			return eventMsg{ev: exec.Execute(ctx, eff)}
		})
	}
	return cmds
}

func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.panel == panelDecoder {
		m.decoder, cmd = m.decoder.Update(msg)
		return cmd
	}

	before := m.encoder.Value()
	m.encoder, cmd = m.encoder.Update(msg)
	if m.encoder.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.encoderChanged())
}

// encoderChanged debounces the encode of non-empty input and clears the
// result at once when the input is empty.
func (m *Model) encoderChanged() tea.Cmd {
	if strings.TrimSpace(m.encoder.Value()) == "" {
		m.sched.CancelPending()
		return tea.Batch(m.handle(pipeline.EncodeRequested{Corpus: m.corpus.Corpus()})...)
	}

	due := m.due
	m.sched.Schedule(func() {
		select {
		case due <- struct{}{}:
		default:
		}
	})
	return nil
}

func (m *Model) submit() tea.Cmd {
	var cmds []tea.Cmd
	if m.panel == panelDecoder {
		cmds = m.handle(pipeline.DecodeRequested{
			Input:  m.decoder.Value(),
			Corpus: m.corpus.Corpus(),
		})
		return tea.Batch(cmds...)
	}

	m.sched.Immediate(func() {
		cmds = m.handle(pipeline.EncodeRequested{
			Text:    m.encoder.Value(),
			Corpus:  m.corpus.Corpus(),
			Spinner: true,
		})
	})
	return tea.Batch(cmds...)
}

func (m *Model) switchPanel() {
	if m.panel == panelEncoder {
		m.panel = panelDecoder
		m.encoder.Blur()
		m.decoder.Focus()
		return
	}
	m.panel = panelEncoder
	m.decoder.Blur()
	m.encoder.Focus()
}

func (m *Model) projection() render.Projection {
	return render.Project(m.machine.Rendered(), m.view.Mode())
}

func (m *Model) moveSelection(delta int) {
	n := len(m.projection().Active())
	if n == 0 {
		m.selected = -1
		return
	}
	switch {
	case m.selected < 0 && delta > 0:
		m.selected = 0
	case m.selected < 0:
		m.selected = n - 1
	default:
		m.selected = (m.selected + delta + n) % n
	}
}

func (m *Model) copyAll(target copyTarget) tea.Cmd {
	p := m.projection()

	text, empty, failed, fb := render.JoinTokens(p), msgNoTokens, msgCopyTokens, &m.copyTokens
	if target == copyAllIDs {
		text, empty, failed, fb = render.JoinIDs(p), msgNoIDs, msgCopyIDs, &m.copyIDs
	}

	if p.Empty() {
		return m.showBanner(empty)
	}
	if err := m.clip.WriteAll(text); err != nil {
		m.logger.Warn("clipboard write failed", "err", err)
		return m.showBanner(failed)
	}
	seq := fb.Trigger()
	return m.after(fb.Hold, feedbackExpiredMsg{target: target, seq: seq})
}

func (m *Model) copySelected() tea.Cmd {
	boxes := m.projection().Active()
	if m.selected < 0 || m.selected >= len(boxes) {
		return nil
	}
	if err := m.clip.WriteAll(boxes[m.selected].Label); err != nil {
		m.logger.Warn("clipboard write failed", "err", err)
		return nil
	}
	seq := m.copyBoxes.Trigger(m.selected)
	return m.after(m.copyBoxes.Hold, feedbackExpiredMsg{target: copyBox, index: m.selected, seq: seq})
}

func (m *Model) showBanner(msg string) tea.Cmd {
	seq := m.banner.Show(msg)
	return m.after(m.banner.Duration, bannerExpiredMsg{seq: seq})
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	if m.banner.Visible() {
		b.WriteString(m.theme.banner.Render(m.banner.Message()))
		b.WriteString("\n\n")
	}

	if m.panel == panelDecoder {
		b.WriteString(m.decoderView())
	} else {
		b.WriteString(m.encoderView())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) headerView() string {
	title := m.theme.title.Render("Vani Tokenizer")
	if m.info != nil {
		title += "  " + m.theme.info.Render(fmt.Sprintf("vocab %d · %s · %d merges",
			m.info.VocabSize, m.info.Algorithm, m.info.NumMerges))
	}

	tabs := m.tab("Encoder", m.panel == panelEncoder) + " " + m.tab("Decoder", m.panel == panelDecoder)
	corpora := m.toggle(string(remote.CorpusSmall), m.corpus.Active(remote.CorpusSmall)) +
		m.theme.muted.Render(" | ") +
		m.toggle(string(remote.CorpusLarge), m.corpus.Active(remote.CorpusLarge))

	return title + "\n" + tabs + "   " + corpora
}

func (m Model) tab(label string, active bool) string {
	if active {
		return m.theme.tabActive.Render(label)
	}
	return m.theme.tabInactive.Render(label)
}

func (m Model) toggle(label string, active bool) string {
	if active {
		return m.theme.toggleOn.Render(label)
	}
	return m.theme.toggleOff.Render(label)
}

func (m Model) encoderView() string {
	var b strings.Builder
	b.WriteString(m.encoder.View())
	if m.machine.Loading() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	p := m.projection()
	b.WriteString(m.theme.stats.Render(fmt.Sprintf("Tokens: %d | Characters: %d", p.Stats.Tokens, p.Stats.Characters)))
	if p.Empty() {
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("   ")
	b.WriteString(m.toggle("Tokens", m.view.Active(state.ViewTokens)))
	b.WriteString(m.theme.muted.Render(" | "))
	b.WriteString(m.toggle("IDs", m.view.Active(state.ViewIDs)))
	b.WriteString("\n")

	b.WriteString(m.theme.panel.Render(m.boxesView(p.Active())))
	b.WriteString("\n")

	if line := m.verifyView(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.selected >= 0 && m.selected < len(p.Active()) {
		b.WriteString(m.theme.muted.Render(p.Active()[m.selected].Title))
		b.WriteString("\n")
	}

	b.WriteString(m.button("Copy tokens", m.copyTokens.Copied()))
	b.WriteString("  ")
	b.WriteString(m.button("Copy IDs", m.copyIDs.Copied()))
	b.WriteString("\n")
	return b.String()
}

// boxWidth is the available width inside the result panel.
func (m Model) boxWidth() int {
	return max(m.width-4, 10)
}

func (m Model) boxesView(boxes []render.Box) string {
	// Each box is padded by one cell on both sides and separated by a space.
	const pad = 3

	width := m.boxWidth()
	rows := render.Wrap(boxes, width, pad)
	lines := make([]string, 0, len(rows))
	i := 0
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, box := range row {
			label := render.Truncate(box.Label, width-pad)
			if m.copyBoxes.Copied(i) {
				label = state.CopiedText
			}
			style := m.theme.boxes[box.ColorIndex]
			if i == m.selected {
				style = style.Inherit(m.theme.selected)
			}
			cells = append(cells, style.Render(label))
			i++
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func (m Model) verifyView() string {
	v := m.machine.Snapshot().Verification
	switch v.Status {
	case pipeline.VerifyPending:
		return m.theme.muted.Render("Verifying…")
	case pipeline.VerifyMatched:
		return m.theme.verifyOK.Render("✓ Round-trip verified")
	case pipeline.VerifyMismatch:
		return m.theme.verifyBad.Render(fmt.Sprintf("✗ Round-trip mismatch: %q", v.Text))
	case pipeline.VerifyFailed:
		return m.theme.verifyBad.Render("Verification failed")
	default:
		return ""
	}
}

func (m Model) button(label string, copied bool) string {
	if copied {
		return m.theme.buttonDone.Render("[" + state.CopiedText + "]")
	}
	return m.theme.button.Render("[" + label + "]")
}

func (m Model) decoderView() string {
	var b strings.Builder
	b.WriteString(m.decoder.View())

	d := m.machine.Snapshot().Decode
	if d.Pending {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if d.Visible {
		b.WriteString(m.theme.stats.Render(fmt.Sprintf("Decoded %d tokens:", len(d.IDs))))
		b.WriteString("\n")
		b.WriteString(m.theme.panel.Render(render.DecodeText(d.Text)))
		b.WriteString("\n")
	}
	return b.String()
}
