package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vani/internal/debounce"
	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/server"
	"github.com/born-ml/vani/internal/state"
	"github.com/born-ml/vani/internal/tokenizer"
)

type fakeClipboard struct {
	mu     sync.Mutex
	texts  []string
	failed bool
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errors.New("clipboard unavailable")
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1]
}

// timerMsg records a tea.Tick so tests decide when timers fire.
type timerMsg struct {
	d   time.Duration
	msg tea.Msg
}

// harness runs a Model the way bubbletea does: commands run on their own
// goroutines and their messages are applied one at a time. Timers are
// recorded in order as Update starts them and never fire on their own.
type harness struct {
	t      *testing.T
	m      Model
	clock  *debounce.FakeClock
	clip   *fakeClipboard
	msgs   chan tea.Msg
	timers []timerMsg
	calls  *calls
}

type calls struct {
	mu     sync.Mutex
	encode int
	info   int
}

func (c *calls) encodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encode
}

func (c *calls) infos() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// newHarness starts a model against h, or the example tokenizer service
// when h is nil.
func newHarness(t *testing.T, h http.Handler) *harness {
	t.Helper()

	if h == nil {
		h = server.New(tokenizer.ExampleMerges(), nil)
	}
	counted := &calls{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counted.mu.Lock()
		switch r.URL.Path {
		case "/encode":
			counted.encode++
		case "/info":
			counted.info++
		}
		counted.mu.Unlock()
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return newHarnessFor(t, remote.NewClient(remote.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}), counted)
}

func newHarnessFor(t *testing.T, svc Service, counted *calls) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := debounce.NewFakeClock()
	clip := &fakeClipboard{}
	m, err := New(ctx, Options{
		Service:   svc,
		Clock:     clock,
		Clipboard: clip,
	})
	require.NoError(t, err)

	h := &harness{
		t:     t,
		m:     m,
		clock: clock,
		clip:  clip,
		msgs:  make(chan tea.Msg, 256),
		calls: counted,
	}
	// Update runs on the test goroutine only, so timers are recorded
	// synchronously and in the order they were started.
	h.m.after = func(d time.Duration, msg tea.Msg) tea.Cmd {
		h.timers = append(h.timers, timerMsg{d: d, msg: msg})
		return nil
	}
	h.exec(h.m.Init())
	return h
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if msg := cmd(); msg != nil {
			h.msgs <- msg
		}
	}()
}

func (h *harness) update(msg tea.Msg) {
	model, cmd := h.m.Update(msg)
	h.m = model.(Model) //nolint:forcetypeassert // Update always returns Model.
	h.exec(cmd)
}

func (h *harness) process(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			h.exec(cmd)
		}
	case spinner.TickMsg:
		// Not animated in tests.
	default:
		h.update(msg)
	}
}

func (h *harness) waitFor(what string, pred func(Model) bool) {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for !pred(h.m) {
		select {
		case msg := <-h.msgs:
			h.process(msg)
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

// settle applies messages until none arrive for a short while.
func (h *harness) settle() {
	for {
		select {
		case msg := <-h.msgs:
			h.process(msg)
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func (h *harness) key(k tea.KeyType) {
	h.update(tea.KeyMsg{Type: k})
}

func (h *harness) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// fire delivers the pending timer messages of type T.
func fire[T tea.Msg](h *harness) int {
	var rest []timerMsg
	var due []tea.Msg
	for _, tm := range h.timers {
		if _, ok := tm.msg.(T); ok {
			due = append(due, tm.msg)
			continue
		}
		rest = append(rest, tm)
	}
	h.timers = rest
	for _, msg := range due {
		h.update(msg)
	}
	return len(due)
}

func settled(m Model) bool {
	s := m.machine.Snapshot()
	return s.Session != nil && s.Verification.Status != pipeline.VerifyPending
}

func (h *harness) encodeAndSettle(text string) {
	h.t.Helper()
	h.typeText(text)
	h.clock.Advance(h.m.sched.Interval())
	want := strings.TrimSpace(h.m.encoder.Value())
	h.waitFor("settled session", func(m Model) bool {
		return settled(m) && m.machine.Snapshot().Session.Text == want
	})
}

func TestModel_DebouncedEncode(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor("info", func(m Model) bool { return m.info != nil })
	assert.Equal(t, 264, h.m.info.VocabSize)

	h.typeText("hel")
	h.clock.Advance(300 * time.Millisecond)
	h.typeText("lo नम")
	h.clock.Advance(499 * time.Millisecond)
	h.settle()
	assert.Zero(t, h.calls.encodes(), "no request inside the quiet period")
	assert.Equal(t, pipeline.Generation(0), h.m.machine.Latest())

	h.clock.Advance(time.Millisecond)
	h.waitFor("settled session", settled)

	s := h.m.machine.Rendered()
	assert.Equal(t, "hello नम", s.Text)
	assert.Equal(t, []int32{259, 32, 263}, s.IDs())
	assert.Equal(t, 1, h.calls.encodes())
	assert.Equal(t, pipeline.VerifyMatched, h.m.machine.Snapshot().Verification.Status)
	assert.False(t, h.m.machine.Loading(), "debounced encodes show no spinner")

	view := h.m.View()
	assert.Contains(t, view, "Tokens: 3 | Characters: 8")
	assert.Contains(t, view, "नम")
	assert.Contains(t, view, "Round-trip verified")
	assert.Contains(t, view, "vocab 264")
}

func TestModel_ClearInput(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello")

	h.typeText(" there")
	require.Equal(t, 1, h.clock.Pending())

	h.key(tea.KeyCtrlU)
	assert.Empty(t, h.m.encoder.Value())
	assert.Nil(t, h.m.machine.Rendered(), "cleared synchronously")
	assert.Zero(t, h.clock.Pending(), "pending encode canceled")

	h.clock.Advance(time.Second)
	h.settle()
	assert.Equal(t, 1, h.calls.encodes())
	assert.Nil(t, h.m.machine.Rendered())
	assert.Contains(t, h.m.View(), "Tokens: 0 | Characters: 0")
}

func TestModel_Submit(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText("hello")
	require.True(t, h.m.sched.Pending())

	h.key(tea.KeyEnter)
	assert.False(t, h.m.sched.Pending(), "submit replaces the pending encode")
	assert.True(t, h.m.machine.Loading())

	h.waitFor("settled session", settled)
	assert.False(t, h.m.machine.Loading())

	h.clock.Advance(time.Second)
	h.settle()
	assert.Equal(t, 1, h.calls.encodes())
}

func TestModel_EncodeError(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/", server.New(tokenizer.ExampleMerges(), nil))
	mux.HandleFunc("POST /encode", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Encoding failed: boom"}`))
	})
	h := newHarness(t, mux)

	h.typeText("hello")
	h.key(tea.KeyTab)
	h.waitFor("banner", func(m Model) bool { return m.banner.Visible() })

	assert.Equal(t, "Encoding error: Encoding failed: boom", h.m.banner.Message())
	assert.False(t, h.m.machine.Loading())
	assert.Nil(t, h.m.machine.Rendered())

	assert.Equal(t, 1, fire[bannerExpiredMsg](h))
	assert.False(t, h.m.banner.Visible())
}

func TestModel_HealthBanners(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		h.waitFor("banner", func(m Model) bool { return m.banner.Visible() })
		assert.Equal(t, msgNotAvailable, h.m.banner.Message())
		assert.Contains(t, h.m.View(), "Backend server is not available")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		h := newHarnessFor(t, remote.NewClient(remote.Config{BaseURL: srv.URL}), &calls{})
		h.waitFor("banner", func(m Model) bool { return m.banner.Visible() })
		assert.Equal(t, msgCannotReach, h.m.banner.Message())
	})
}

func TestModel_BannerReplaced(t *testing.T) {
	h := newHarness(t, nil)
	h.settle()

	h.key(tea.KeyCtrlY)
	h.key(tea.KeyCtrlR)
	assert.Equal(t, msgNoIDs, h.m.banner.Message())

	// Expiry of the first banner leaves the second showing.
	first := h.timers[0]
	h.timers = h.timers[1:]
	h.update(first.msg)
	assert.Equal(t, msgNoIDs, h.m.banner.Message())

	fire[bannerExpiredMsg](h)
	assert.False(t, h.m.banner.Visible())
}

func TestModel_CopyAll(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello नम")

	h.key(tea.KeyCtrlY)
	assert.Equal(t, "hello   नम", h.clip.last())
	assert.True(t, h.m.copyTokens.Copied())
	assert.Contains(t, h.m.View(), "[Copied!]")

	h.key(tea.KeyCtrlR)
	assert.Equal(t, "259, 32, 263", h.clip.last())
	assert.True(t, h.m.copyIDs.Copied())

	require.Len(t, h.timers, 2)
	assert.Equal(t, 2000*time.Millisecond, h.timers[0].d)

	assert.Equal(t, 2, fire[feedbackExpiredMsg](h))
	assert.False(t, h.m.copyTokens.Copied())
	assert.False(t, h.m.copyIDs.Copied())
}

func TestModel_CopyFeedbackRetrigger(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello")

	h.key(tea.KeyCtrlY)
	first := h.timers[0]
	h.timers = nil
	h.key(tea.KeyCtrlY)

	h.update(first.msg)
	assert.True(t, h.m.copyTokens.Copied(), "an old timer cannot end a newer Copied state")

	fire[feedbackExpiredMsg](h)
	assert.False(t, h.m.copyTokens.Copied())
}

func TestModel_CopyErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.settle()

	h.key(tea.KeyCtrlY)
	assert.Equal(t, msgNoTokens, h.m.banner.Message())

	h.encodeAndSettle("hello")
	h.clip.failed = true
	h.key(tea.KeyCtrlY)
	assert.Equal(t, msgCopyTokens, h.m.banner.Message())
	h.key(tea.KeyCtrlR)
	assert.Equal(t, msgCopyIDs, h.m.banner.Message())
	assert.False(t, h.m.copyTokens.Copied())
}

func TestModel_CopySelectedBox(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello नम")

	h.key(tea.KeyShiftRight)
	h.key(tea.KeyShiftRight)
	h.key(tea.KeyShiftRight)
	assert.Equal(t, 2, h.m.selected)
	assert.Contains(t, h.m.View(), "Token ID: 263")

	h.key(tea.KeyCtrlS)
	assert.Equal(t, "नम", h.clip.last())
	assert.Contains(t, h.m.View(), "Copied!")
	require.Len(t, h.timers, 1)
	assert.Equal(t, 1000*time.Millisecond, h.timers[0].d)

	fire[feedbackExpiredMsg](h)
	assert.NotContains(t, h.m.View(), "Copied!")

	// The IDs view copies the ID.
	h.key(tea.KeyCtrlG)
	h.key(tea.KeyShiftLeft)
	h.key(tea.KeyCtrlS)
	assert.Equal(t, "32", h.clip.last())
}

func TestModel_CopyBoxesIndependent(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello नम")
	copied := func() int {
		return strings.Count(h.m.boxesView(h.m.projection().Active()), state.CopiedText)
	}

	h.key(tea.KeyShiftRight)
	h.key(tea.KeyCtrlS)
	h.key(tea.KeyShiftRight)
	h.key(tea.KeyCtrlS)
	assert.Equal(t, " ", h.clip.last())
	assert.Equal(t, 2, copied(), "both boxes show feedback within the hold")
	require.Len(t, h.timers, 2)

	// The first box's timer leaves the second box showing.
	first := h.timers[0]
	h.timers = h.timers[1:]
	h.update(first.msg)
	assert.Equal(t, 1, copied())
	assert.True(t, h.m.copyBoxes.Copied(1))

	assert.Equal(t, 1, fire[feedbackExpiredMsg](h))
	assert.Zero(t, copied())
}

func TestModel_CopyBoxesResetOnNewSession(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello")

	h.key(tea.KeyShiftRight)
	h.key(tea.KeyCtrlS)
	require.True(t, h.m.copyBoxes.Copied(0))

	h.encodeAndSettle(" नम")
	assert.Zero(t, h.m.copyBoxes.Len(), "a new session starts without feedback")
	assert.Equal(t, 1, fire[feedbackExpiredMsg](h))
	assert.Zero(t, h.m.copyBoxes.Len())
}

func TestModel_CorpusRefreshesInfo(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor("info", func(m Model) bool { return m.info != nil })
	require.Equal(t, 1, h.calls.infos())

	h.key(tea.KeyCtrlO)
	assert.Nil(t, h.m.info, "the previous corpus's info is not shown")
	h.waitFor("info", func(m Model) bool { return m.info != nil })
	assert.Equal(t, 2, h.calls.infos())
	assert.Zero(t, h.calls.encodes())

	// A late reply for the other corpus is ignored.
	current := h.m.info
	h.update(infoMsg{corpus: remote.CorpusSmall, info: &remote.Info{VocabSize: 1}})
	assert.Same(t, current, h.m.info)
}

func TestModel_Toggles(t *testing.T) {
	h := newHarness(t, nil)
	h.encodeAndSettle("hello नम")
	h.settle()
	before := h.calls.encodes()

	tokens := h.m.projection()
	h.key(tea.KeyCtrlG)
	ids := h.m.projection()
	assert.Equal(t, tokens.Tokens, ids.Tokens)
	assert.Equal(t, "259", ids.Active()[0].Label)
	assert.Contains(t, h.m.View(), "263")

	h.key(tea.KeyCtrlO)
	assert.Equal(t, remote.CorpusLarge, h.m.corpus.Corpus())
	h.key(tea.KeyCtrlO)
	assert.Equal(t, remote.CorpusSmall, h.m.corpus.Corpus())

	h.settle()
	assert.Equal(t, before, h.calls.encodes(), "toggles issue no requests")
	assert.Equal(t, "hello नम", h.m.machine.Rendered().Text)
}

func TestModel_Decoder(t *testing.T) {
	h := newHarness(t, nil)
	h.settle()

	h.key(tea.KeyCtrlT)
	assert.Contains(t, h.m.View(), "Decoder")

	h.key(tea.KeyEnter)
	assert.Equal(t, "Please enter token IDs to decode.", h.m.banner.Message())

	h.typeText("[259, 32, 263]")
	h.key(tea.KeyEnter)
	h.waitFor("decode", func(m Model) bool { return m.machine.Snapshot().Decode.Visible })
	assert.Equal(t, "hello नम", h.m.machine.Snapshot().Decode.Text)
	assert.Contains(t, h.m.View(), "hello नम")

	h.key(tea.KeyCtrlU)
	h.typeText("abc")
	h.key(tea.KeyEnter)
	assert.Equal(t, "Invalid token format. Use comma-separated numbers or JSON array.", h.m.banner.Message())

	assert.Zero(t, h.calls.encodes(), "typing in the decoder never encodes")
}

func TestModel_DecodeEmpty(t *testing.T) {
	h := newHarness(t, nil)
	h.settle()

	// 999 is outside the vocabulary and decodes to nothing.
	h.key(tea.KeyCtrlT)
	h.typeText("999")
	h.key(tea.KeyEnter)
	h.waitFor("decode", func(m Model) bool { return m.machine.Snapshot().Decode.Visible })
	assert.Contains(t, h.m.View(), "(empty)")
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, nil)
	h.typeText("hello")

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.False(t, h.m.sched.Pending())
}

func TestNew_NoService(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestView_Wraps(t *testing.T) {
	h := newHarness(t, nil)
	h.update(tea.WindowSizeMsg{Width: 20, Height: 10})
	h.encodeAndSettle(strings.Repeat("hello ", 4))

	p := h.m.projection()
	assert.Len(t, p.Tokens, 7)
	assert.Greater(t, strings.Count(h.m.boxesView(p.Active()), "\n"), 0)
}
