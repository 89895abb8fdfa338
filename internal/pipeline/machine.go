package pipeline

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/tokenids"
)

// Notice messages.
const (
	msgEmptyDecodeInput = "Please enter token IDs to decode."
	msgInvalidTokens    = "Invalid token format. Use comma-separated numbers or JSON array."
)

// Machine is the live encoding pipeline state machine.
//
// It is not safe for concurrent use; one goroutine owns it.
type Machine struct {
	logger *slog.Logger

	latest  Generation
	phase   Phase
	spinner bool

	pending  *Session // Latest session while its tokens resolve
	rendered *Session // Most recent settled session, nil when cleared
	verify   Verification

	decodeSeq uint64
	decode    DecodeResult

	superseded uint64
}

// NewMachine creates an idle Machine. logger may be nil.
func NewMachine(logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{logger: logger}
}

// Handle applies ev and returns the effects to execute.
func (m *Machine) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case EncodeRequested:
		return m.onEncodeRequested(ev)
	case EncodeCompleted:
		return m.onEncodeCompleted(ev)
	case TokensResolved:
		return m.onTokensResolved(ev)
	case VerificationCompleted:
		m.onVerificationCompleted(ev)
		return nil
	case DecodeRequested:
		return m.onDecodeRequested(ev)
	case DecodeCompleted:
		return m.onDecodeCompleted(ev)
	default:
		m.logger.Warn("unknown event", "type", ev)
		return nil
	}
}

func (m *Machine) onEncodeRequested(ev EncodeRequested) []Effect {
	text := strings.TrimSpace(ev.Text)

	// Every request, including a clear, invalidates in-flight work.
	m.latest++
	m.pending = nil

	if text == "" {
		m.logger.Debug("input cleared", "generation", m.latest)
		m.phase = PhaseIdle
		m.spinner = false
		m.rendered = nil
		m.verify = Verification{}
		return nil
	}

	m.phase = PhaseEncoding
	m.spinner = ev.Spinner
	m.logger.Debug("encode requested", "generation", m.latest, "corpus", ev.Corpus, "chars", len(text))
	return []Effect{EncodeCall{Generation: m.latest, Text: text, Corpus: ev.Corpus}}
}

func (m *Machine) onEncodeCompleted(ev EncodeCompleted) []Effect {
	if !m.current(ev.Generation, "encode") {
		return nil
	}

	if ev.Err != nil {
		m.logger.Debug("encode failed", "generation", ev.Generation, "err", ev.Err)
		m.phase = PhaseIdle
		m.spinner = false
		m.rendered = nil
		m.verify = Verification{}
		return []Effect{Notice{Message: "Encoding error: " + remote.Message(ev.Err)}}
	}

	tokens := make([]TokenRecord, len(ev.IDs))
	for i, id := range ev.IDs {
		tokens[i] = TokenRecord{ID: id}
	}
	m.pending = &Session{
		Generation: ev.Generation,
		Text:       ev.Text,
		Corpus:     ev.Corpus,
		Tokens:     tokens,
	}
	m.phase = PhaseResolving

	if len(tokens) == 0 {
		return m.settle()
	}
	return []Effect{ResolveCall{Generation: ev.Generation, Corpus: ev.Corpus, IDs: m.pending.IDs()}}
}

func (m *Machine) onTokensResolved(ev TokensResolved) []Effect {
	if !m.current(ev.Generation, "resolve") || m.pending == nil {
		return nil
	}

	// Keep the session aligned with the encoder output whatever arrives.
	for i := range m.pending.Tokens {
		id := m.pending.Tokens[i].ID
		if i < len(ev.Tokens) && ev.Tokens[i].ID == id && ev.Tokens[i].Resolved {
			m.pending.Tokens[i] = ev.Tokens[i]
			continue
		}
		m.pending.Tokens[i] = TokenRecord{ID: id, Text: Placeholder(id), Resolved: true, Fallback: true}
	}
	return m.settle()
}

// settle renders the pending session and starts verification.
func (m *Machine) settle() []Effect {
	s := m.pending
	m.pending = nil
	m.rendered = s
	m.phase = PhaseSettled
	m.spinner = false
	m.verify = Verification{Generation: s.Generation, Status: VerifyPending}

	m.logger.Debug("session settled", "generation", s.Generation, "tokens", len(s.Tokens))
	return []Effect{VerifyCall{Generation: s.Generation, Corpus: s.Corpus, IDs: s.IDs()}}
}

func (m *Machine) onVerificationCompleted(ev VerificationCompleted) {
	if m.rendered == nil || ev.Generation != m.rendered.Generation || m.verify.Generation != ev.Generation {
		m.superseded++
		m.logger.Debug("dropping stale verification", "generation", ev.Generation)
		return
	}

	switch {
	case ev.Err != nil:
		m.verify.Status = VerifyFailed
		m.verify.Text = ""
	case ev.Text == m.rendered.Text:
		m.verify.Status = VerifyMatched
		m.verify.Text = ev.Text
	default:
		m.verify.Status = VerifyMismatch
		m.verify.Text = ev.Text
	}
}

func (m *Machine) onDecodeRequested(ev DecodeRequested) []Effect {
	ids, err := tokenids.Parse(ev.Input)
	if err != nil {
		if errors.Is(err, tokenids.ErrEmptyInput) && strings.TrimSpace(ev.Input) == "" {
			return []Effect{Notice{Message: msgEmptyDecodeInput}}
		}
		return []Effect{Notice{Message: msgInvalidTokens}}
	}

	m.decodeSeq++
	m.decode = DecodeResult{Pending: true, IDs: ids}
	return []Effect{DecodeCall{Seq: m.decodeSeq, Corpus: ev.Corpus, IDs: ids}}
}

func (m *Machine) onDecodeCompleted(ev DecodeCompleted) []Effect {
	if ev.Seq != m.decodeSeq {
		m.superseded++
		return nil
	}

	if ev.Err != nil {
		m.decode = DecodeResult{}
		return []Effect{Notice{Message: "Decoding error: " + remote.Message(ev.Err)}}
	}
	m.decode = DecodeResult{Visible: true, IDs: ev.IDs, Text: ev.Text}
	return nil
}

// current reports whether gen is the latest generation, counting it as
// superseded otherwise.
func (m *Machine) current(gen Generation, what string) bool {
	if gen == m.latest {
		return true
	}
	m.superseded++
	m.logger.Debug("dropping superseded result", "what", what, "generation", gen, "latest", m.latest)
	return false
}

// Snapshot returns the state to render.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Phase:        m.phase,
		Latest:       m.latest,
		Session:      m.rendered,
		Verification: m.verify,
		Loading:      m.Loading(),
		Decode:       m.decode,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Latest returns the latest issued generation.
func (m *Machine) Latest() Generation {
	return m.latest
}

// Rendered returns the rendered session, or nil.
func (m *Machine) Rendered() *Session {
	return m.rendered
}

// Loading reports whether a loading indicator should show.
func (m *Machine) Loading() bool {
	busy := m.phase == PhaseEncoding || m.phase == PhaseResolving
	return (m.spinner && busy) || m.decode.Pending
}

// Superseded returns how many results were dropped as stale.
func (m *Machine) Superseded() uint64 {
	return m.superseded
}
