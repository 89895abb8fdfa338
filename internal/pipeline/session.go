package pipeline

import (
	"fmt"

	"github.com/born-ml/vani/internal/remote"
)

// Generation tags one encode request and all work derived from it.
type Generation uint64

// Phase is the pipeline state.
type Phase int

const (
	// PhaseIdle means nothing is in flight.
	PhaseIdle Phase = iota
	// PhaseEncoding means an encode call is in flight.
	PhaseEncoding
	// PhaseResolving means per-token decode calls are in flight.
	PhaseResolving
	// PhaseSettled means the latest session is complete and rendered.
	PhaseSettled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEncoding:
		return "encoding"
	case PhaseResolving:
		return "resolving"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// TokenRecord is one encoded token and its display text.
type TokenRecord struct {
	ID int32

	// Text is the decoded text of the token alone. Empty until Resolved.
	Text string

	// Resolved is set once the token's decode call has settled.
	Resolved bool

	// Fallback is set when the decode call failed and Text is a placeholder.
	Fallback bool
}

// Placeholder returns the display text used when a token cannot be decoded.
func Placeholder(id int32) string {
	return fmt.Sprintf("<%d>", id)
}

// Session is the result of one encode request.
//
// A settled Session is never modified; a newer request replaces it.
type Session struct {
	Generation Generation
	Text       string
	Corpus     remote.Corpus
	Tokens     []TokenRecord
}

// IDs returns the token IDs in order.
func (s *Session) IDs() []int32 {
	ids := make([]int32, len(s.Tokens))
	for i, t := range s.Tokens {
		ids[i] = t.ID
	}
	return ids
}

// Resolved reports whether every token has display text.
func (s *Session) Resolved() bool {
	for _, t := range s.Tokens {
		if !t.Resolved {
			return false
		}
	}
	return true
}

// VerifyStatus is the outcome of the round-trip check.
type VerifyStatus int

const (
	// VerifyNone means no verification applies (no session).
	VerifyNone VerifyStatus = iota
	// VerifyPending means the verification decode is in flight.
	VerifyPending
	// VerifyMatched means decode(ids) equals the original text.
	VerifyMatched
	// VerifyMismatch means decode(ids) differs from the original text.
	VerifyMismatch
	// VerifyFailed means the verification decode failed.
	VerifyFailed
)

// String returns the status name.
func (v VerifyStatus) String() string {
	switch v {
	case VerifyNone:
		return "none"
	case VerifyPending:
		return "pending"
	case VerifyMatched:
		return "matched"
	case VerifyMismatch:
		return "mismatch"
	case VerifyFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Verification is the round-trip check of the rendered session.
type Verification struct {
	Generation Generation
	Status     VerifyStatus
	Text       string // Decoded text, when the call succeeded
}

// DecodeResult is the state of the manual decode panel.
type DecodeResult struct {
	Pending bool
	Visible bool
	IDs     []int32
	Text    string
}

// Snapshot is a read-only view of the Machine for rendering.
type Snapshot struct {
	Phase        Phase
	Latest       Generation
	Session      *Session // Rendered session, nil when cleared
	Verification Verification
	Loading      bool
	Decode       DecodeResult
}
