package pipeline

import "github.com/born-ml/vani/internal/remote"

// Event is an input to Machine.Handle.
type Event interface {
	isEvent()
}

// EncodeRequested asks for text to be tokenized. Empty text clears.
type EncodeRequested struct {
	Text    string
	Corpus  remote.Corpus
	Spinner bool // Show the loading indicator (explicit submit)
}

// EncodeCompleted carries the result of an EncodeCall.
type EncodeCompleted struct {
	Generation Generation
	Text       string
	Corpus     remote.Corpus
	IDs        []int32
	Err        error
}

// TokensResolved carries the joined per-token decode results of a ResolveCall.
type TokensResolved struct {
	Generation Generation
	Tokens     []TokenRecord
}

// VerificationCompleted carries the result of a VerifyCall.
type VerificationCompleted struct {
	Generation Generation
	Text       string
	Err        error
}

// DecodeRequested asks for user-typed token IDs to be decoded.
type DecodeRequested struct {
	Input  string
	Corpus remote.Corpus
}

// DecodeCompleted carries the result of a DecodeCall.
type DecodeCompleted struct {
	Seq  uint64
	IDs  []int32
	Text string
	Err  error
}

func (EncodeRequested) isEvent()       {}
func (EncodeCompleted) isEvent()       {}
func (TokensResolved) isEvent()        {}
func (VerificationCompleted) isEvent() {}
func (DecodeRequested) isEvent()       {}
func (DecodeCompleted) isEvent()       {}

// Effect is work requested by the Machine.
type Effect interface {
	isEffect()
}

// EncodeCall requests encode(text).
type EncodeCall struct {
	Generation Generation
	Text       string
	Corpus     remote.Corpus
}

// ResolveCall requests decode([id]) for every id, joined in order.
type ResolveCall struct {
	Generation Generation
	Corpus     remote.Corpus
	IDs        []int32
}

// VerifyCall requests decode(ids) for the whole sequence.
type VerifyCall struct {
	Generation Generation
	Corpus     remote.Corpus
	IDs        []int32
}

// DecodeCall requests decode(ids) for the manual decode panel.
type DecodeCall struct {
	Seq    uint64
	Corpus remote.Corpus
	IDs    []int32
}

// Notice asks the UI to show a transient message.
type Notice struct {
	Message string
}

func (EncodeCall) isEffect()  {}
func (ResolveCall) isEffect() {}
func (VerifyCall) isEffect()  {}
func (DecodeCall) isEffect()  {}
func (Notice) isEffect()      {}
