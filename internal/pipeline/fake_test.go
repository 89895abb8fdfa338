package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/born-ml/vani/internal/remote"
)

var errFakeDecode = &remote.RemoteError{Kind: remote.KindService, Op: "decode", Status: 400, Message: "Decoding failed: bad token"}

// fakeRemote is an in-memory tokenizer service.
//
// Encode looks texts up in a fixed table; Decode joins the texts of known IDs.
type fakeRemote struct {
	mu sync.Mutex

	encode map[string][]int32
	texts  map[int32]string

	failDecode map[int32]bool // decode([id]) fails for these ids
	failEncode error
	failVerify bool

	// gates block Encode for a text until the channel is closed.
	gates map[string]chan struct{}

	encodeCalls []string
	decodeCalls [][]int32
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		encode: map[string][]int32{
			"नमस्ते":      {101, 205},
			"hello":       {7},
			"hello world": {7, 8},
		},
		texts: map[int32]string{
			101: "नम",
			205: "स्ते",
			7:   "hello",
			8:   " world",
		},
		failDecode: map[int32]bool{},
		gates:      map[string]chan struct{}{},
	}
}

func (f *fakeRemote) gate(text string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[text] = ch
	return ch
}

func (f *fakeRemote) Encode(ctx context.Context, _ remote.Corpus, text string) ([]int32, error) {
	f.mu.Lock()
	f.encodeCalls = append(f.encodeCalls, text)
	gate := f.gates[text]
	failure := f.failEncode
	ids, ok := f.encode[text]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, &remote.RemoteError{Kind: remote.KindService, Op: "encode", Status: 500, Message: "Encoding failed: unknown text"}
	}
	return append([]int32(nil), ids...), nil
}

func (f *fakeRemote) Decode(_ context.Context, _ remote.Corpus, ids []int32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decodeCalls = append(f.decodeCalls, append([]int32(nil), ids...))
	if len(ids) == 1 && f.failDecode[ids[0]] {
		return "", errFakeDecode
	}
	if len(ids) > 1 && f.failVerify {
		return "", errors.New("verification unavailable")
	}

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(f.texts[id])
	}
	return b.String(), nil
}

func (f *fakeRemote) encodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.encodeCalls...)
}

func (f *fakeRemote) decodes() [][]int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int32(nil), f.decodeCalls...)
}
