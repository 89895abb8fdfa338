// Package tokenizer is the public API of vani: a client for a remote
// tokenization service and the engines the companion server runs.
//
// This package wraps the internal implementations and provides a clean
// public API.
//
// Example usage:
//
//	import "github.com/born-ml/vani/tokenizer"
//
//	client := tokenizer.NewClient(tokenizer.DefaultClientConfig())
//
//	ids, err := client.Encode(ctx, tokenizer.CorpusSmall, "नमस्ते")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := client.Decode(ctx, tokenizer.CorpusSmall, ids)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Token IDs typed by a user, as a JSON array or a comma-separated list.
//	ids, err = tokenizer.ParseIDs("[101, 205]")
package tokenizer

import (
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/tokenids"
	"github.com/born-ml/vani/internal/tokenizer"
)

// Client talks to a remote tokenization service.
type Client = remote.Client

// ClientConfig configures a Client.
type ClientConfig = remote.Config

// ClientOption customizes a Client.
type ClientOption = remote.Option

// Info describes the tokenizer behind a service.
type Info = remote.Info

// Corpus selects the tokenizer corpus.
type Corpus = remote.Corpus

// RemoteError is returned by every Client operation.
type RemoteError = remote.RemoteError

// Corpora.
const (
	CorpusSmall = remote.CorpusSmall
	CorpusLarge = remote.CorpusLarge
)

// Error classes matched with errors.Is.
var (
	ErrNetwork = remote.ErrNetwork
	ErrService = remote.ErrService
)

// DefaultClientConfig returns a configuration for a service on localhost:5000.
func DefaultClientConfig() ClientConfig {
	return remote.DefaultConfig()
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	return remote.NewClient(cfg, opts...)
}

// ParseIDs parses token IDs given as a JSON array or a comma-separated list.
func ParseIDs(input string) ([]int32, error) {
	return tokenids.Parse(input)
}

// Engine is a local tokenizer as served by the companion server.
type Engine = tokenizer.Tokenizer

// LoadEngine creates an engine from a spec such as "merges:vocab.json",
// "tiktoken:cl100k_base" or "example".
func LoadEngine(spec string) (Engine, error) {
	return tokenizer.Load(spec)
}

// NewTikToken creates a tiktoken engine with the named encoding.
func NewTikToken(encodingName string) (Engine, error) {
	tok, err := tokenizer.NewTikToken(encodingName)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// LoadMerges loads a byte-level BPE engine from a merges file.
func LoadMerges(path string) (Engine, error) {
	tok, err := tokenizer.LoadMerges(path)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// ExampleEngine returns the small built-in BPE engine used in examples.
func ExampleEngine() Engine {
	return tokenizer.ExampleMerges()
}
