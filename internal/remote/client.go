// Package remote is the HTTP client for the tokenization service.
//
// The service exposes two operations, encode and decode, plus health and
// info probes:
//
//	POST /encode  {"text": "..."}       -> {"tokens": [1, 2, 3]}
//	POST /decode  {"tokens": [1, 2, 3]} -> {"text": "..."}
//	GET  /health
//	GET  /info
//
// Every failure is reported as a *RemoteError so callers can treat
// transport and service failures uniformly.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is the address of a locally running tokenizer service.
const DefaultBaseURL = "http://localhost:5000"

// Config configures a Client.
type Config struct {
	// BaseURL is used for every corpus without an entry in Corpora.
	BaseURL string

	// Corpora routes a corpus to its own service base URL.
	Corpora map[Corpus]string

	// Timeout bounds each request. Zero keeps the transport default.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at DefaultBaseURL.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
	}
}

// Info describes the tokenizer behind a service.
type Info struct {
	VocabSize        int     `json:"vocab_size"`
	CompressionRatio float64 `json:"compression_ratio"`
	Algorithm        string  `json:"algorithm"`
	NumMerges        int     `json:"num_merges"`
}

// Client talks to the tokenization service.
type Client struct {
	http    *http.Client
	baseURL string
	corpora map[Corpus]string
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	corpora := make(map[Corpus]string, len(cfg.Corpora))
	for corpus, url := range cfg.Corpora {
		corpora[corpus] = strings.TrimRight(url, "/")
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(base, "/"),
		corpora: corpora,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address used for corpus.
func (c *Client) BaseURL(corpus Corpus) string {
	if url, ok := c.corpora[corpus]; ok && url != "" {
		return url
	}
	return c.baseURL
}

type encodeRequest struct {
	Text string `json:"text"`
}

type encodeResponse struct {
	Tokens []int32 `json:"tokens"`
}

type decodeRequest struct {
	Tokens []int32 `json:"tokens"`
}

type decodeResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Encode converts text to token IDs using the tokenizer for corpus.
func (c *Client) Encode(ctx context.Context, corpus Corpus, text string) ([]int32, error) {
	var resp encodeResponse
	if err := c.do(ctx, "encode", http.MethodPost, c.BaseURL(corpus)+"/encode", encodeRequest{Text: text}, &resp, "Encoding failed"); err != nil {
		return nil, err
	}
	if resp.Tokens == nil {
		return []int32{}, nil
	}
	return resp.Tokens, nil
}

// Decode converts token IDs back to text using the tokenizer for corpus.
//
// Decoding an empty list returns an empty string.
func (c *Client) Decode(ctx context.Context, corpus Corpus, ids []int32) (string, error) {
	if ids == nil {
		ids = []int32{}
	}

	var resp decodeResponse
	if err := c.do(ctx, "decode", http.MethodPost, c.BaseURL(corpus)+"/decode", decodeRequest{Tokens: ids}, &resp, "Decoding failed"); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Health checks that the default service is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, c.baseURL+"/health", nil, nil, "Health check failed")
}

// Info fetches tokenizer metadata for corpus.
func (c *Client) Info(ctx context.Context, corpus Corpus) (*Info, error) {
	var info Info
	if err := c.do(ctx, "info", http.MethodGet, c.BaseURL(corpus)+"/info", nil, &info, "Info request failed"); err != nil {
		return nil, err
	}
	return &info, nil
}

// do performs one JSON round trip. out may be nil when the body is ignored.
func (c *Client) do(ctx context.Context, op, method, url string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &RemoteError{Kind: KindService, Op: op, Message: "failed to marshal request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &RemoteError{Kind: KindNetwork, Op: op, Message: err.Error(), Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "url", url, "request_id", requestID, "err", err)
		return &RemoteError{Kind: KindNetwork, Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.logger.Debug("request done",
		"op", op,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &RemoteError{Kind: KindService, Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{
			Kind:    KindService,
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %v", err),
			Err:     err,
		}
	}
	return nil
}
