// Package server serves a tokenizer over the HTTP API consumed by the
// vani client: /encode, /decode, /info and /health.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/born-ml/vani/internal/tokenizer"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Server exposes a tokenizer.Tokenizer over HTTP.
type Server struct {
	tok    tokenizer.Tokenizer
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server for tok. tok may be nil, in which case encode and
// decode fail and /health reports the model as not loaded.
func New(tok tokenizer.Tokenizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		tok:    tok,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /encode", s.handleEncode)
	s.mux.HandleFunc("POST /decode", s.handleDecode)
	s.mux.HandleFunc("GET /info", s.handleInfo)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"request_id", r.Header.Get("X-Request-ID"),
		"elapsed", time.Since(start))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx) //nolint:contextcheck // parent is already canceled
	}
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	fields, ok := s.readFields(w, r)
	if !ok {
		return
	}
	raw, present := fields["text"]
	if !present {
		writeError(w, http.StatusBadRequest, `Invalid request. Expected JSON with "text" field.`)
		return
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		writeError(w, http.StatusBadRequest, `Invalid input. "text" must be a string.`)
		return
	}
	if s.tok == nil {
		writeError(w, http.StatusInternalServerError, "Encoding failed: model not loaded")
		return
	}

	tokens, err := s.tok.Encode(text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Encoding failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tokens":          tokens,
		"token_count":     len(tokens),
		"original_length": len([]rune(text)),
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	fields, ok := s.readFields(w, r)
	if !ok {
		return
	}
	raw, present := fields["tokens"]
	if !present {
		writeError(w, http.StatusBadRequest, `Invalid request. Expected JSON with "tokens" field.`)
		return
	}

	var values []json.Number
	if err := unmarshalNumbers(raw, &values); err != nil {
		var list []any
		if json.Unmarshal(raw, &list) != nil {
			writeError(w, http.StatusBadRequest, `Invalid input. "tokens" must be a list of integers.`)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid input. All token IDs must be integers.")
		return
	}

	ids := make([]int32, len(values))
	for i, v := range values {
		id, err := toTokenID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input. All token IDs must be integers.")
			return
		}
		ids[i] = id
	}

	if s.tok == nil {
		writeError(w, http.StatusInternalServerError, "Decoding failed: model not loaded")
		return
	}

	text, err := s.tok.Decode(ids)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Decoding failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":        text,
		"token_count": len(ids),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	if s.tok == nil {
		writeJSON(w, http.StatusOK, map[string]any{"vocab_size": 0, "num_merges": 0})
		return
	}

	info := s.tok.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"vocab_size":        info.VocabSize,
		"compression_ratio": info.CompressionRatio,
		"algorithm":         info.Algorithm,
		"num_merges":        info.NumMerges,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": s.tok != nil,
	})
}

// readFields decodes a JSON object body, writing a 400 on failure.
func (s *Server) readFields(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		s.logger.Debug("bad request body", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, "Invalid request. Expected a JSON object.")
		return nil, false
	}
	return fields, true
}

func unmarshalNumbers(raw json.RawMessage, out *[]json.Number) error {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	nums := make([]json.Number, len(list))
	for i, item := range list {
		if err := json.Unmarshal(item, &nums[i]); err != nil {
			return err
		}
	}
	*out = nums
	return nil
}

// toTokenID accepts integral JSON numbers in int32 range, including 5.0.
func toTokenID(n json.Number) (int32, error) {
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("token id %d out of range", i)
		}
		return int32(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("token id %s is not an integer", n)
	}
	return int32(f), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
