// Package tokenids parses user-typed token ID lists.
//
// Two forms are accepted and produce identical results:
//
//	[101, 205]
//	101, 205
package tokenids

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyInput is returned when the input holds no token IDs at all.
var ErrEmptyInput = errors.New("no token IDs to decode")

// ParseError describes malformed token ID input.
type ParseError struct {
	Input  string // Trimmed input
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid token format: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses a JSON array of integers or a comma-separated list.
//
// In the comma-separated form each entry is read up to its first non-digit,
// so "12abc" is 12 and "1.5" is 1. Entries without leading digits are
// skipped; input with no usable entries is a ParseError. Blank input
// returns ErrEmptyInput.
func Parse(input string) ([]int32, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, ErrEmptyInput
	}

	if strings.HasPrefix(s, "[") {
		return parseJSON(s)
	}
	return parseList(s)
}

func parseJSON(s string) ([]int32, error) {
	var values []json.Number
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, &ParseError{Input: s, Reason: "not a JSON array of integers", Err: err}
	}
	if len(values) == 0 {
		return nil, ErrEmptyInput
	}

	ids := make([]int32, len(values))
	for i, v := range values {
		id, err := toID(string(v))
		if err != nil {
			return nil, &ParseError{Input: s, Reason: fmt.Sprintf("element %d: %v", i, err), Err: err}
		}
		ids[i] = id
	}
	return ids, nil
}

func parseList(s string) ([]int32, error) {
	parts := strings.Split(s, ",")
	ids := make([]int32, 0, len(parts))
	for _, part := range parts {
		id, err := toID(leadingInt(strings.TrimSpace(part)))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, &ParseError{Input: s, Reason: "no valid token IDs found"}
	}
	return ids, nil
}

// leadingInt returns the optional sign and the leading decimal digits of s.
func leadingInt(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return s
	}
	return s[:i]
}

func toID(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%d is out of range", n)
	}
	return int32(n), nil
}
