package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vani/internal/config"
	"github.com/born-ml/vani/internal/server"
	"github.com/born-ml/vani/internal/tokenizer"
)

func newService(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvBaseURL, "")
	srv := httptest.NewServer(server.New(tokenizer.ExampleMerges(), nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "vani "+version+"\n", out)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "", "train")
	assert.Error(t, err)
	assert.Contains(t, stderr, "Commands:")
}

func TestEncode(t *testing.T) {
	url := newService(t)

	out, _, err := runCLI(t, "", "encode", "--url", url, "hello", "नम")
	require.NoError(t, err)
	assert.Equal(t, "Tokens: 3 | Characters: 8\nIDs: [259, 32, 263]\nText: \"hello\" \" \" \"नम\"\n", out)
}

func TestDecode(t *testing.T) {
	url := newService(t)

	out, _, err := runCLI(t, "", "decode", "--url", url, "[259, 32, 263]")
	require.NoError(t, err)
	assert.Equal(t, "hello नम\n", out)

	out, _, err = runCLI(t, "", "decode", "--url", url, "259,", "32,", "263")
	require.NoError(t, err)
	assert.Equal(t, "hello नम\n", out)

	_, _, err = runCLI(t, "", "decode", "--url", url, "abc")
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "decode", "--url", url, "260")
	assert.ErrorContains(t, err, "Decoding failed")
}

func TestWatch(t *testing.T) {
	url := newService(t)

	// Lines arriving inside one quiet period collapse to the last one.
	out, stderr, err := runCLI(t, "hel\nhello\nhello नम\n", "watch", "--url", url)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, 1, strings.Count(out, "Tokens:"))
	assert.Contains(t, out, "IDs: [259, 32, 263]")
	assert.Contains(t, out, "Verified: matched")
}

func TestWatch_NoInput(t *testing.T) {
	url := newService(t)

	out, _, err := runCLI(t, "", "watch", "--url", url)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDefaultCommandWithoutTerminal(t *testing.T) {
	url := newService(t)
	t.Setenv(config.EnvBaseURL, url)

	out, _, err := runCLI(t, "hello\n")
	require.NoError(t, err)
	assert.Contains(t, out, "IDs: [259]")
}

func TestBadConfig(t *testing.T) {
	newService(t)

	_, _, err := runCLI(t, "", "encode", "--corpus", "vani-medium", "hi")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
