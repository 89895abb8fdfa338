package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/render"
	"github.com/born-ml/vani/internal/state"
	"github.com/born-ml/vani/internal/tokenids"
)

func runEncode(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("encode", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return errors.New("encode: no text given")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client, exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}
	corpus := remote.Corpus(cfg.Corpus)

	ids, err := client.Encode(ctx, corpus, text)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	ev := exec.Execute(ctx, pipeline.ResolveCall{Corpus: corpus, IDs: ids})
	resolved, _ := ev.(pipeline.TokensResolved)

	s := &pipeline.Session{Text: text, Corpus: corpus, Tokens: resolved.Tokens}
	printSession(stdout, render.Project(s, state.ViewTokens))
	return nil
}

func runDecode(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("decode", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := tokenids.Parse(strings.Join(fs.Args(), " "))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client := remote.NewClient(cfg.Remote(), remote.WithLogger(logger))
	text, err := client.Decode(ctx, remote.Corpus(cfg.Corpus), ids)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(stdout, render.DecodeText(text))
	return nil
}

// printSession writes the stats, the ids and one quoted token per box.
func printSession(w io.Writer, p render.Projection) {
	fmt.Fprintf(w, "Tokens: %d | Characters: %d\n", p.Stats.Tokens, p.Stats.Characters)
	fmt.Fprintf(w, "IDs: [%s]\n", render.JoinIDs(p))

	quoted := make([]string, len(p.Tokens))
	for i, b := range p.Tokens {
		quoted[i] = strconv.Quote(b.Label)
	}
	fmt.Fprintf(w, "Text: %s\n", strings.Join(quoted, " "))
}
