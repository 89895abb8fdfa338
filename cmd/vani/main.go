// Package main provides the vani CLI: a live tokenizer front end and its
// companion tokenization server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/born-ml/vani/internal/config"
	"github.com/born-ml/vani/internal/debounce"
	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/server"
	"github.com/born-ml/vani/internal/tokenizer"
	"github.com/born-ml/vani/internal/tui"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "vani: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := ""
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "vani %s\n", version)
		return nil
	case "tui":
		return runTUI(ctx, args, stderr)
	case "watch":
		return runWatch(ctx, args, stdin, stdout, stderr)
	case "encode":
		return runEncode(ctx, args, stdout, stderr)
	case "decode":
		return runDecode(ctx, args, stdout, stderr)
	case "serve":
		return runServe(ctx, args, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	case "":
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return runTUI(ctx, nil, stderr)
		}
		return runWatch(ctx, nil, stdin, stdout, stderr)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "vani - live tokenizer")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui        Interactive encoder/decoder (default on a terminal)")
	fmt.Fprintln(w, "  watch      Tokenize stdin lines as they arrive (default otherwise)")
	fmt.Fprintln(w, "  encode     Encode TEXT and show each token")
	fmt.Fprintln(w, "  decode     Decode IDS given as \"1, 2\" or \"[1, 2]\"")
	fmt.Fprintln(w, "  serve      Run the tokenization server")
	fmt.Fprintln(w, "  version    Show version")
}

// commonFlags registers the flags shared by every subcommand.
type commonFlags struct {
	configPath string
	baseURL    string
	corpus     string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.baseURL, "url", "", "tokenization service base URL")
	fs.StringVar(&c.corpus, "corpus", "", "corpus: vani-small or vani-large")
	return fs, c
}

// load reads the config and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.corpus != "" {
		cfg.Corpus = c.corpus
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. With toFile the log goes to
// cfg.LogFile, or nowhere when it is unset; otherwise to stderr.
func newLogger(cfg *config.Config, toFile bool, stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if !toFile {
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}, nil
	}
	if cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }, nil
}

// newExecutor wires the client, the per-token resolver and the executor.
func newExecutor(cfg *config.Config, logger *slog.Logger) (*remote.Client, *pipeline.Executor, error) {
	client := remote.NewClient(cfg.Remote(), remote.WithLogger(logger))
	resolver, err := pipeline.NewResolver(client, cfg.Parallel(), cfg.CacheSize, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, pipeline.NewExecutor(client, resolver, logger), nil
}

func runTUI(ctx context.Context, args []string, stderr io.Writer) error {
	fs, common := newFlagSet("tui", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, true, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client, exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}

	m, err := tui.New(ctx, tui.Options{
		Service:        client,
		Executor:       exec,
		Clock:          debounce.RealClock{},
		Logger:         logger,
		Corpus:         remote.Corpus(cfg.Corpus),
		Debounce:       cfg.Debounce,
		CopyFeedback:   cfg.CopyFeedback,
		InlineFeedback: cfg.InlineFeedback,
		Banner:         cfg.Banner,
	})
	if err != nil {
		return err
	}

	logger.Info("starting tui", "base_url", cfg.BaseURL, "corpus", cfg.Corpus)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs, common := newFlagSet("serve", stderr)
	engine := fs.String("engine", "", "engine: example, merges:<path> or tiktoken:<encoding>")
	listen := fs.String("listen", "", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *engine != "" {
		cfg.Engine = *engine
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logger, closeLog, err := newLogger(cfg, false, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	tok, err := tokenizer.Load(cfg.Engine)
	if err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}
	info := tok.Info()
	logger.Info("engine loaded", "engine", cfg.Engine, "algorithm", info.Algorithm, "vocab_size", info.VocabSize)

	return server.New(tok, logger).ListenAndServe(ctx, cfg.Listen)
}
