package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/born-ml/vani/internal/debounce"
	"github.com/born-ml/vani/internal/pipeline"
	"github.com/born-ml/vani/internal/remote"
	"github.com/born-ml/vani/internal/render"
	"github.com/born-ml/vani/internal/state"
)

// runWatch treats every stdin line as the new content of the input box:
// lines are debounced, and each settled session is printed once.
func runWatch(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("watch", stderr)
	if err := fs.Parse(args); err != nil {
		return err
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

	_, exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}

	w := &watcher{out: stdout, errOut: stderr, notify: make(chan struct{}, 1)}
	runner := pipeline.NewRunner(pipeline.NewMachine(logger), exec,
		pipeline.OnChange(w.onChange),
		pipeline.OnNotice(w.onNotice),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(runCtx) }()
	defer func() {
		cancel()
		<-runErr
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-runCtx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	sched := debounce.New(cfg.Debounce, nil)
	due := make(chan struct{}, 1)
	corpus := remote.Corpus(cfg.Corpus)

	var (
		last  string
		dirty bool
		sent  pipeline.Generation
	)
	dispatch := func() {
		sent++
		dirty = false
		runner.Dispatch(pipeline.EncodeRequested{Text: last, Corpus: corpus})
	}

	for {
		select {
		case <-ctx.Done():
			sched.CancelPending()
			return nil

		case <-due:
			if dirty {
				dispatch()
			}

		case line, ok := <-lines:
			if !ok {
				sched.CancelPending()
				if dirty {
					dispatch()
				}
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				if sent > 0 {
					w.waitFor(ctx, sent)
				}
				return nil
			}

			last, dirty = line, true
			sched.Schedule(func() {
				select {
				case due <- struct{}{}:
				default:
				}
			})
		}
	}
}

// watcher prints settled sessions and tracks how far the pipeline got.
type watcher struct {
	out    io.Writer
	errOut io.Writer
	notify chan struct{}

	mu      sync.Mutex
	done    pipeline.Generation // Latest generation with nothing left in flight
	printed pipeline.Generation
}

func (w *watcher) onChange(s pipeline.Snapshot) {
	quiet := s.Phase == pipeline.PhaseIdle ||
		(s.Phase == pipeline.PhaseSettled && s.Verification.Status != pipeline.VerifyPending)
	if !quiet {
		return
	}

	if s.Phase == pipeline.PhaseSettled && s.Session != nil && s.Session.Generation != w.printed {
		w.printed = s.Session.Generation
		printSession(w.out, render.Project(s.Session, state.ViewTokens))
		fmt.Fprintf(w.out, "Verified: %s\n\n", s.Verification.Status)
	}

	w.mu.Lock()
	w.done = s.Latest
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *watcher) onNotice(msg string) {
	fmt.Fprintln(w.errOut, msg)
}

// waitFor blocks until generation gen has nothing in flight.
func (w *watcher) waitFor(ctx context.Context, gen pipeline.Generation) {
	for {
		w.mu.Lock()
		done := w.done
		w.mu.Unlock()
		if done >= gen {
			return
		}
		select {
		case <-w.notify:
		case <-ctx.Done():
			return
		}
	}
}
