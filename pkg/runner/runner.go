// Package runner hosts an interactive storytelling session over plain text
// IO: it presents segments, reads choices and drives the engine until the
// reader leaves or the story concludes.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"log/slog"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/internal/presentation/tui"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/session"
)

// ContentRenderer post-processes markdown before it reaches the terminal.
type ContentRenderer func(string) (string, error)

// Runner drives one engine over a reader/writer pair.
type Runner struct {
	engine   *runtime.Engine
	recorder *session.Recorder
	reader   *bufio.Reader
	writer   io.Writer
	renderer ContentRenderer
	logger   *slog.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithIO overrides the input and output streams. Defaults to stdin/stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(run *Runner) {
		if r != nil {
			run.reader = bufio.NewReader(r)
		}
		if w != nil {
			run.writer = w
		}
	}
}

// WithRenderer sets a markdown renderer for segment output.
func WithRenderer(renderer ContentRenderer) Option {
	return func(run *Runner) {
		run.renderer = renderer
	}
}

// WithRecorder enables autosave of every finished round.
func WithRecorder(recorder *session.Recorder) Option {
	return func(run *Runner) {
		run.recorder = recorder
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(run *Runner) {
		run.logger = logger
	}
}

// New creates a runner around an engine.
func New(engine *runtime.Engine, opts ...Option) *Runner {
	run := &Runner{
		engine: engine,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(run)
	}
	return run
}

// Run configures and starts a new story, then loops on reader input until
// the story concludes, the reader quits, or input runs dry.
func (r *Runner) Run(ctx context.Context, cfg domain.Config) error {
	if err := r.engine.Configure(cfg); err != nil {
		return err
	}
	segment, err := r.engine.Start(ctx)
	if err != nil {
		return err
	}
	r.autosave(ctx)
	r.present(r.title(), segment)
	return r.loop(ctx)
}

// Resume continues a previously saved story.
func (r *Runner) Resume(ctx context.Context, saved domain.SavedStory) error {
	if err := r.engine.Load(saved); err != nil {
		return err
	}
	story := r.engine.Snapshot()
	r.present(story.Title, story.Current())
	return r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) error {
	for {
		if current := r.engine.Snapshot().Current(); current != nil && current.Concluded() {
			r.printf("The chronicle is complete.\n")
			return nil
		}

		input, err := r.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			r.printf("Until the next tale.\n")
			return nil
		case "soul":
			r.render(tui.ProfileMarkdown(r.engine.Personality()))
			continue
		}

		index, err := strconv.Atoi(input)
		if err != nil {
			r.printf("Pick a numbered path, or type 'soul', 'exit'.\n")
			continue
		}

		segment, err := r.engine.Choose(ctx, index-1)
		switch {
		case errors.Is(err, domain.ErrUnknownChoice):
			r.printf("That path does not exist.\n")
			continue
		case errors.Is(err, domain.ErrContinuation):
			r.logger.Error("continuation failed", "err", err)
			r.printf("The tale falters; try that path again.\n")
			continue
		case err != nil:
			return err
		}

		r.autosave(ctx)
		r.present("", segment)
	}
}

func (r *Runner) title() string {
	if story := r.engine.Snapshot(); story != nil {
		return story.Title
	}
	return ""
}

func (r *Runner) present(title string, segment *domain.Segment) {
	r.render(tui.SegmentMarkdown(title, segment))
}

func (r *Runner) render(markdown string) {
	output := markdown
	if r.renderer != nil {
		if rendered, err := r.renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.writer, strings.TrimSpace(output))
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.writer, format, args...)
}

func (r *Runner) readLine() (string, error) {
	fmt.Fprint(r.writer, "> ")
	text, err := r.reader.ReadString('\n')
	if err != nil {
		// A final line without a newline still counts.
		if errors.Is(err, io.EOF) && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// autosave records the current story when a recorder is attached. Failures
// are logged and swallowed; persistence troubles never stop the tale.
func (r *Runner) autosave(ctx context.Context) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, r.engine.Snapshot()); err != nil {
		r.logger.Warn("autosave failed", "err", err)
	}
}
