// Package orchestrator runs the interactive speech session: it reads
// commands, keeps the session language, and drives synthesis and playback.
//
// Run pipelines the work. One goroutine synthesizes and one plays, each fed
// through a single-slot channel, so utterance N+1 can be synthesized while N
// is playing and artifacts are always played in submission order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/example/go-friday-voice/internal/artifact"
	"github.com/example/go-friday-voice/internal/playback"
	"github.com/example/go-friday-voice/internal/session"
	"github.com/example/go-friday-voice/internal/tts"
)

const (
	languagePrompt = "Select language (e.g., en, fr, es, de) [default: %s]: "
	inputPrompt    = "You: "
)

// Synthesizer turns an utterance into a persisted artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, u tts.Utterance) (artifact.Artifact, error)
}

// Warmer is implemented by synthesizers that have startup work.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Player plays an artifact to completion.
type Player interface {
	Play(ctx context.Context, art artifact.Artifact) error
}

// Notifier surfaces non-fatal failures outside the console.
type Notifier interface {
	Error(stage, message string)
}

// Messages are the fixed texts the session speaks. LanguageSwitched is a
// format string receiving the new language code.
type Messages struct {
	Start            string
	Ready            string
	Greeting         string
	Farewell         string
	LanguageSwitched string
}

// Options configures an Orchestrator. Nil Input, Output, Logger, Clock and
// Sleep fall back to defaults.
type Options struct {
	Name           string
	Language       string
	PromptLanguage bool
	Messages       Messages
	// StartupDelay is the minimum time between the start and ready
	// announcements. Engine warm-up counts towards it.
	StartupDelay time.Duration

	Input    io.Reader
	Output   io.Writer
	Notifier Notifier
	Logger   *slog.Logger
	Clock    func() time.Time
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator owns one interactive session.
type Orchestrator struct {
	synth    Synthesizer
	player   Player
	state    *session.State
	name     string
	prompt   bool
	msgs     Messages
	delay    time.Duration
	reader   *lineReader
	notifier Notifier
	logger   *slog.Logger
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	outMu sync.Mutex
	out   io.Writer
}

// New returns an Orchestrator in opts.Language. Call Startup, then Run.
func New(synth Synthesizer, player Player, opts Options) *Orchestrator {
	o := &Orchestrator{
		synth:    synth,
		player:   player,
		state:    session.New(opts.Language),
		name:     opts.Name,
		prompt:   opts.PromptLanguage,
		msgs:     opts.Messages,
		delay:    opts.StartupDelay,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		clock:    opts.Clock,
		sleep:    opts.Sleep,
		out:      opts.Output,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepContext
	}
	if o.out == nil {
		o.out = io.Discard
	}
	input := opts.Input
	if input == nil {
		input = strings.NewReader("")
	}
	o.reader = newLineReader(input)
	return o
}

// State exposes the session state for inspection.
func (o *Orchestrator) State() *session.State { return o.state }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	o.outMu.Lock()
	defer o.outMu.Unlock()
	fmt.Fprintf(o.out, format, args...)
}

// Startup asks for the initial language (if enabled), announces the boot,
// warms the engine and greets the user. Only engine warm-up failures are
// fatal; they are returned as *FatalInitError.
func (o *Orchestrator) Startup(ctx context.Context) error {
	if o.prompt {
		o.printf(languagePrompt, o.state.Language())
		line, err := o.reader.Next(ctx)
		switch {
		case err == nil:
			if code := strings.TrimSpace(line); code != "" {
				o.state.SetLanguage(code)
			}
		case errors.Is(err, io.EOF):
			o.printf("\n")
		default:
			return err
		}
		o.printf("Language set to: %s\n", o.state.Language())
	}

	o.printf("%s\n", o.msgs.Start)
	o.speakNow(ctx, o.msgs.Start)

	start := o.clock()
	if w, ok := o.synth.(Warmer); ok {
		if err := w.Warm(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &FatalInitError{Err: err}
		}
	}
	elapsed := o.clock().Sub(start)
	o.logger.Debug("engine warm", "elapsed", elapsed)

	if err := o.sleep(ctx, o.delay-elapsed); err != nil {
		return err
	}

	o.printf("%s\n", o.msgs.Ready)
	o.speakNow(ctx, o.msgs.Ready)
	o.speakNow(ctx, o.msgs.Greeting)
	return ctx.Err()
}

// speakNow synthesizes and plays text synchronously. Failures are reported
// like any other utterance.
func (o *Orchestrator) speakNow(ctx context.Context, text string) {
	if ctx.Err() != nil {
		return
	}
	art, ok := o.synthesize(ctx, o.utterance(text))
	if !ok {
		return
	}
	o.play(ctx, art)
}

func (o *Orchestrator) utterance(text string) tts.Utterance {
	return tts.Utterance{Text: text, Language: o.state.Language(), RequestedAt: o.clock()}
}

func (o *Orchestrator) synthesize(ctx context.Context, u tts.Utterance) (artifact.Artifact, bool) {
	art, err := o.synth.Synthesize(ctx, u)
	if err != nil {
		o.report(err)
		return artifact.Artifact{}, false
	}
	o.printf("%s (%s): %s | Saved as %s\n", o.name, u.Language, u.Text, filepath.Base(art.Path))
	return art, true
}

func (o *Orchestrator) play(ctx context.Context, art artifact.Artifact) {
	if err := o.player.Play(ctx, art); err != nil {
		o.report(err)
	}
}

// report prints a stage-tagged diagnostic for a failed utterance.
func (o *Orchestrator) report(err error) {
	stage := "error"
	var synthErr *tts.SynthesisError
	var playErr *playback.PlaybackError
	switch {
	case errors.As(err, &synthErr):
		stage = synthErr.Stage()
	case errors.As(err, &playErr):
		stage = playErr.Stage()
	}

	if errors.Is(err, context.Canceled) {
		o.logger.Debug("utterance cancelled", "stage", stage, "error", err)
		return
	}

	o.logger.Error("utterance failed", "stage", stage, "error", err)
	o.printf("[%s] %v\n", stage, err)
	if o.notifier != nil {
		o.notifier.Error(stage, err.Error())
	}
}

// Run reads commands until exit, end of input or cancellation. It returns
// nil after exit or end of input and ctx.Err() when cancelled. Accepted
// utterances finish before Run returns unless ctx is cancelled, in which
// case those not yet started are dropped.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.reader.Close()

	work := make(chan tts.Utterance, 1)
	ready := make(chan artifact.Artifact, 1)
	done := make(chan struct{})

	go o.synthesisLoop(ctx, work, ready)
	go o.playbackLoop(ctx, ready, done)

	submit := func(u tts.Utterance) bool {
		select {
		case work <- u:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := o.readLoop(ctx, submit)

	close(work)
	<-done

	if err != nil {
		return err
	}
	return ctx.Err()
}

func (o *Orchestrator) readLoop(ctx context.Context, submit func(tts.Utterance) bool) error {
	for {
		o.printf(inputPrompt)
		line, err := o.reader.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				o.printf("\n")
				o.logger.Info("end of input")
				return nil
			}
			return err
		}

		cmd := Classify(line)
		o.logger.Debug("command", "kind", cmd.Kind.String(), "language", o.state.Language())

		switch cmd.Kind {
		case KindExit:
			farewell := o.utterance(o.msgs.Farewell)
			o.state.Terminate()
			if !submit(farewell) {
				return ctx.Err()
			}
			return nil

		case KindNoop:
			o.logger.Debug("ignored", "error", &InputError{Line: line, Reason: "missing language code"})

		case KindLanguageSwitch:
			o.state.SetLanguage(cmd.Language)
			o.printf("Language switched to: %s\n", cmd.Language)
			if !submit(o.utterance(o.switchedMessage(cmd.Language))) {
				return ctx.Err()
			}

		case KindSpeak:
			if cmd.Text == "" {
				o.logger.Debug("speaking empty line", "error", &InputError{Line: line, Reason: "empty text"})
			}
			if !submit(o.utterance(cmd.Text)) {
				return ctx.Err()
			}
		}
	}
}

func (o *Orchestrator) switchedMessage(code string) string {
	if strings.Contains(o.msgs.LanguageSwitched, "%s") {
		return fmt.Sprintf(o.msgs.LanguageSwitched, code)
	}
	return o.msgs.LanguageSwitched
}

func (o *Orchestrator) synthesisLoop(ctx context.Context, work <-chan tts.Utterance, ready chan<- artifact.Artifact) {
	defer close(ready)
	for u := range work {
		if ctx.Err() != nil {
			continue
		}
		art, ok := o.synthesize(ctx, u)
		if !ok {
			continue
		}
		ready <- art
	}
}

func (o *Orchestrator) playbackLoop(ctx context.Context, ready <-chan artifact.Artifact, done chan<- struct{}) {
	defer close(done)
	for art := range ready {
		if ctx.Err() != nil {
			continue
		}
		o.play(ctx, art)
	}
}
