// Package tts turns utterances into WAV artifacts through an external
// speech engine.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/go-friday-voice/internal/artifact"
	"github.com/example/go-friday-voice/internal/audio"
	"github.com/example/go-friday-voice/internal/text"
)

// maxNameAttempts bounds how often Synthesize asks the namer for another
// name when a file from an earlier run already occupies the path.
const maxNameAttempts = 100

// Utterance is one request to speak Text in Language.
type Utterance struct {
	Text        string
	Language    string
	RequestedAt time.Time
}

// ServiceOptions tunes a Service.
type ServiceOptions struct {
	Speaker Speaker
	// Timeout bounds a single utterance. Zero means no limit.
	Timeout time.Duration
	// MaxChars splits longer text at sentence boundaries into several
	// engine calls whose audio is joined into one artifact. Zero disables.
	MaxChars int
	Logger   *slog.Logger
}

// Service synthesizes utterances and persists each result as an artifact.
type Service struct {
	engine   Engine
	namer    *artifact.Namer
	speaker  Speaker
	timeout  time.Duration
	maxChars int
	logger   *slog.Logger
}

// NewService returns a Service that names artifacts with namer.
func NewService(engine Engine, namer *artifact.Namer, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   engine,
		namer:    namer,
		speaker:  opts.Speaker,
		timeout:  opts.Timeout,
		maxChars: opts.MaxChars,
		logger:   logger,
	}
}

// Warm runs the engine's startup work, if it has any.
func (s *Service) Warm(ctx context.Context) error {
	w, ok := s.engine.(Warmer)
	if !ok {
		return nil
	}
	return w.Warm(ctx)
}

// Close releases the engine, if it holds resources.
func (s *Service) Close() error {
	if c, ok := s.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Synthesize produces exactly one artifact for u. Failures are returned as
// *SynthesisError and leave no file behind.
func (s *Service) Synthesize(ctx context.Context, u Utterance) (artifact.Artifact, error) {
	fail := func(err error) (artifact.Artifact, error) {
		return artifact.Artifact{}, &SynthesisError{Text: u.Text, Language: u.Language, Err: err}
	}

	if err := os.MkdirAll(s.namer.Root(), 0o755); err != nil {
		return fail(fmt.Errorf("create history dir: %w", err))
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	chunks := text.ChunkBySentence(u.Text, s.maxChars)
	data, format, err := s.generate(genCtx, chunks, u.Language)
	if err != nil {
		return fail(err)
	}

	art, err := s.persist(data, u.Language)
	if err != nil {
		return fail(err)
	}

	s.logger.Debug("utterance synthesized",
		"artifact", art.ID,
		"language", u.Language,
		"chars", len(u.Text),
		"chunks", len(chunks),
		"sample_rate", format.SampleRate,
		"bytes", len(data),
		"elapsed", time.Since(start),
	)
	return art, nil
}

// generate runs the engine once per chunk. Several chunks are decoded and
// joined into a single WAV; they must share one format.
func (s *Service) generate(ctx context.Context, chunks []string, language string) ([]byte, audio.Format, error) {
	var (
		joined []float32
		format audio.Format
	)
	for i, chunk := range chunks {
		data, err := s.engine.Generate(ctx, Request{
			Text:     chunk,
			Language: language,
			Speaker:  s.speaker,
		})
		if err != nil {
			if len(chunks) > 1 {
				return nil, audio.Format{}, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			return nil, audio.Format{}, err
		}

		if len(chunks) == 1 {
			f, err := audio.Inspect(data)
			if err != nil {
				return nil, audio.Format{}, fmt.Errorf("engine output: %w", err)
			}
			return data, f, nil
		}

		clip, err := audio.Decode(data)
		if err != nil {
			return nil, audio.Format{}, fmt.Errorf("engine output for chunk %d: %w", i+1, err)
		}
		if i == 0 {
			format = clip.Format
		} else if clip.Format.SampleRate != format.SampleRate || clip.Format.Channels != format.Channels {
			return nil, audio.Format{}, fmt.Errorf("chunk %d format %+v differs from %+v", i+1, clip.Format, format)
		}
		joined = append(joined, clip.Samples...)
	}

	out, err := audio.EncodeWAV(joined, format)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("join chunks: %w", err)
	}
	return out, format, nil
}

func (s *Service) persist(data []byte, language string) (artifact.Artifact, error) {
	tmp, err := os.CreateTemp(s.namer.Root(), ".synth-*.tmp")
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return artifact.Artifact{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("close temp file: %w", err)
	}

	for range maxNameAttempts {
		art := s.namer.Next(language)
		if _, err := os.Stat(art.Path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return artifact.Artifact{}, fmt.Errorf("stat %s: %w", art.Path, err)
		}

		if err := os.Rename(tmpPath, art.Path); err != nil {
			return artifact.Artifact{}, fmt.Errorf("save artifact: %w", err)
		}
		return art, nil
	}
	return artifact.Artifact{}, fmt.Errorf("no free artifact name under %s", filepath.Clean(s.namer.Root()))
}
