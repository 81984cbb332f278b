// Package playback plays artifacts on the local audio output.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/go-friday-voice/internal/artifact"
	"github.com/example/go-friday-voice/internal/config"
)

// Handle is a loaded artifact ready to play. Close releases the output
// device and must be safe to call whether or not Play ran.
type Handle interface {
	Play(ctx context.Context) error
	Close() error
}

// Device loads audio files into playable handles.
type Device interface {
	Load(path string) (Handle, error)
}

// PlaybackError reports a failed playback. The artifact stays on disk.
type PlaybackError struct {
	Path string
	Err  error
}

// Stage names the pipeline stage that failed.
func (e *PlaybackError) Stage() string { return "playback" }

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s: %v", e.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Service serializes playback on one device.
type Service struct {
	device Device
	logger *slog.Logger
	mu     sync.Mutex
}

func NewService(device Device, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{device: device, logger: logger}
}

// Play blocks until art has been played, ctx is done, or the device fails.
// Every error is a *PlaybackError.
func (s *Service) Play(ctx context.Context, art artifact.Artifact) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(cause error) error {
		return &PlaybackError{Path: art.Path, Err: cause}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	h, err := s.device.Load(art.Path)
	if err != nil {
		return fail(fmt.Errorf("load: %w", err))
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			if err == nil {
				err = fail(fmt.Errorf("release device: %w", cerr))
			} else {
				s.logger.Warn("release audio device", "artifact", art.ID, "error", cerr)
			}
		}
	}()

	start := time.Now()
	if err := h.Play(ctx); err != nil {
		return fail(err)
	}
	s.logger.Debug("artifact played", "artifact", art.ID, "elapsed", time.Since(start))
	return nil
}

// Describer is implemented by devices that can report what they would play
// through without playing anything.
type Describer interface {
	Describe() (string, error)
}

// NewDevice builds the device selected by cfg.Playback.Device.
func NewDevice(cfg config.PlaybackConfig) (Device, error) {
	name, err := config.NormalizeDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	switch name {
	case config.DevicePortAudio:
		return NewPortAudioDevice(cfg.FramesPerBuffer), nil
	case config.DeviceCommand:
		return NewCommandDevice(cfg.Command), nil
	default:
		return nil, errors.New("unsupported playback device " + name)
	}
}
