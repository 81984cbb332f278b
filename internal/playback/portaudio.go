package playback

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/example/go-friday-voice/internal/audio"
)

const defaultFramesPerBuffer = 1024

// PortAudioDevice plays decoded PCM on the default PortAudio output.
type PortAudioDevice struct {
	framesPerBuffer int
}

func NewPortAudioDevice(framesPerBuffer int) *PortAudioDevice {
	if framesPerBuffer <= 0 {
		framesPerBuffer = defaultFramesPerBuffer
	}
	return &PortAudioDevice{framesPerBuffer: framesPerBuffer}
}

func (d *PortAudioDevice) Load(path string) (Handle, error) {
	clip, err := audio.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return &portAudioHandle{clip: clip, framesPerBuffer: d.framesPerBuffer}, nil
}

// Describe reports the default PortAudio output device.
func (d *PortAudioDevice) Describe() (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("portaudio init: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return "", fmt.Errorf("portaudio default output: %w", err)
	}
	return fmt.Sprintf("%s (%s, %.0f Hz)", dev.Name, portaudio.VersionText(), dev.DefaultSampleRate), nil
}

type portAudioHandle struct {
	clip            audio.Clip
	framesPerBuffer int

	initialized bool
	stream      *portaudio.Stream
}

func (h *portAudioHandle) Play(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	h.initialized = true

	channels := h.clip.Format.Channels
	buf := make([]float32, h.framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(
		0,        // input channels
		channels, // output channels
		float64(h.clip.Format.SampleRate),
		h.framesPerBuffer,
		buf,
	)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	h.stream = stream

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}

	samples := h.clip.Samples
	for off := 0; off < len(samples); off += len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, samples[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("drain output stream: %w", err)
	}
	return nil
}

func (h *portAudioHandle) Close() error {
	var err error
	if h.stream != nil {
		err = h.stream.Close()
		h.stream = nil
	}
	if h.initialized {
		h.initialized = false
		if terr := portaudio.Terminate(); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}
