package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/wav"
)

// ErrInvalidWAV is returned when data is not a decodable WAV container.
var ErrInvalidWAV = errors.New("invalid WAV data")

// Format describes the PCM layout of a WAV container.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip is a decoded WAV: interleaved float32 samples in [-1, 1] plus format.
type Clip struct {
	Format  Format
	Samples []float32
}

// Frames returns the number of sample frames (samples per channel).
func (c Clip) Frames() int {
	if c.Format.Channels < 1 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Inspect validates the WAV header and returns its format without decoding
// the sample data.
func Inspect(data []byte) (Format, error) {
	if len(data) == 0 {
		return Format{}, fmt.Errorf("%w: empty input", ErrInvalidWAV)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Format{}, ErrInvalidWAV
	}

	f := Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if f.SampleRate < 1 || f.Channels < 1 {
		return Format{}, fmt.Errorf("%w: sample rate %d, channels %d", ErrInvalidWAV, f.SampleRate, f.Channels)
	}
	return f, nil
}

// Decode decodes WAV bytes into float32 PCM samples.
func Decode(data []byte) (Clip, error) {
	f, err := Inspect(data)
	if err != nil {
		return Clip{}, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Clip{Format: f, Samples: buf.Data}, nil
}

// DecodeFile reads and decodes the WAV file at path.
func DecodeFile(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read %s: %w", path, err)
	}
	clip, err := Decode(data)
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip, nil
}
