package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// EncodeWAV encodes float32 PCM samples as a 16-bit PCM WAV byte slice.
// Samples are interleaved when f.Channels > 1.
func EncodeWAV(samples []float32, f Format) ([]byte, error) {
	if f.SampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	if f.BitDepth == 0 {
		f.BitDepth = 16
	}

	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, f.SampleRate, f.BitDepth, f.Channels, 1) // 1 = PCM

	pcmBuf := &goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: f.SampleRate, NumChannels: f.Channels},
		SourceBitDepth: f.BitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// PCM16ToFloat32 converts little-endian signed 16-bit PCM bytes to float32
// samples. A trailing odd byte is ignored.
func PCM16ToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = float32(v) / 32768
	}
	return out
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	// Writing in the middle: overwrite existing bytes.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		data = append(data, p[n:]...)
		s.buf.Reset()
		s.buf.Write(data)
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case 0: // io.SeekStart
		newPos = int(offset)
	case 1: // io.SeekCurrent
		newPos = s.pos + int(offset)
	case 2: // io.SeekEnd
		newPos = s.buf.Len() + int(offset)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	s.pos = newPos
	return int64(newPos), nil
}
