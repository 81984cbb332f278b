package testutil

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-friday-voice/internal/audio"
)

// ToneWAV returns a 16-bit PCM WAV holding a 440 Hz sine of the given
// length.
func ToneWAV(tb testing.TB, f audio.Format, frames int) []byte {
	tb.Helper()

	samples := make([]float32, frames*f.Channels)
	for i := range frames {
		v := float32(0.25 * math.Sin(2*math.Pi*440*float64(i)/float64(f.SampleRate)))
		for c := range f.Channels {
			samples[i*f.Channels+c] = v
		}
	}

	data, err := audio.EncodeWAV(samples, f)
	if err != nil {
		tb.Fatalf("encode tone: %v", err)
	}
	return data
}

// WriteToneWAV writes a short mono tone to dir/name and returns the path.
func WriteToneWAV(tb testing.TB, dir, name string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	data := ToneWAV(tb, audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16}, 1600)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AssertValidWAV checks that data is a PCM WAV with the expected format and
// a non-empty data chunk.
func AssertValidWAV(tb testing.TB, data []byte, want audio.Format) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}
	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	got, err := audio.Inspect(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if want.BitDepth == 0 {
		want.BitDepth = 16
	}
	if got != want {
		tb.Fatalf("WAV format = %+v; want %+v", got, want)
	}

	size, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if size == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
}

// AssertWAVFile reads path and runs AssertValidWAV on it.
func AssertWAVFile(tb testing.TB, path string, want audio.Format) {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}
	AssertValidWAV(tb, data, want)
}

// findDataChunkSize walks the chunk list to locate the "data" sub-chunk and
// returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}
		offset += 8 + int(size)
		if size%2 != 0 {
			offset++
		}
	}
	return 0, errors.New("data chunk not found in WAV")
}
