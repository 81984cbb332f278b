package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/go-friday-voice/internal/artifact"
	"github.com/example/go-friday-voice/internal/audio"
	"github.com/example/go-friday-voice/internal/testutil"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

type fakeEngine struct {
	mu       sync.Mutex
	requests []Request
	output   []byte
	err      error
	warmErr  error
	warmed   bool
	closed   bool
	deadline bool
}

func (f *fakeEngine) Generate(ctx context.Context, req Request) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func (f *fakeEngine) Warm(context.Context) error {
	f.warmed = true
	return f.warmErr
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

type bareEngine struct{}

func (bareEngine) Generate(context.Context, Request) ([]byte, error) { return nil, nil }

func fixedNamer(root string) *artifact.Namer {
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)
	return artifact.NewNamer(root, "FRIDAY", func() time.Time { return at })
}

func TestSynthesize_WritesArtifact(t *testing.T) {
	root := filepath.Join(t.TempDir(), "history")
	eng := &fakeEngine{output: testutil.ToneWAV(t, testFormat, 160)}
	svc := NewService(eng, fixedNamer(root), ServiceOptions{Speaker: Speaker{Name: "Tanja Adelina"}})

	art, err := svc.Synthesize(context.Background(), Utterance{Text: "hello", Language: "fr"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if art.Path != filepath.Join(root, "FRIDAY_20261019_093000.wav") {
		t.Errorf("Path = %q", art.Path)
	}
	if art.Language != "fr" {
		t.Errorf("Language = %q; want fr", art.Language)
	}
	testutil.AssertWAVFile(t, art.Path, testFormat)

	if len(eng.requests) != 1 {
		t.Fatalf("engine called %d times; want 1", len(eng.requests))
	}
	got := eng.requests[0]
	if got.Text != "hello" || got.Language != "fr" || got.Speaker.Name != "Tanja Adelina" {
		t.Errorf("request = %+v", got)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("history holds %d files; want 1 (temp file leaked?)", len(entries))
	}
}

func TestSynthesize_SameSecondGetsDistinctPaths(t *testing.T) {
	root := t.TempDir()
	eng := &fakeEngine{output: testutil.ToneWAV(t, testFormat, 160)}
	svc := NewService(eng, fixedNamer(root), ServiceOptions{})

	a, err := svc.Synthesize(context.Background(), Utterance{Text: "one", Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Synthesize(context.Background(), Utterance{Text: "two", Language: "en"})
	if err != nil {
		t.Fatal(err)
	}

	if a.Path == b.Path {
		t.Fatalf("both artifacts at %q", a.Path)
	}
	if filepath.Base(b.Path) != "FRIDAY_20261019_093000_1.wav" {
		t.Errorf("second path = %q", b.Path)
	}
}

func TestSynthesize_SkipsNamesTakenOnDisk(t *testing.T) {
	root := t.TempDir()
	taken := filepath.Join(root, "FRIDAY_20261019_093000.wav")
	if err := os.WriteFile(taken, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(&fakeEngine{output: testutil.ToneWAV(t, testFormat, 160)}, fixedNamer(root), ServiceOptions{})
	art, err := svc.Synthesize(context.Background(), Utterance{Text: "x", Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if art.Path == taken {
		t.Fatal("overwrote an existing artifact")
	}
	if old, _ := os.ReadFile(taken); string(old) != "old" {
		t.Error("existing artifact modified")
	}
}

func TestSynthesize_EngineErrorIsSynthesisError(t *testing.T) {
	root := t.TempDir()
	cause := errors.New("model exploded")
	svc := NewService(&fakeEngine{err: cause}, fixedNamer(root), ServiceOptions{})

	_, err := svc.Synthesize(context.Background(), Utterance{Text: "x", Language: "de"})

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("error %v is not *SynthesisError", err)
	}
	if synthErr.Stage() != "synthesis" || synthErr.Language != "de" {
		t.Errorf("SynthesisError = %+v", synthErr)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable with errors.Is")
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("failed synthesis left %d files", len(entries))
	}
}

func TestSynthesize_RejectsNonWAVOutput(t *testing.T) {
	root := t.TempDir()
	svc := NewService(&fakeEngine{output: []byte("definitely not audio")}, fixedNamer(root), ServiceOptions{})

	_, err := svc.Synthesize(context.Background(), Utterance{Text: "x", Language: "en"})
	if !errors.Is(err, audio.ErrInvalidWAV) {
		t.Fatalf("err = %v; want ErrInvalidWAV", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("invalid output left %d files", len(entries))
	}
}

func TestSynthesize_EmptyTextReachesEngine(t *testing.T) {
	eng := &fakeEngine{output: testutil.ToneWAV(t, testFormat, 16)}
	svc := NewService(eng, fixedNamer(t.TempDir()), ServiceOptions{})

	if _, err := svc.Synthesize(context.Background(), Utterance{Text: "", Language: "en"}); err != nil {
		t.Fatalf("Synthesize(empty): %v", err)
	}
	if len(eng.requests) != 1 || eng.requests[0].Text != "" {
		t.Errorf("requests = %+v", eng.requests)
	}
}

func TestSynthesize_TimeoutSetsDeadline(t *testing.T) {
	eng := &fakeEngine{output: testutil.ToneWAV(t, testFormat, 16)}
	svc := NewService(eng, fixedNamer(t.TempDir()), ServiceOptions{Timeout: time.Minute})

	if _, err := svc.Synthesize(context.Background(), Utterance{Text: "x", Language: "en"}); err != nil {
		t.Fatal(err)
	}
	if !eng.deadline {
		t.Error("engine context has no deadline")
	}
}

func TestSynthesize_UnwritableRoot(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService(&fakeEngine{}, fixedNamer(filepath.Join(blocker, "history")), ServiceOptions{})

	_, err := svc.Synthesize(context.Background(), Utterance{Text: "x"})
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("err = %v; want *SynthesisError", err)
	}
}

func TestService_WarmAndCloseDelegate(t *testing.T) {
	eng := &fakeEngine{warmErr: errors.New("cold")}
	svc := NewService(eng, fixedNamer(t.TempDir()), ServiceOptions{})

	if err := svc.Warm(context.Background()); err == nil || !eng.warmed {
		t.Errorf("Warm = %v, warmed=%v", err, eng.warmed)
	}
	if err := svc.Close(); err != nil || !eng.closed {
		t.Errorf("Close = %v, closed=%v", err, eng.closed)
	}

	bare := NewService(bareEngine{}, fixedNamer(t.TempDir()), ServiceOptions{})
	if err := bare.Warm(context.Background()); err != nil {
		t.Errorf("Warm without Warmer = %v", err)
	}
	if err := bare.Close(); err != nil {
		t.Errorf("Close without Closer = %v", err)
	}
}

func TestSynthesize_LongTextIsChunkedIntoOneArtifact(t *testing.T) {
	root := t.TempDir()
	eng := &fakeEngine{output: testutil.ToneWAV(t, testFormat, 160)}
	svc := NewService(eng, fixedNamer(root), ServiceOptions{MaxChars: 20})

	art, err := svc.Synthesize(context.Background(), Utterance{
		Text:     "The first sentence. The second sentence. A third.",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(eng.requests) != 3 {
		t.Fatalf("engine called %d times; want 3", len(eng.requests))
	}
	if eng.requests[1].Text != "The second sentence." {
		t.Errorf("second chunk = %q", eng.requests[1].Text)
	}

	clip, err := audio.DecodeFile(art.Path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if clip.Frames() != 3*160 {
		t.Errorf("joined clip has %d frames; want %d", clip.Frames(), 3*160)
	}
	if entries, _ := os.ReadDir(root); len(entries) != 1 {
		t.Errorf("history holds %d files; want 1", len(entries))
	}
}

type switchingEngine struct {
	outputs [][]byte
	calls   int
}

func (e *switchingEngine) Generate(context.Context, Request) ([]byte, error) {
	out := e.outputs[e.calls%len(e.outputs)]
	e.calls++
	return out, nil
}

func TestSynthesize_ChunkFormatMismatch(t *testing.T) {
	root := t.TempDir()
	eng := &switchingEngine{outputs: [][]byte{
		testutil.ToneWAV(t, testFormat, 160),
		testutil.ToneWAV(t, audio.Format{SampleRate: 22050, Channels: 1, BitDepth: 16}, 160),
	}}
	svc := NewService(eng, fixedNamer(root), ServiceOptions{MaxChars: 5})

	_, err := svc.Synthesize(context.Background(), Utterance{Text: "One. Two.", Language: "en"})

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("Synthesize() error = %v; want *SynthesisError", err)
	}
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Errorf("history holds %d files after failure; want 0", len(entries))
	}
}
