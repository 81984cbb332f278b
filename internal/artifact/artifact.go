// Package artifact names and lists the audio files kept under the history
// directory.
//
// File names follow {session}_{yyyyMMdd_HHmmss}[_n].wav. The optional _n
// suffix disambiguates artifacts created within the same clock second.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Ext is the file extension of every artifact.
const Ext = ".wav"

// StampLayout is the second-resolution timestamp embedded in artifact names.
const StampLayout = "20060102_150405"

// Artifact is a persisted audio file produced from one utterance.
type Artifact struct {
	ID        string
	Path      string
	Language  string
	CreatedAt time.Time
}

// Namer hands out unique artifact identities. It is safe for concurrent use.
type Namer struct {
	root    string
	session string
	clock   func() time.Time

	mu     sync.Mutex
	issued map[string]int // stamp -> number of names issued for that second
}

// NewNamer returns a Namer for artifacts under root. A nil clock uses time.Now.
func NewNamer(root, session string, clock func() time.Time) *Namer {
	if clock == nil {
		clock = time.Now
	}
	return &Namer{
		root:    root,
		session: session,
		clock:   clock,
		issued:  make(map[string]int),
	}
}

// Root returns the storage root.
func (n *Namer) Root() string { return n.root }

// Next returns a fresh identity for an artifact in language. The file is not
// created.
func (n *Namer) Next(language string) Artifact {
	now := n.clock()
	stamp := now.Format(StampLayout)

	n.mu.Lock()
	seq := n.issued[stamp]
	n.issued[stamp] = seq + 1
	n.mu.Unlock()

	id := n.session + "_" + stamp
	if seq > 0 {
		id += "_" + strconv.Itoa(seq)
	}

	return Artifact{
		ID:        id,
		Path:      filepath.Join(n.root, id+Ext),
		Language:  language,
		CreatedAt: now,
	}
}

// Entry is an artifact file found on disk.
type Entry struct {
	ID      string
	Path    string
	Session string
	Stamp   time.Time
	Seq     int
	Size    int64
}

// ParseID splits an artifact ID into session name, timestamp and sequence.
func ParseID(id string) (session string, stamp time.Time, seq int, err error) {
	// session names may contain '_', so parse from the right.
	parts := strings.Split(id, "_")
	if len(parts) < 3 {
		return "", time.Time{}, 0, fmt.Errorf("artifact id %q: too few fields", id)
	}

	if len(parts) >= 4 {
		if n, convErr := strconv.Atoi(parts[len(parts)-1]); convErr == nil && len(parts[len(parts)-1]) < 6 {
			seq = n
			parts = parts[:len(parts)-1]
		}
	}

	datePart, timePart := parts[len(parts)-2], parts[len(parts)-1]
	stamp, err = time.ParseInLocation(StampLayout, datePart+"_"+timePart, time.Local)
	if err != nil {
		return "", time.Time{}, 0, fmt.Errorf("artifact id %q: %w", id, err)
	}

	session = strings.Join(parts[:len(parts)-2], "_")
	if session == "" {
		return "", time.Time{}, 0, fmt.Errorf("artifact id %q: empty session name", id)
	}
	return session, stamp, seq, nil
}

// List returns the artifacts under root in creation order. Files that do not
// follow the naming scheme are skipped. A missing root yields no entries.
func List(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	out := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != Ext {
			continue
		}
		id := strings.TrimSuffix(de.Name(), Ext)
		session, stamp, seq, err := ParseID(id)
		if err != nil {
			continue
		}
		var size int64
		if info, err := de.Info(); err == nil {
			size = info.Size()
		}
		out = append(out, Entry{
			ID:      id,
			Path:    filepath.Join(root, de.Name()),
			Session: session,
			Stamp:   stamp,
			Seq:     seq,
			Size:    size,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Stamp.Equal(b.Stamp) {
			return a.Stamp.Before(b.Stamp)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
	return out, nil
}

// Resolve maps a user-supplied reference (a path, a file name or an ID) to an
// artifact path under root.
func Resolve(root, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty artifact reference")
	}

	candidates := []string{ref}
	if !strings.ContainsRune(ref, filepath.Separator) {
		candidates = append(candidates, filepath.Join(root, ref))
		if filepath.Ext(ref) != Ext {
			candidates = append(candidates, filepath.Join(root, ref+Ext))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("artifact %q not found under %s", ref, root)
}
