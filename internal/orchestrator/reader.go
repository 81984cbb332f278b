package orchestrator

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

type lineResult struct {
	line string
	err  error
}

// lineReader reads one line per request, so nothing is consumed from the
// input unless the loop asked for it. A read blocked on the source outlives
// a cancelled request; its result is delivered to the next caller.
type lineReader struct {
	src     *bufio.Reader
	reqs    chan struct{}
	results chan lineResult
	once    sync.Once
	pending bool
	eof     bool
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		src:     bufio.NewReader(r),
		reqs:    make(chan struct{}),
		results: make(chan lineResult, 1),
	}
	go lr.loop()
	return lr
}

func (lr *lineReader) loop() {
	for range lr.reqs {
		line, err := lr.src.ReadString('\n')
		if err == io.EOF && line != "" {
			// Deliver the unterminated last line; the next read reports EOF.
			err = nil
		}
		lr.results <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
	}
}

// Next returns the next line, io.EOF at end of input, or ctx.Err().
func (lr *lineReader) Next(ctx context.Context) (string, error) {
	if lr.eof {
		return "", io.EOF
	}
	if !lr.pending {
		select {
		case lr.reqs <- struct{}{}:
			lr.pending = true
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	select {
	case res := <-lr.results:
		lr.pending = false
		if res.err != nil {
			lr.eof = true
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the reader goroutine once its current read returns.
func (lr *lineReader) Close() {
	lr.once.Do(func() { close(lr.reqs) })
}
