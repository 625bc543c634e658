// Package file reads newline-delimited event payloads from a file or stdin.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Name is the integration name reported in logs and metrics.
const Name = "file"

// Stdin is the path that selects standard input.
const Stdin = "-"

// DefaultMaxLineBytes bounds a single payload.
const DefaultMaxLineBytes = 1 << 20

// Source yields one payload per non-blank line.
type Source struct {
	path         string
	maxLineBytes int
	stdin        io.Reader
}

// Option configures a Source.
type Option func(*Source)

// WithMaxLineBytes overrides DefaultMaxLineBytes.
func WithMaxLineBytes(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}

// WithStdin replaces os.Stdin for the Stdin path.
func WithStdin(r io.Reader) Option {
	return func(s *Source) {
		s.stdin = r
	}
}

// New returns a Source reading path, or stdin when path is Stdin.
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:         path,
		maxLineBytes: DefaultMaxLineBytes,
		stdin:        os.Stdin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return Name }

// CheckPermissions confirms path exists, is a regular file and can be opened.
func (s *Source) CheckPermissions(context.Context) error {
	if s.path == Stdin {
		return nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s.path)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	return f.Close()
}

// ProcessData yields each non-blank line with surrounding whitespace trimmed.
func (s *Source) ProcessData(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r := s.stdin
		if s.path != Stdin {
			f, err := os.Open(s.path)
			if err != nil {
				yield("", err)
				return
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, min(64*1024, s.maxLineBytes)), s.maxLineBytes)

		line := 0
		for scanner.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			payload := strings.TrimSpace(scanner.Text())
			if payload == "" {
				continue
			}
			if !yield(payload, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("%s line %d: %w", s.path, line+1, err))
		}
	}
}
