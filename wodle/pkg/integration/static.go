package integration

import (
	"context"
	"iter"
)

// Static is an Integration over a fixed list of payloads. It has no upstream
// to check or acknowledge.
type Static struct {
	name     string
	payloads []string
}

// NewStatic returns an Integration yielding payloads in order.
func NewStatic(name string, payloads ...string) *Static {
	return &Static{name: name, payloads: payloads}
}

func (s *Static) Name() string { return s.name }

func (s *Static) CheckPermissions(context.Context) error { return nil }

func (s *Static) ProcessData(context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range s.payloads {
			if !yield(p, nil) {
				return
			}
		}
	}
}
