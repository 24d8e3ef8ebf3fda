// Package lifecycle exposes session events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/worldkit/pkg/core"
)

// EventStream streams session events until ctx is done. A session Manager
// satisfies it.
type EventStream interface {
	Watch(ctx context.Context) <-chan core.Event
}

type sessionSource struct {
	stream EventStream
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits session events. When types
// are given, other events are dropped.
func NewSource(stream EventStream, types ...core.EventType) lifecycle.Source {
	return &sessionSource{
		stream: stream,
		types:  types,
		out:    make(chan lifecycle.Event),
	}
}

func (s *sessionSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start subscribes to the stream. The events channel is closed when ctx is
// done or the stream ends.
func (s *sessionSource) Start(ctx context.Context) error {
	events := s.stream.Watch(ctx)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				if len(s.types) > 0 && !slices.Contains(s.types, e.Type) {
					continue
				}
				// core.Event implements lifecycle.Event through String.
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
