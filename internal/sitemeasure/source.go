package sitemeasure

import (
	"context"
	"errors"
	"sync"
	"time"
)

// LocationSource streams position readings until ctx is done. The returned
// channel must be closed by the source when it stops.
type LocationSource interface {
	Watch(ctx context.Context) (<-chan Reading, error)
}

// Subscription is a running location stream feeding a handler. Cancel is
// idempotent; Done is closed once the pump goroutine has exited.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe starts src and calls fn for every reading until the returned
// subscription is cancelled, ctx ends or the source closes its channel.
func Subscribe(ctx context.Context, src LocationSource, fn func(Reading)) (*Subscription, error) {
	if src == nil {
		return nil, errors.New("sitemeasure: nil location source")
	}
	ctx, cancel := context.WithCancel(ctx)
	ch, err := src.Watch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			select {
			case <-ctx.Done():
				// let the source observe cancellation and close its channel
				for range ch {
				}
				return
			case r, ok := <-ch:
				if !ok {
					return
				}
				fn(r)
			}
		}
	}()
	return sub, nil
}

// Cancel stops the stream without waiting. A reading already in flight may
// still be delivered to the handler.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Wait blocks until the pump goroutine has exited.
func (s *Subscription) Wait() {
	if s == nil {
		return
	}
	<-s.done
}

func (s *Subscription) Done() <-chan struct{} { return s.done }

// ReplaySource emits a fixed track, one reading per Interval.
type ReplaySource struct {
	Track    []Reading
	Interval time.Duration
}

func (rs *ReplaySource) Watch(ctx context.Context) (<-chan Reading, error) {
	out := make(chan Reading)
	go func() {
		defer close(out)
		var tick <-chan time.Time
		if rs.Interval > 0 {
			t := time.NewTicker(rs.Interval)
			defer t.Stop()
			tick = t.C
		}
		for _, r := range rs.Track {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- r:
			}
		}
	}()
	return out, nil
}

// ChannelSource forwards readings pushed with Push to a single watcher.
type ChannelSource struct {
	in chan Reading
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{in: make(chan Reading, buffer)}
}

// Push queues a reading. It returns false when ctx ends first.
func (cs *ChannelSource) Push(ctx context.Context, r Reading) bool {
	select {
	case cs.in <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func (cs *ChannelSource) Watch(ctx context.Context) (<-chan Reading, error) {
	out := make(chan Reading)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-cs.in:
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
