package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/gotrocks/proportal/internal/sitemeasure"
)

// Track is a recorded walk, one reading per line of the device's location
// feed.
type Track struct {
	Name       string                `yaml:"name"`
	IntervalMs int                   `yaml:"intervalMs"`
	Readings   []sitemeasure.Reading `yaml:"readings"`
}

func loadTrack(path string) (Track, error) {
	var t Track
	b, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(t.Readings) == 0 {
		return t, fmt.Errorf("%s: track has no readings", path)
	}
	return t, nil
}

type replayOptions struct {
	Materials  []sitemeasure.Material
	Densities  []sitemeasure.DensityProfile
	MaterialID string
	DepthIn    int
	Lang       string
	Interval   time.Duration
}

type replayResult struct {
	Readings int
	Appended int
	View     sitemeasure.SessionView
	Record   sitemeasure.Record
	ID       string
}

// recordSink keeps the saved record instead of persisting it.
type recordSink struct {
	rec sitemeasure.Record
}

func (s *recordSink) Save(ctx context.Context, rec sitemeasure.Record) (string, error) {
	s.rec = rec
	return uuid.NewString(), nil
}

// replay walks track through a capture session. Capture starts on the first
// reading that yields a fix, the polygon is closed when the track ends, and
// the result is configured with opts and saved to an in-memory sink.
func replay(ctx context.Context, track Track, opts replayOptions) (replayResult, error) {
	var (
		res     replayResult
		mu      sync.Mutex
		sess    *sitemeasure.CaptureSession
		started bool
		done    = make(chan struct{})
	)

	interval := opts.Interval
	if interval == 0 {
		interval = time.Duration(track.IntervalMs) * time.Millisecond
	}

	sink := &recordSink{}
	sess = sitemeasure.NewCaptureSession(sitemeasure.SessionConfig{
		ProjectID: "replay",
		Source:    &sitemeasure.ReplaySource{Track: track.Readings, Interval: interval},
		Materials: opts.Materials,
		Densities: opts.Densities,
		Sink:      sink,
		Lang:      opts.Lang,
		OnReading: func(r sitemeasure.Reading, appended bool) {
			mu.Lock()
			defer mu.Unlock()
			res.Readings++
			if appended {
				res.Appended++
			}
			if !started && sess.StartCapture() == nil {
				started = true
			}
			if res.Readings == len(track.Readings) {
				close(done)
			}
		},
	})
	defer sess.Close()

	if err := sess.BeginPreCapture(ctx); err != nil {
		return res, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return res, fmt.Errorf("replay interrupted: %w", ctx.Err())
	}

	if err := sess.ClosePolygon(); err != nil {
		if errors.Is(err, sitemeasure.ErrWrongStep) {
			return res, errors.New("track never produced a GPS fix")
		}
		return res, err
	}
	if err := sess.Configure(); err != nil {
		return res, err
	}
	if opts.MaterialID != "" {
		if err := sess.SelectMaterial(opts.MaterialID); err != nil {
			return res, err
		}
	}
	if opts.DepthIn > 0 {
		if err := sess.AdjustDepth(opts.DepthIn - sess.View().DepthIn); err != nil {
			return res, err
		}
	}

	label := track.Name
	if label == "" {
		label = "replay"
	}
	id, err := sess.Save(ctx, label, "")
	if err != nil {
		return res, err
	}

	mu.Lock()
	defer mu.Unlock()
	res.View = sess.View()
	res.Record = sink.rec
	res.ID = id
	return res, nil
}
