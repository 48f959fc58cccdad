package service

import (
	"context"
	"sync"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"

	"go.uber.org/zap"
)

// NotifyFunc is invoked when a watched timeline grew since the last poll.
type NotifyFunc func(filter domain.TimelineFilter, timeline []domain.Interaction)

// Watcher polls one subject's timeline on a fixed interval and notifies
// when new interactions appear. Growth is detected by length only: edits
// that do not change the count go unnoticed, matching the update banner
// this feeds.
type Watcher struct {
	timeline *TimelineService
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	gen     uint64
	lastLen int
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher. A non-positive interval falls back to 15s.
func NewWatcher(timeline *TimelineService, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{timeline: timeline, interval: interval, logger: logger}
}

// Watch starts polling the given subject, replacing any previous subject.
// The generation counter makes a poll started before the switch unable to
// deliver its result afterwards. The loop stops when ctx is cancelled or
// Stop is called.
func (w *Watcher) Watch(ctx context.Context, filter domain.TimelineFilter, notify NotifyFunc) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	w.lastLen = -1 // first successful poll only sets the baseline
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(loopCtx, gen, filter, notify)
}

// Stop tears down the current poll loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Watcher) loop(ctx context.Context, gen uint64, filter domain.TimelineFilter, notify NotifyFunc) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx, gen, filter, notify)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx, gen, filter, notify)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, gen uint64, filter domain.TimelineFilter, notify NotifyFunc) {
	timeline, err := w.timeline.Timeline(ctx, filter)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("timeline poll failed", zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	if gen != w.gen {
		// Subject changed while this poll was in flight; its result
		// belongs to a dead loop.
		w.mu.Unlock()
		return
	}
	grew := w.lastLen >= 0 && len(timeline) > w.lastLen
	w.lastLen = len(timeline)
	w.mu.Unlock()

	if grew && notify != nil {
		notify(filter, timeline)
	}
}
