package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status message on one terminal line. It stops when
// Stop is called or the context passed to newSpinner ends, and clears its
// line either way.
type spinner struct {
	w      io.Writer
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	msg   string
	width int // widest line drawn so far

	wg      sync.WaitGroup
	stopped atomic.Bool
}

func newSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{w: w, parent: ctx, ctx: sctx, cancel: cancel, msg: msg}
}

// Start draws the first frame and animates until stopped.
func (s *spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.clear()

		t := time.NewTicker(spinnerInterval)
		defer t.Stop()
		for i := 0; ; i++ {
			s.draw(spinnerFrames[i%len(spinnerFrames)])
			select {
			case <-s.ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}

// Update replaces the message from the next frame on.
func (s *spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop ends the animation and waits for the line to be cleared. Further
// calls do nothing.
func (s *spinner) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// Cancelled reports whether the parent context ended while the spinner was
// still running.
func (s *spinner) Cancelled() bool {
	return !s.stopped.Load() && s.parent.Err() != nil
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := utf8.RuneCountInString(frame) + 1 + utf8.RuneCountInString(s.msg)
	pad := max(s.width-n, 0)
	s.width = max(s.width, n)
	fmt.Fprintf(s.w, "\r%s %s%s", styleIconSpinner.Render(frame), styleDim.Render(s.msg), strings.Repeat(" ", pad))
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}
