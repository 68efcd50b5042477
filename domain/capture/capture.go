package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vova616/screenshot"
)

// Source acquires frames on demand, optionally cropped to a fixed region.
// Construct one Source per polling goroutine and do not share it: many
// capture backends are thread-local, so per-goroutine construction sidesteps
// the problem by design. Counters are atomic so diagnostics may be read from
// anywhere.
type Source struct {
	logger *slog.Logger
	region image.Rectangle

	grabs     atomic.Uint64
	errors    atomic.Uint64
	grabNanos atomic.Uint64
}

// NewSource returns a grabber for the given region. An empty region means
// full screen.
func NewSource(logger *slog.Logger, region image.Rectangle) *Source {
	return &Source{logger: logger, region: region}
}

// Grab captures the current frame into a pooled buffer. Callers hand the
// frame back via Release when done; failing to do so only costs allocations.
func (s *Source) Grab() (*image.RGBA, error) {
	start := time.Now()
	var raw *image.RGBA
	var err error
	if s.region.Empty() {
		raw, err = screenshot.CaptureScreen()
	} else {
		raw, err = screenshot.CaptureRect(s.region)
	}
	if err != nil {
		s.errors.Add(1)
		return nil, fmt.Errorf("capture: %w", err)
	}
	if raw == nil {
		s.errors.Add(1)
		return nil, fmt.Errorf("capture: backend returned no frame")
	}
	frame := acquireFrame(raw.Bounds())
	copyPixels(frame, raw)
	s.grabNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.grabs.Add(1)
	return frame, nil
}

// Release returns a frame obtained from Grab to the pool.
func (s *Source) Release(frame *image.RGBA) {
	recycleFrame(frame)
}

// Stats returns grab count, error count and mean grab latency.
func (s *Source) Stats() (grabs, errs uint64, mean time.Duration) {
	grabs = s.grabs.Load()
	errs = s.errors.Load()
	if grabs > 0 {
		mean = time.Duration(s.grabNanos.Load() / grabs)
	}
	return
}

// copyPixels copies src into dst row by row; both share the same bounds but
// may differ in stride.
func copyPixels(dst, src *image.RGBA) {
	b := src.Bounds()
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := y * src.Stride
		do := y * dst.Stride
		copy(dst.Pix[do:do+rowBytes], src.Pix[so:so+rowBytes])
	}
}
