package detect

import (
	"hash/fnv"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/fishing"
)

// cacheSize bounds the per-frame result cache. Frames repeat heavily while a
// game screen is static, so even a small cache removes most duplicate
// inference work.
const cacheSize = 32

type sourceResult struct {
	label fishing.Label
	conf  float64
	ok    bool
}

type cacheEntry struct {
	cls     sourceResult
	txt     sourceResult
	clsDone bool
	txtDone bool
}

// Facade multiplexes the classifier and the text reader behind the
// controller's Detector contract. The classifier is polled first: its labels
// change more often and dominate round timing, while the direction overlays
// tolerate extra latency. Safe for use from a single polling goroutine.
type Facade struct {
	logger *slog.Logger
	grab   FrameGrabber
	cls    Classifier
	txt    TextReader

	clsThreshold float64
	txtThreshold float64
	clsInterval  time.Duration
	txtInterval  time.Duration

	mu      sync.Mutex
	lastCls time.Time
	lastTxt time.Time
	cache   *lru.Cache[uint64, cacheEntry]

	polls     atomic.Uint64
	cacheHits atomic.Uint64
}

// NewFacade wires the facade from config thresholds and pacing.
func NewFacade(cfg *config.Config, logger *slog.Logger, grab FrameGrabber, cls Classifier, txt TextReader) *Facade {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cache, _ := lru.New[uint64, cacheEntry](cacheSize)
	return &Facade{
		logger:       logger,
		grab:         grab,
		cls:          cls,
		txt:          txt,
		clsThreshold: cfg.ClassifierThreshold,
		txtThreshold: cfg.TextThreshold,
		clsInterval:  cfg.ClassifierIntervalD(),
		txtInterval:  cfg.TextIntervalD(),
		cache:        cache,
	}
}

// Warmup brings both perception engines up in parallel. Any failure is
// surfaced so the controller can refuse to start.
func (f *Facade) Warmup() error {
	var g errgroup.Group
	g.Go(f.cls.Warmup)
	g.Go(f.txt.Warmup)
	return g.Wait()
}

// DetectAny grabs a fresh frame and returns the first observation whose label
// is in allowed and whose confidence clears its source threshold. It never
// blocks longer than deadline.
func (f *Facade) DetectAny(allowed fishing.LabelSet, deadline time.Duration) (fishing.Observation, bool) {
	f.polls.Add(1)
	start := time.Now()
	frame, err := f.grab.Grab()
	if err != nil {
		if f.logger != nil {
			f.logger.Warn("frame grab failed", "error", err)
		}
		return fishing.Observation{}, false
	}
	defer f.grab.Release(frame)
	key := frameKey(frame)

	if allowed&classifierLabels != 0 {
		if res, ok := f.pollClassifier(frame, key, start, deadline); ok {
			if allowed.Contains(res.label) && res.conf >= f.clsThreshold {
				return fishing.Observation{Label: res.label, Confidence: res.conf, Source: fishing.SourceClassifier, At: time.Now()}, true
			}
		}
	}
	if allowed&textLabels != 0 {
		if res, ok := f.pollText(frame, key, start, deadline); ok {
			if allowed.Contains(res.label) && res.conf >= f.txtThreshold {
				return fishing.Observation{Label: res.label, Confidence: res.conf, Source: fishing.SourceText, At: time.Now()}, true
			}
		}
	}
	return fishing.Observation{}, false
}

// DetectSpecific checks the presence of exactly one label right now.
func (f *Facade) DetectSpecific(label fishing.Label) (fishing.Observation, bool) {
	return f.DetectAny(fishing.NewLabelSet(label), f.clsInterval+f.txtInterval)
}

// CacheHits returns how many polls were answered from the frame cache.
func (f *Facade) CacheHits() uint64 { return f.cacheHits.Load() }

// Polls returns the total number of DetectAny calls.
func (f *Facade) Polls() uint64 { return f.polls.Load() }

// pollClassifier runs the classifier respecting its minimum poll interval,
// consulting the frame cache first. Returns ok=false when the poll was
// skipped, errored or the model abstained.
func (f *Facade) pollClassifier(frame *image.RGBA, key uint64, start time.Time, deadline time.Duration) (sourceResult, bool) {
	f.mu.Lock()
	if e, hit := f.cache.Get(key); hit && e.clsDone {
		f.mu.Unlock()
		f.cacheHits.Add(1)
		return e.cls, e.cls.ok
	}
	wait := f.clsInterval - time.Since(f.lastCls)
	f.mu.Unlock()

	if wait > 0 {
		if time.Since(start)+wait > deadline {
			return sourceResult{}, false
		}
		time.Sleep(wait)
	}
	label, conf, ok, err := f.cls.Classify(frame)
	now := time.Now()
	res := sourceResult{label: label, conf: conf, ok: ok && err == nil}
	if err != nil && f.logger != nil {
		f.logger.Warn("classifier failed", "error", err)
	}

	f.mu.Lock()
	f.lastCls = now
	e, _ := f.cache.Get(key)
	e.cls = res
	e.clsDone = err == nil
	f.cache.Add(key, e)
	f.mu.Unlock()
	return res, res.ok
}

// pollText mirrors pollClassifier for the text reader.
func (f *Facade) pollText(frame *image.RGBA, key uint64, start time.Time, deadline time.Duration) (sourceResult, bool) {
	f.mu.Lock()
	if e, hit := f.cache.Get(key); hit && e.txtDone {
		f.mu.Unlock()
		f.cacheHits.Add(1)
		return e.txt, e.txt.ok
	}
	wait := f.txtInterval - time.Since(f.lastTxt)
	f.mu.Unlock()

	if wait > 0 {
		if time.Since(start)+wait > deadline {
			return sourceResult{}, false
		}
		time.Sleep(wait)
	}
	label, conf, ok, err := f.txt.Read(frame)
	now := time.Now()
	res := sourceResult{label: label, conf: conf, ok: ok && err == nil}
	if err != nil && f.logger != nil {
		f.logger.Warn("text reader failed", "error", err)
	}

	f.mu.Lock()
	f.lastTxt = now
	e, _ := f.cache.Get(key)
	e.txt = res
	e.txtDone = err == nil
	f.cache.Add(key, e)
	f.mu.Unlock()
	return res, res.ok
}

// frameKey hashes a sparse sample of the frame so identical frames map to the
// same cache entry without touching every pixel.
func frameKey(img *image.RGBA) uint64 {
	h := fnv.New64a()
	b := img.Bounds()
	var dims [4]byte
	dims[0], dims[1] = byte(b.Dx()), byte(b.Dx()>>8)
	dims[2], dims[3] = byte(b.Dy()), byte(b.Dy()>>8)
	h.Write(dims[:])
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y += 16 {
		off := y * img.Stride
		end := off + rowBytes
		if end > len(img.Pix) {
			break
		}
		h.Write(img.Pix[off:end])
	}
	return h.Sum64()
}
