package action

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/fishing"
)

// Device injects raw mouse and keyboard events. Implementations must be safe
// for concurrent use; the actuator may release inputs from a different
// goroutine than the one that pressed them.
type Device interface {
	MouseDown() error
	MouseUp() error
	Click() error
	KeyDown(vk byte) error
	KeyUp(vk byte) error
}

// Actuator drives the three input behaviors the controller needs: the fast
// click loop, timed key holds and the rod cast. Start/stop of the click loop
// are serialized by the actuator's own mutex; pause is a separate reversible
// flag so the loop thread survives the halfway pause.
type Actuator struct {
	dev    Device
	logger *slog.Logger

	minDelay time.Duration
	maxDelay time.Duration
	castHold time.Duration
	rnd      *rand.Rand

	mu        sync.Mutex
	clickQuit chan struct{}
	clickDone chan struct{}
	paused    atomic.Bool

	heldMu    sync.Mutex
	heldKeys  map[byte]struct{}
	mouseHeld bool
}

// NewActuator wires an actuator from config timing and a device.
func NewActuator(cfg *config.Config, logger *slog.Logger, dev Device) *Actuator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Actuator{
		dev:      dev,
		logger:   logger,
		minDelay: cfg.ClickDelayMinD(),
		maxDelay: cfg.ClickDelayMaxD(),
		castHold: cfg.CastHoldTimeD(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		heldKeys: make(map[byte]struct{}),
	}
}

// StartFastClick launches (or resumes) the click loop. Idempotent.
func (a *Actuator) StartFastClick() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clickQuit != nil {
		a.paused.Store(false)
		return nil
	}
	a.paused.Store(false)
	a.clickQuit = make(chan struct{})
	a.clickDone = make(chan struct{})
	go a.clickLoop(a.clickQuit, a.clickDone)
	return nil
}

// PauseFastClick suspends clicking without tearing the loop down.
func (a *Actuator) PauseFastClick() { a.paused.Store(true) }

// ResumeFastClick re-enables clicking within one interval.
func (a *Actuator) ResumeFastClick() { a.paused.Store(false) }

// StopFastClick terminates the loop and returns only after it has exited.
func (a *Actuator) StopFastClick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clickQuit == nil {
		return
	}
	close(a.clickQuit)
	<-a.clickDone
	a.clickQuit, a.clickDone = nil, nil
}

// ClickActive reports whether the loop thread is alive. Diagnostics only.
func (a *Actuator) ClickActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clickQuit != nil
}

// Paused reports whether the loop is currently suspended.
func (a *Actuator) Paused() bool { return a.paused.Load() }

func (a *Actuator) clickLoop(quit, done chan struct{}) {
	defer close(done)
	for {
		if !a.paused.Load() {
			if err := a.dev.Click(); err != nil && a.logger != nil {
				a.logger.Warn("click failed", "error", err)
			}
		}
		t := time.NewTimer(a.clickDelay())
		select {
		case <-quit:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// clickDelay draws a uniform delay from [minDelay, maxDelay]. Only the loop
// goroutine touches rnd.
func (a *Actuator) clickDelay() time.Duration {
	span := a.maxDelay - a.minDelay
	if span <= 0 {
		return a.minDelay
	}
	return a.minDelay + time.Duration(a.rnd.Int63n(int64(span)+1))
}

// HoldKey presses key, sleeps d and releases. Blocks the caller.
func (a *Actuator) HoldKey(key string, d time.Duration) error {
	vk := ParseVK(key)
	if err := a.dev.KeyDown(vk); err != nil {
		return err
	}
	a.heldMu.Lock()
	a.heldKeys[vk] = struct{}{}
	a.heldMu.Unlock()

	time.Sleep(d)

	a.heldMu.Lock()
	_, still := a.heldKeys[vk]
	delete(a.heldKeys, vk)
	a.heldMu.Unlock()
	if !still {
		// Already released by an emergency stop.
		return nil
	}
	return a.dev.KeyUp(vk)
}

// CastRod press-and-holds the primary button for the configured duration.
// The hold is atomic with respect to cooperative stop; only ReleaseAll cuts
// it short, in which case the deferred release becomes a no-op.
func (a *Actuator) CastRod() error {
	if err := a.dev.MouseDown(); err != nil {
		return err
	}
	a.heldMu.Lock()
	a.mouseHeld = true
	a.heldMu.Unlock()

	time.Sleep(a.castHold)

	a.heldMu.Lock()
	still := a.mouseHeld
	a.mouseHeld = false
	a.heldMu.Unlock()
	if !still {
		return nil
	}
	return a.dev.MouseUp()
}

// ReleaseAll force-releases every held key and the mouse button. Safe from
// any goroutine; used by emergency stop and error teardown.
func (a *Actuator) ReleaseAll() {
	a.heldMu.Lock()
	keys := make([]byte, 0, len(a.heldKeys))
	for vk := range a.heldKeys {
		keys = append(keys, vk)
	}
	a.heldKeys = make(map[byte]struct{})
	mouse := a.mouseHeld
	a.mouseHeld = false
	a.heldMu.Unlock()

	for _, vk := range keys {
		if err := a.dev.KeyUp(vk); err != nil && a.logger != nil {
			a.logger.Warn("key release failed", "vk", vk, "error", err)
		}
	}
	if mouse {
		if err := a.dev.MouseUp(); err != nil && a.logger != nil {
			a.logger.Warn("mouse release failed", "error", err)
		}
	}
}

var _ fishing.Actuator = (*Actuator)(nil)
