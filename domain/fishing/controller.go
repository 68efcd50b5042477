package fishing

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/reel-bot-go/config"
)

// Settling pauses around the remedial cast, and the SUCCESS phase bounds.
const (
	retrySettleBefore = 500 * time.Millisecond
	retrySettleAfter  = time.Second
	successMaxChecks  = 20
	confirmTapTime    = 40 * time.Millisecond
)

// Controller runs the fishing state machine on a dedicated control goroutine.
// Phase mutations are serialized by a single mutex held only for the mutation
// and snapshot construction; perception polls happen strictly outside it.
// The control goroutine checks the stop signal at every suspension point.
type Controller struct {
	cfg    *config.Config
	logger *slog.Logger
	det    Detector
	act    Actuator
	status *StatusChannel
	warmup func() error

	mu            sync.Mutex
	phase         Phase
	lastObs       *Observation
	rounds        uint64
	lastErr       string
	listeners     []PhaseListener
	stopCh        chan struct{}
	stopRequested bool
	done          chan struct{}

	running   atomic.Bool
	emergency atomic.Bool
	refused   atomic.Uint64
}

// NewController wires the controller to its collaborators. warmup, when
// non-nil, is invoked by Start before the control loop launches; a warmup
// failure keeps the controller stopped.
func NewController(cfg *config.Config, logger *slog.Logger, det Detector, act Actuator, status *StatusChannel, warmup func() error) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if status == nil {
		status = NewStatusChannel()
	}
	c := &Controller{cfg: cfg, logger: logger, det: det, act: act, status: status, warmup: warmup, phase: PhaseStopped}
	status.Publish(c.snapshot())
	return c
}

// Start transitions STOPPED (or ERROR) to WAITING_INITIAL and launches the
// control loop. A no-op when already running. Returns an error only when the
// perception engines fail to come up, in which case the phase is unchanged.
func (c *Controller) Start() error {
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}
	if c.warmup != nil {
		if err := c.warmup(); err != nil {
			c.running.Store(false)
			return fmt.Errorf("perception init: %w", err)
		}
	}
	c.emergency.Store(false)
	c.mu.Lock()
	c.stopRequested = false
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	c.lastErr = ""
	c.mu.Unlock()
	c.transition(PhaseWaitingInitial, nil)
	go c.run()
	return nil
}

// Stop requests cooperative termination and blocks until the control loop has
// unwound. The phase is STOPPED on return.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopCh != nil && !c.stopRequested {
		c.stopRequested = true
		close(c.stopCh)
	}
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
	if c.Phase() != PhaseStopped {
		c.transition(PhaseStopped, nil)
	}
}

// EmergencyStop is Stop plus an immediate, synchronous release of all inputs.
// It does not wait for an in-flight rod cast to finish before releasing.
func (c *Controller) EmergencyStop() {
	c.emergency.Store(true)
	c.act.StopFastClick()
	c.act.ReleaseAll()
	c.Stop()
}

// Running reports whether the control loop is active.
func (c *Controller) Running() bool { return c.running.Load() }

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Rounds returns the number of completed rounds.
func (c *Controller) Rounds() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rounds
}

// RefusedObservations returns how many observations were dropped by the
// allowed-label guard. Diagnostics only.
func (c *Controller) RefusedObservations() uint64 { return c.refused.Load() }

// AddListener registers a callback invoked on every phase transition.
func (c *Controller) AddListener(l PhaseListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// SubscribeStatus registers a status callback; see StatusChannel.Subscribe.
func (c *Controller) SubscribeStatus(fn func(Status)) string { return c.status.Subscribe(fn) }

// UnsubscribeStatus cancels a subscription handle.
func (c *Controller) UnsubscribeStatus(handle string) { c.status.Unsubscribe(handle) }

// SnapshotStatus returns the latest published status.
func (c *Controller) SnapshotStatus() Status { return c.status.Snapshot() }

// run is the control loop. Each phase handler blocks until it either
// transitions onward (true) or the loop must terminate (false).
func (c *Controller) run() {
	defer c.finish()
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Error("controller panic", "error", r, "stack", string(debug.Stack()))
			}
			c.fail("internal error")
		}
	}()
	for !c.stopped() {
		var cont bool
		switch c.Phase() {
		case PhaseWaitingInitial, PhaseWaitingHook:
			cont = c.stepWaiting()
		case PhaseFishHooked:
			cont = c.stepHooked()
		case PhasePullingNormal, PhasePullingHalfway:
			cont = c.stepPulling()
		case PhaseSuccess:
			cont = c.stepSuccess()
		case PhaseCasting:
			cont = c.stepCasting()
		default:
			cont = false
		}
		if !cont {
			return
		}
	}
}

// finish tears down actuators and settles the terminal phase. A requested
// stop always ends in STOPPED; an error exit stays in ERROR until the
// operator stops or restarts.
func (c *Controller) finish() {
	c.act.StopFastClick()
	c.act.ReleaseAll()
	if c.stopped() && c.Phase() != PhaseError {
		c.transition(PhaseStopped, nil)
	}
	// Capture this run's done channel before clearing the running flag: a
	// quick restart swaps in a fresh channel the moment running drops.
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	c.running.Store(false)
	close(done)
}

// stepWaiting covers WAITING_INITIAL and WAITING_HOOK. Both share the
// initial timeout clock: they are the same pre-hook wait from the game's
// point of view, so a dead game still reaches ERROR.
func (c *Controller) stepWaiting() bool {
	started := time.Now()
	for {
		if c.stopped() {
			return false
		}
		if time.Since(started) > c.cfg.InitialTimeoutD() {
			c.fail("timeout waiting for initial state")
			return false
		}
		obs, ok := c.det.DetectAny(AllowedLabels(c.Phase()), c.cfg.ClassifierIntervalD())
		if ok && c.admit(obs) {
			switch obs.Label {
			case LabelWaiting:
				if c.Phase() == PhaseWaitingInitial {
					c.transition(PhaseWaitingHook, &obs)
				} else {
					c.observe(obs)
				}
			case LabelHooked:
				c.transition(PhaseFishHooked, &obs)
				return true
			}
		}
		if !c.sleep(c.cfg.ClassifierIntervalD()) {
			return false
		}
	}
}

// stepHooked drives FISH_HOOKED: fast clicking while waiting for a reeling
// label. Silence beyond state1_timeout routes to the retry branch.
func (c *Controller) stepHooked() bool {
	if err := c.act.StartFastClick(); err != nil {
		c.actuatorFault("start fast click", err)
		return false
	}
	quiet := time.Now()
	for {
		if c.stopped() {
			return false
		}
		if time.Since(quiet) > c.cfg.State1TimeoutD() {
			return c.retryCast()
		}
		obs, ok := c.det.DetectAny(AllowedLabels(PhaseFishHooked), c.cfg.ClassifierIntervalD())
		if ok && c.admit(obs) {
			quiet = time.Now()
			switch obs.Label {
			case LabelHooked:
				c.observe(obs)
			case LabelReelLow:
				c.transition(PhasePullingNormal, &obs)
				return true
			case LabelReelHigh:
				c.transition(PhasePullingHalfway, &obs)
				return true
			}
		}
		if !c.sleep(c.cfg.ClassifierIntervalD()) {
			return false
		}
	}
}

// retryCast is the remedial cast after a FISH_HOOKED timeout. The round
// counter is untouched: a retry is not a completed round.
func (c *Controller) retryCast() bool {
	if c.logger != nil {
		c.logger.Info("no reeling state within hook timeout, recasting")
	}
	c.act.StopFastClick()
	c.act.ReleaseAll()
	if !c.sleep(retrySettleBefore) {
		return false
	}
	if err := c.act.CastRod(); err != nil {
		c.fail("retry cast failed")
		return false
	}
	if !c.sleep(retrySettleAfter) {
		return false
	}
	c.transition(PhaseWaitingInitial, nil)
	return true
}

// stepPulling covers PULLING_NORMAL and PULLING_HALFWAY. Direction overlays
// hold a key without changing phase; stamina labels flip between the two
// pulling phases; label 6 always wins.
func (c *Controller) stepPulling() bool {
	halfway := c.Phase() == PhasePullingHalfway
	if halfway {
		c.act.PauseFastClick()
		if !c.sleep(c.cfg.State3PauseTimeD()) {
			return false
		}
		c.act.ResumeFastClick()
	} else if err := c.act.StartFastClick(); err != nil {
		c.actuatorFault("start fast click", err)
		return false
	}
	for {
		if c.stopped() {
			return false
		}
		obs, ok := c.det.DetectAny(AllowedLabels(c.Phase()), c.cfg.ClassifierIntervalD())
		if ok && c.admit(obs) {
			switch obs.Label {
			case LabelPullRight:
				c.observe(obs)
				if err := c.act.HoldKey(c.cfg.PullRightKey, c.cfg.KeyPressTimeD()); err != nil {
					c.actuatorFault("hold pull key", err)
					return false
				}
			case LabelPullLeft:
				c.observe(obs)
				if err := c.act.HoldKey(c.cfg.PullLeftKey, c.cfg.KeyPressTimeD()); err != nil {
					c.actuatorFault("hold pull key", err)
					return false
				}
			case LabelReelLow:
				if halfway {
					c.transition(PhasePullingNormal, &obs)
					return true
				}
				c.observe(obs)
			case LabelReelHigh:
				if !halfway {
					c.transition(PhasePullingHalfway, &obs)
					return true
				}
				c.observe(obs)
			case LabelSuccess:
				c.transition(PhaseSuccess, &obs)
				return true
			}
			continue
		}
		if !c.sleep(c.cfg.ClassifierIntervalD()) {
			return false
		}
	}
}

// stepSuccess confirms the catch and waits for label 6 to disappear, bounded
// to successMaxChecks iterations regardless of perception behavior.
func (c *Controller) stepSuccess() bool {
	c.act.StopFastClick()
	if !c.sleep(c.cfg.SuccessWaitTimeD()) {
		return false
	}
	if err := c.act.HoldKey(c.cfg.SuccessConfirmKey, confirmTapTime); err != nil {
		c.actuatorFault("confirm key", err)
		return false
	}
	for i := 0; i < successMaxChecks; i++ {
		if c.stopped() {
			return false
		}
		obs, ok := c.det.DetectSpecific(LabelSuccess)
		if !ok {
			break
		}
		c.observe(obs)
		if !c.sleep(c.cfg.ClassifierIntervalD()) {
			return false
		}
	}
	c.transition(PhaseCasting, nil)
	return true
}

// stepCasting performs the rod cast and closes the round. The cast itself is
// atomic with respect to cooperative stop; only EmergencyStop releases the
// button mid-hold.
func (c *Controller) stepCasting() bool {
	if err := c.act.CastRod(); err != nil {
		c.actuatorFault("cast rod", err)
		return false
	}
	if c.emergency.Load() {
		// The cast was cut short by a forced input release; the round did
		// not complete normally.
		return false
	}
	c.completeRound()
	return true
}

// admit applies the allowed-label guard for the current phase. Refused
// observations are counted and never mutate the phase.
func (c *Controller) admit(obs Observation) bool {
	if AllowedLabels(c.Phase()).Contains(obs.Label) {
		return true
	}
	c.refused.Add(1)
	if c.logger != nil {
		c.logger.Debug("observation refused", "phase", c.Phase().String(), "label", obs.Label.String(), "source", obs.Source.String())
	}
	return false
}

// transition moves to next and publishes a snapshot. The detected label is
// carried into the snapshot only for perception-driven phases.
func (c *Controller) transition(next Phase, obs *Observation) {
	c.mu.Lock()
	prev := c.phase
	c.phase = next
	if !showsLabel(next) {
		c.lastObs = nil
	} else if obs != nil {
		o := *obs
		c.lastObs = &o
	}
	snap := c.snapshotLocked()
	ls := append([]PhaseListener(nil), c.listeners...)
	c.mu.Unlock()
	c.status.Publish(snap)
	for _, l := range ls {
		l(prev, next)
	}
	if c.logger != nil {
		c.logger.Debug("phase transition", "from", prev.String(), "to", next.String())
	}
}

// observe records an accepted observation that does not change the phase.
func (c *Controller) observe(obs Observation) {
	c.mu.Lock()
	if showsLabel(c.phase) {
		o := obs
		c.lastObs = &o
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.status.Publish(snap)
}

// completeRound increments the round counter at the CASTING edge and returns
// to WAITING_INITIAL in one critical section so no snapshot can pair the new
// count with the old phase.
func (c *Controller) completeRound() {
	c.mu.Lock()
	prev := c.phase
	c.rounds++
	rounds := c.rounds
	c.phase = PhaseWaitingInitial
	c.lastObs = nil
	snap := c.snapshotLocked()
	ls := append([]PhaseListener(nil), c.listeners...)
	c.mu.Unlock()
	c.status.Publish(snap)
	for _, l := range ls {
		l(prev, PhaseWaitingInitial)
	}
	if c.logger != nil {
		c.logger.Info("round complete", "rounds", rounds)
	}
}

// fail stops actuators, records the error and parks the machine in ERROR.
func (c *Controller) fail(msg string) {
	c.act.StopFastClick()
	c.act.ReleaseAll()
	c.mu.Lock()
	prev := c.phase
	c.phase = PhaseError
	c.lastErr = msg
	c.lastObs = nil
	snap := c.snapshotLocked()
	ls := append([]PhaseListener(nil), c.listeners...)
	c.mu.Unlock()
	c.status.Publish(snap)
	for _, l := range ls {
		l(prev, PhaseError)
	}
	if c.logger != nil {
		c.logger.Error("controller error", "error", msg, "phase", prev.String())
	}
}

// actuatorFault wraps an actuator error into the ERROR phase after a
// best-effort teardown.
func (c *Controller) actuatorFault(op string, err error) {
	c.fail(fmt.Sprintf("%s: %v", op, err))
}

func (c *Controller) snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Status {
	st := Status{Phase: c.phase, Rounds: c.rounds, LastError: c.lastErr, UpdatedAt: time.Now()}
	if c.lastObs != nil && showsLabel(c.phase) {
		st.HasLabel = true
		st.LastLabel = c.lastObs.Label
		st.LastConfidence = c.lastObs.Confidence
	}
	return st
}

// stopped reports whether cooperative termination has been requested.
func (c *Controller) stopped() bool {
	c.mu.Lock()
	ch := c.stopCh
	c.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// sleep waits for d or until stop is requested; false means unwind.
func (c *Controller) sleep(d time.Duration) bool {
	c.mu.Lock()
	ch := c.stopCh
	c.mu.Unlock()
	if ch == nil {
		time.Sleep(d)
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ch:
		return false
	}
}

var _ Commands = (*Controller)(nil)
