package fishing

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soocke/reel-bot-go/config"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// newTestConfig scales all timings down so a full round runs in tens of
// milliseconds.
func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ClassifierInterval = 0.005
	cfg.TextInterval = 0.005
	cfg.InitialTimeout = 5
	cfg.State1Timeout = 0.05
	cfg.State3PauseTime = 0.02
	cfg.SuccessWaitTime = 0.01
	cfg.KeyPressTime = 0.06
	cfg.CastHoldTime = 0.01
	return cfg
}

// scriptStep shows one label (or silence) for a fixed duration. Steps play
// back in order from the moment the detector is armed; after the script ends
// the detector reports silence.
type scriptStep struct {
	label Label
	has   bool
	dur   time.Duration
}

func show(l Label, d time.Duration) scriptStep { return scriptStep{label: l, has: true, dur: d} }
func silence(d time.Duration) scriptStep       { return scriptStep{dur: d} }

// scriptedDetector models perception as "what is on screen right now".
// When raw is set, DetectAny skips the allowed filter so tests can exercise
// the controller's own guard.
type scriptedDetector struct {
	mu    sync.Mutex
	start time.Time
	steps []scriptStep
	raw   bool
}

func newScript(steps ...scriptStep) *scriptedDetector {
	return &scriptedDetector{start: time.Now(), steps: steps}
}

func (d *scriptedDetector) setSteps(steps ...scriptStep) {
	d.mu.Lock()
	d.start = time.Now()
	d.steps = steps
	d.mu.Unlock()
}

func (d *scriptedDetector) current() (Label, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := time.Since(d.start)
	for _, s := range d.steps {
		if elapsed < s.dur {
			return s.label, s.has
		}
		elapsed -= s.dur
	}
	return 0, false
}

func (d *scriptedDetector) DetectAny(allowed LabelSet, _ time.Duration) (Observation, bool) {
	l, has := d.current()
	if !has {
		return Observation{}, false
	}
	if !d.raw && !allowed.Contains(l) {
		return Observation{}, false
	}
	return Observation{Label: l, Confidence: 0.9, Source: SourceClassifier, At: time.Now()}, true
}

func (d *scriptedDetector) DetectSpecific(label Label) (Observation, bool) {
	l, has := d.current()
	if !has || l != label {
		return Observation{}, false
	}
	return Observation{Label: l, Confidence: 0.9, Source: SourceClassifier, At: time.Now()}, true
}

// fakeActuator records every call; all operations are instantaneous except
// HoldKey, which sleeps for the requested hold, and CastRod, which optionally
// blocks for castDelay.
type fakeActuator struct {
	mu          sync.Mutex
	clicking    bool
	paused      bool
	startCalls  int
	stopCalls   int
	pauseCalls  int
	resumeCalls int
	holds       []string
	casts       int
	releases    int
	castErr     error
	startErr    error
	castDelay   time.Duration
}

func (a *fakeActuator) StartFastClick() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.startErr != nil {
		return a.startErr
	}
	a.startCalls++
	a.clicking = true
	a.paused = false
	return nil
}

func (a *fakeActuator) PauseFastClick() {
	a.mu.Lock()
	a.pauseCalls++
	a.paused = true
	a.mu.Unlock()
}

func (a *fakeActuator) ResumeFastClick() {
	a.mu.Lock()
	a.resumeCalls++
	a.paused = false
	a.mu.Unlock()
}

func (a *fakeActuator) StopFastClick() {
	a.mu.Lock()
	a.stopCalls++
	a.clicking = false
	a.mu.Unlock()
}

func (a *fakeActuator) HoldKey(key string, d time.Duration) error {
	a.mu.Lock()
	a.holds = append(a.holds, key)
	a.mu.Unlock()
	time.Sleep(d)
	return nil
}

func (a *fakeActuator) CastRod() error {
	a.mu.Lock()
	err := a.castErr
	delay := a.castDelay
	if err == nil {
		a.casts++
	}
	a.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (a *fakeActuator) ReleaseAll() {
	a.mu.Lock()
	a.releases++
	a.mu.Unlock()
}

func (a *fakeActuator) snapshot() fakeActuator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fakeActuator{
		clicking: a.clicking, paused: a.paused,
		startCalls: a.startCalls, stopCalls: a.stopCalls,
		pauseCalls: a.pauseCalls, resumeCalls: a.resumeCalls,
		holds: append([]string(nil), a.holds...),
		casts: a.casts, releases: a.releases,
	}
}

// phaseRecorder collects the transition sequence.
type phaseRecorder struct {
	mu  sync.Mutex
	seq []Phase
}

func (r *phaseRecorder) listener(_, next Phase) {
	r.mu.Lock()
	r.seq = append(r.seq, next)
	r.mu.Unlock()
}

func (r *phaseRecorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.seq...)
}

func waitForPhase(t *testing.T, c *Controller, expected Phase, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Phase() == expected {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for phase %v (got %v)", expected, c.Phase())
}

func waitForRounds(t *testing.T, c *Controller, want uint64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Rounds() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d rounds (got %d)", want, c.Rounds())
}

// containsSubsequence reports whether want appears in got in order.
func containsSubsequence(got, want []Phase) bool {
	i := 0
	for _, p := range got {
		if i < len(want) && p == want[i] {
			i++
		}
	}
	return i == len(want)
}

func TestController_HappyPath(t *testing.T) {
	det := newScript(
		show(LabelWaiting, 60*time.Millisecond),
		show(LabelHooked, 60*time.Millisecond),
		show(LabelReelLow, 60*time.Millisecond),
		show(LabelReelHigh, 80*time.Millisecond),
		show(LabelReelLow, 60*time.Millisecond),
		show(LabelSuccess, 60*time.Millisecond),
	)
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	rec := &phaseRecorder{}
	c.AddListener(rec.listener)

	require.NoError(t, c.Start())
	defer c.Stop()

	waitForRounds(t, c, 1, 3*time.Second)
	waitForPhase(t, c, PhaseWaitingInitial, time.Second)

	want := []Phase{
		PhaseWaitingInitial, PhaseWaitingHook, PhaseFishHooked,
		PhasePullingNormal, PhasePullingHalfway, PhasePullingNormal,
		PhaseSuccess, PhaseCasting, PhaseWaitingInitial,
	}
	require.True(t, containsSubsequence(rec.phases(), want), "trajectory %v missing %v", rec.phases(), want)
	require.Equal(t, uint64(1), c.Rounds())
}

func TestController_RetryThenSucceed(t *testing.T) {
	det := newScript(
		show(LabelHooked, 80*time.Millisecond),
		// Silence long enough to cover the hook timeout plus the retry
		// settling pauses (0.5s + 1s fixed).
		silence(1700*time.Millisecond),
		show(LabelHooked, 100*time.Millisecond),
		show(LabelReelLow, 100*time.Millisecond),
		show(LabelSuccess, 60*time.Millisecond),
	)
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	rec := &phaseRecorder{}
	c.AddListener(rec.listener)

	require.NoError(t, c.Start())
	defer c.Stop()

	waitForRounds(t, c, 1, 6*time.Second)

	snap := act.snapshot()
	// One remedial cast plus the closing cast of the completed round.
	require.Equal(t, 2, snap.casts)
	require.Equal(t, uint64(1), c.Rounds())
	// The retry traversal went back through WAITING_INITIAL.
	require.True(t, containsSubsequence(rec.phases(), []Phase{
		PhaseFishHooked, PhaseWaitingInitial, PhaseFishHooked, PhasePullingNormal,
	}), "trajectory %v", rec.phases())
}

func TestController_RetryLeavesRoundsUntouched(t *testing.T) {
	det := newScript(
		show(LabelHooked, 80*time.Millisecond),
		silence(10 * time.Second),
	)
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	defer c.Stop()

	waitForPhase(t, c, PhaseFishHooked, time.Second)
	// Let the retry fire and land back in WAITING_INITIAL.
	waitForPhase(t, c, PhaseWaitingInitial, 4*time.Second)
	require.Equal(t, uint64(0), c.Rounds())
	require.GreaterOrEqual(t, act.snapshot().casts, 1)
}

func TestController_DirectionOverlayHoldsKeyWithoutPhaseChange(t *testing.T) {
	det := newScript(
		show(LabelHooked, 60*time.Millisecond),
		show(LabelReelLow, 80*time.Millisecond),
		// Present shorter than the key hold so it is consumed exactly once.
		show(LabelPullRight, 40*time.Millisecond),
		show(LabelReelLow, 200*time.Millisecond),
	)
	act := &fakeActuator{}
	cfg := newTestConfig()
	c := NewController(cfg, discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	defer c.Stop()

	waitForPhase(t, c, PhasePullingNormal, time.Second)
	time.Sleep(250 * time.Millisecond)

	snap := act.snapshot()
	require.Equal(t, []string{cfg.PullRightKey}, snap.holds)
	require.Equal(t, PhasePullingNormal, c.Phase())
}

func TestController_StaleSuccessDuringCasting(t *testing.T) {
	det := newScript(
		show(LabelHooked, 60*time.Millisecond),
		show(LabelReelLow, 60*time.Millisecond),
		// Label 6 never disappears: SUCCESS must force CASTING after its
		// bounded check loop, and the lingering 6 must not re-enter SUCCESS.
		show(LabelSuccess, 10*time.Second),
	)
	act := &fakeActuator{castDelay: 100 * time.Millisecond}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)

	var mu sync.Mutex
	var castingSnaps []Status
	c.SubscribeStatus(func(st Status) {
		if st.Phase == PhaseCasting {
			mu.Lock()
			castingSnaps = append(castingSnaps, st)
			mu.Unlock()
		}
	})

	require.NoError(t, c.Start())
	defer c.Stop()

	waitForRounds(t, c, 1, 5*time.Second)
	waitForPhase(t, c, PhaseWaitingInitial, time.Second)
	require.Equal(t, uint64(1), c.Rounds())

	mu.Lock()
	defer mu.Unlock()
	for _, st := range castingSnaps {
		require.False(t, st.HasLabel, "CASTING snapshot carries a detected label")
	}
}

func TestController_InitialTimeout(t *testing.T) {
	cfg := newTestConfig()
	cfg.InitialTimeout = 0.08
	det := newScript(silence(10 * time.Second))
	act := &fakeActuator{}
	c := NewController(cfg, discardLogger, det, act, nil, nil)

	require.NoError(t, c.Start())
	waitForPhase(t, c, PhaseError, 2*time.Second)

	st := c.SnapshotStatus()
	require.Equal(t, PhaseError, st.Phase)
	require.NotEmpty(t, st.LastError)
	require.False(t, st.HasLabel)

	snap := act.snapshot()
	require.Zero(t, snap.startCalls, "fast click must never start")
	require.Zero(t, snap.casts, "rod must never be cast")

	// Operator stop from ERROR settles in STOPPED.
	c.Stop()
	require.Equal(t, PhaseStopped, c.Phase())
}

func TestController_EmergencyStopDuringHalfwayPause(t *testing.T) {
	cfg := newTestConfig()
	cfg.State3PauseTime = 0.3
	det := newScript(
		show(LabelHooked, 60*time.Millisecond),
		show(LabelReelHigh, 5*time.Second),
	)
	act := &fakeActuator{}
	c := NewController(cfg, discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())

	waitForPhase(t, c, PhasePullingHalfway, 2*time.Second)
	// Give stepPulling a moment to enter the pause window.
	time.Sleep(20 * time.Millisecond)

	begin := time.Now()
	c.EmergencyStop()
	require.Less(t, time.Since(begin), 200*time.Millisecond)
	require.Equal(t, PhaseStopped, c.Phase())

	snap := act.snapshot()
	require.False(t, snap.clicking)
	require.GreaterOrEqual(t, snap.releases, 1)
}

func TestController_DisallowedLabelNeverMutatesPhase(t *testing.T) {
	det := newScript(show(LabelWaiting, 60 * time.Millisecond))
	det.raw = true
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	defer c.Stop()

	waitForPhase(t, c, PhaseWaitingHook, time.Second)
	// Feed labels outside WAITING_HOOK's allowed set {0, 1}.
	det.setSteps(
		show(LabelPullRight, 50*time.Millisecond),
		show(LabelSuccess, 50*time.Millisecond),
		show(LabelReelLow, 50*time.Millisecond),
	)
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, PhaseWaitingHook, c.Phase())
	require.Equal(t, uint64(0), c.Rounds())
	require.Greater(t, c.RefusedObservations(), uint64(0))
}

func TestController_StartWhileRunningIsNoop(t *testing.T) {
	det := newScript(silence(10 * time.Second))
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	defer c.Stop()

	require.True(t, c.Running())
	require.NoError(t, c.Start())
	require.True(t, c.Running())
}

func TestController_WarmupFailureKeepsStopped(t *testing.T) {
	det := newScript(silence(time.Second))
	act := &fakeActuator{}
	wantErr := errWarmup{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, func() error { return wantErr })

	err := c.Start()
	require.Error(t, err)
	require.ErrorIs(t, err, wantErr)
	require.False(t, c.Running())
	require.Equal(t, PhaseStopped, c.Phase())
}

type errWarmup struct{}

func (errWarmup) Error() string { return "engine unavailable" }

func TestController_ActuatorFaultEntersError(t *testing.T) {
	det := newScript(show(LabelHooked, 5 * time.Second))
	act := &fakeActuator{startErr: errWarmup{}}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())

	waitForPhase(t, c, PhaseError, 2*time.Second)
	st := c.SnapshotStatus()
	require.Contains(t, st.LastError, "start fast click")
	c.Stop()
}

func TestController_RestartAfterErrorClearsLastError(t *testing.T) {
	cfg := newTestConfig()
	cfg.InitialTimeout = 0.05
	det := newScript(silence(time.Second))
	act := &fakeActuator{}
	c := NewController(cfg, discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	waitForPhase(t, c, PhaseError, 2*time.Second)
	c.Stop()

	cfg.InitialTimeout = 5
	det.setSteps(silence(10 * time.Second))
	require.NoError(t, c.Start())
	defer c.Stop()
	waitForPhase(t, c, PhaseWaitingInitial, time.Second)
	require.Empty(t, c.SnapshotStatus().LastError)
}

func TestController_StopIsBounded(t *testing.T) {
	det := newScript(show(LabelWaiting, 10 * time.Second))
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	waitForPhase(t, c, PhaseWaitingHook, time.Second)

	begin := time.Now()
	c.Stop()
	require.Less(t, time.Since(begin), c.cfg.CastHoldTimeD()+500*time.Millisecond)
	require.Equal(t, PhaseStopped, c.Phase())
	require.False(t, c.Running())
}

func TestController_SuccessLoopIsBounded(t *testing.T) {
	det := newScript(
		show(LabelHooked, 60*time.Millisecond),
		show(LabelReelLow, 60*time.Millisecond),
		show(LabelSuccess, 10*time.Second),
	)
	act := &fakeActuator{}
	c := NewController(newTestConfig(), discardLogger, det, act, nil, nil)
	require.NoError(t, c.Start())
	defer c.Stop()

	// Even with label 6 pinned on screen, SUCCESS must exit via its bounded
	// check loop and complete the round.
	waitForRounds(t, c, 1, 5*time.Second)
}
