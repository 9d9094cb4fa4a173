package executor

import (
	"runtime"
	"time"
)

// WatchdogConfig enables or disables individual checks.
type WatchdogConfig struct {
	CheckSteps  bool
	CheckTime   bool
	CheckMemory bool
	CheckNaN    bool
}

// DefaultWatchdogConfig enables every check.
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{CheckSteps: true, CheckTime: true, CheckMemory: true, CheckNaN: true}
}

// Watchdog enforces step, wall-clock, and optional heap budgets over a run
// and latches NaN reports. It does not stop anything itself; callers check
// it before each step and abort on error.
type Watchdog struct {
	maxSteps    uint64
	maxDuration time.Duration
	maxHeap     uint64
	started     time.Time
	running     bool
	steps       uint64
	nanSeen     bool
	config      WatchdogConfig

	// now and heapInUse are swappable for tests.
	now       func() time.Time
	heapInUse func() uint64
}

// NewWatchdog creates a watchdog with the given budgets. The heap budget
// starts disabled; see WithMemoryLimit.
func NewWatchdog(maxSteps uint64, maxDuration time.Duration) *Watchdog {
	return &Watchdog{
		maxSteps:    maxSteps,
		maxDuration: maxDuration,
		config:      DefaultWatchdogConfig(),
		now:         time.Now,
		heapInUse:   liveHeapBytes,
	}
}

// WithConfig overrides the enabled checks.
func (w *Watchdog) WithConfig(config WatchdogConfig) *Watchdog {
	w.config = config
	return w
}

// WithMemoryLimit sets the heap budget in bytes. Zero disables the check.
func (w *Watchdog) WithMemoryLimit(bytes uint64) *Watchdog {
	w.maxHeap = bytes
	return w
}

func liveHeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// Start begins monitoring and clears counters.
func (w *Watchdog) Start() {
	w.started = w.now()
	w.running = true
	w.steps = 0
	w.nanSeen = false
}

// Stop ends monitoring. Counters keep their values for inspection.
func (w *Watchdog) Stop() { w.running = false }

// Reset clears the step counter and the NaN latch without touching the
// clock.
func (w *Watchdog) Reset() {
	w.steps = 0
	w.nanSeen = false
}

// Step records one completed step.
func (w *Watchdog) Step() { w.steps++ }

// RecordNaN latches NaN detection until the next Start or Reset.
func (w *Watchdog) RecordNaN() { w.nanSeen = true }

// Check returns a WatchdogError if any enabled limit is exceeded.
func (w *Watchdog) Check() error {
	if w.config.CheckSteps && w.steps >= w.maxSteps {
		return &WatchdogError{Kind: StepLimit, Limit: w.maxSteps, Actual: w.steps}
	}
	if w.config.CheckTime && w.running {
		if elapsed := w.now().Sub(w.started); elapsed > w.maxDuration {
			return &WatchdogError{
				Kind:   TimeLimit,
				Limit:  uint64(w.maxDuration.Milliseconds()),
				Actual: uint64(elapsed.Milliseconds()),
			}
		}
	}
	if w.config.CheckMemory && w.maxHeap > 0 {
		if used := w.heapInUse(); used >= w.maxHeap {
			return &WatchdogError{Kind: MemoryLimit, Limit: w.maxHeap, Actual: used}
		}
	}
	if w.config.CheckNaN && w.nanSeen {
		return &WatchdogError{Kind: NaNDetected}
	}
	return nil
}

// WatchdogStats is a point-in-time view of the watchdog counters.
type WatchdogStats struct {
	CurrentStep uint64
	MaxSteps    uint64
	ElapsedMs   uint64
	MaxTimeMs   uint64
	NaNDetected bool
}

// StepUtilization is the used fraction of the step budget.
func (s WatchdogStats) StepUtilization() float64 {
	if s.MaxSteps == 0 {
		return 0
	}
	return float64(s.CurrentStep) / float64(s.MaxSteps)
}

// TimeUtilization is the used fraction of the wall-clock budget.
func (s WatchdogStats) TimeUtilization() float64 {
	if s.MaxTimeMs == 0 {
		return 0
	}
	return float64(s.ElapsedMs) / float64(s.MaxTimeMs)
}

// StepsRemaining is the unused step budget.
func (s WatchdogStats) StepsRemaining() uint64 {
	if s.CurrentStep >= s.MaxSteps {
		return 0
	}
	return s.MaxSteps - s.CurrentStep
}

// Stats returns the current counters.
func (w *Watchdog) Stats() WatchdogStats {
	var elapsed time.Duration
	if w.running {
		elapsed = w.now().Sub(w.started)
	}
	return WatchdogStats{
		CurrentStep: w.steps,
		MaxSteps:    w.maxSteps,
		ElapsedMs:   uint64(elapsed.Milliseconds()),
		MaxTimeMs:   uint64(w.maxDuration.Milliseconds()),
		NaNDetected: w.nanSeen,
	}
}

// Progress reports budget consumption, each component clamped to [0, 1].
type Progress struct {
	StepProgress float64
	TimeProgress float64
	Overall      float64
}

// Progress returns current budget consumption. Overall is the maximum of
// the component ratios, since hitting either limit ends the run.
func (w *Watchdog) Progress() Progress {
	var p Progress
	if w.maxSteps > 0 {
		p.StepProgress = min(float64(w.steps)/float64(w.maxSteps), 1.0)
	}
	if w.running && w.maxDuration > 0 {
		elapsed := w.now().Sub(w.started)
		p.TimeProgress = min(elapsed.Seconds()/w.maxDuration.Seconds(), 1.0)
	}
	p.Overall = max(p.StepProgress, p.TimeProgress)
	return p
}

// NearLimit reports whether overall progress has reached the threshold.
func (w *Watchdog) NearLimit(threshold float64) bool {
	return w.Progress().Overall >= threshold
}
