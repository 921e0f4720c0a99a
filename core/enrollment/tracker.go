package enrollment

import (
	"context"
	"math"
	"sync"
	"time"
)

// Sampling policy defaults. A persist fires when the progress delta since the
// last persist reaches DefaultDeltaThreshold points OR when
// DefaultTimeThreshold wall-clock time has elapsed — the delta rule alone
// starves near the end of playback, the time rule alone over-fires on seeking.
const (
	DefaultDeltaThreshold = 10               // percentage points
	DefaultTimeThreshold  = 30 * time.Second // max staleness between persists
	CompletionThreshold   = 95               // tolerance band for end-of-stream buffering/rounding

	// DefaultSessionIdleTimeout is how long a session may go without samples
	// before its tracker is evicted by the sweep.
	DefaultSessionIdleTimeout = time.Hour
)

type (
	// PersistFunc stores one progress sample. elapsed is the whole-minute
	// viewing time accrued since the previous persist; sub-minute remainders
	// carry into the next persist so short inter-persist gaps still add up.
	PersistFunc func(ctx context.Context, progress int, elapsed time.Duration) error

	// CompleteFunc is invoked on every sample at or above CompletionThreshold;
	// it must therefore be idempotent.
	CompleteFunc func(ctx context.Context, progress int) error

	// Tracker is a reusable progress-sampling policy for one playback session.
	// All viewer components share this implementation instead of re-rolling the
	// polling/threshold logic.
	Tracker struct {
		deltaThreshold int
		timeThreshold  time.Duration
		persist        PersistFunc
		complete       CompleteFunc
		now            func() time.Time // mockable

		mu            sync.Mutex
		started       bool
		lastProgress  int           // last persisted progress
		lastPersistAt time.Time     // last persisted timestamp
		carried       time.Duration // sub-minute viewing time not yet billed
	}

	TrackerOption func(*Tracker)
)

func WithThresholds(deltaPts int, maxStale time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.deltaThreshold = deltaPts
		t.timeThreshold = maxStale
	}
}

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(persist PersistFunc, complete CompleteFunc, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		deltaThreshold: DefaultDeltaThreshold,
		timeThreshold:  DefaultTimeThreshold,
		persist:        persist,
		complete:       complete,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Progress converts a playback position into a whole percentage.
func Progress(position, duration float64) int {
	if duration <= 0 {
		return 0
	}
	pct := int(math.Round(position / duration * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Sample feeds one playback observation through the policy. It reports whether
// the sample was persisted. Samples at or above CompletionThreshold trigger the
// completion callback whether or not they persisted; completion is never
// "un-triggered" by later samples.
func (t *Tracker) Sample(ctx context.Context, position, duration float64) (bool, error) {
	progress := Progress(position, duration)

	t.mu.Lock()
	now := t.now()
	if !t.started {
		// baseline: deltas measured from 0%, staleness from the first sample
		t.started = true
		t.lastPersistAt = now
	}

	delta := progress - t.lastProgress
	if delta < 0 {
		delta = -delta
	}
	elapsed := now.Sub(t.lastPersistAt)
	shouldPersist := delta >= t.deltaThreshold || elapsed >= t.timeThreshold

	var billable time.Duration
	if shouldPersist {
		t.lastProgress = progress
		t.lastPersistAt = now
		// bill whole minutes only; the remainder accrues towards the next persist
		spent := t.carried + elapsed
		billable = spent.Truncate(time.Minute)
		t.carried = spent - billable
	}
	t.mu.Unlock()

	if shouldPersist {
		if err := t.persist(ctx, progress, billable); err != nil {
			return false, err
		}
	}
	if progress >= CompletionThreshold && t.complete != nil {
		if err := t.complete(ctx, progress); err != nil {
			return shouldPersist, err
		}
	}
	return shouldPersist, nil
}

// TrackerRegistry holds one Tracker per open playback session, keyed by
// (user, lesson). A single active tracking loop per viewer is assumed.
type TrackerRegistry struct {
	mu      sync.Mutex
	entries map[string]*trackerEntry
	now     func() time.Time // mockable
}

type trackerEntry struct {
	tracker *Tracker
	touched time.Time // last sample; drives idle eviction
}

func NewTrackerRegistry() *TrackerRegistry {
	return &TrackerRegistry{entries: make(map[string]*trackerEntry), now: time.Now}
}

func trackerKey(userID, lessonID string) string { return userID + "|" + lessonID }

// GetOrCreate returns the session tracker for (user, lesson), creating it with
// the provided factory on first use. It reports whether this call created the
// tracker, i.e. whether a new session just opened.
func (r *TrackerRegistry) GetOrCreate(userID, lessonID string, create func() *Tracker) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := trackerKey(userID, lessonID)
	if e, ok := r.entries[key]; ok {
		e.touched = r.now()
		return e.tracker, false
	}
	t := create()
	r.entries[key] = &trackerEntry{tracker: t, touched: r.now()}
	return t, true
}

// Close drops the session tracker on viewer teardown.
func (r *TrackerRegistry) Close(userID, lessonID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, trackerKey(userID, lessonID))
}

// EvictIdle drops trackers that saw no samples for maxIdle, covering viewers
// that never close their session. Returns the number evicted.
func (r *TrackerRegistry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	var n int
	for key, e := range r.entries {
		if e.touched.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}
