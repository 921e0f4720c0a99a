package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		duration float64
		want     int
	}{
		{"at start", 0, 300, 0},
		{"half way", 150, 300, 50},
		{"rounds up", 100, 300, 33},
		{"at end", 300, 300, 100},
		{"past end", 320, 300, 100},
		{"negative position", -5, 300, 0},
		{"zero duration", 10, 0, 0},
		{"negative duration", 10, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.position, tt.duration))
		})
	}
}

type trackerRecorder struct {
	persisted   []int
	elapsed     []time.Duration
	completions []int
}

func (r *trackerRecorder) persist(_ context.Context, progress int, elapsed time.Duration) error {
	r.persisted = append(r.persisted, progress)
	r.elapsed = append(r.elapsed, elapsed)
	return nil
}

func (r *trackerRecorder) complete(_ context.Context, progress int) error {
	r.completions = append(r.completions, progress)
	return nil
}

func newTestTracker(rec *trackerRecorder) (*Tracker, *time.Time) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(rec.persist, rec.complete, WithClock(func() time.Time { return now }))
	return tr, &now
}

func TestTrackerSample_deltaRule(t *testing.T) {
	ctx := context.Background()
	rec := new(trackerRecorder)
	tr, _ := newTestTracker(rec)

	// small movement from the 0% baseline is absorbed
	persisted, err := tr.Sample(ctx, 5, 100)
	require.NoError(t, err)
	assert.False(t, persisted)
	assert.Empty(t, rec.persisted)

	// crossing the delta threshold persists
	persisted, err = tr.Sample(ctx, 12, 100)
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, []int{12}, rec.persisted)

	// small movement from the new baseline is absorbed again
	persisted, err = tr.Sample(ctx, 15, 100)
	require.NoError(t, err)
	assert.False(t, persisted)
	assert.Equal(t, []int{12}, rec.persisted)
}

func TestTrackerSample_staleness(t *testing.T) {
	ctx := context.Background()
	rec := new(trackerRecorder)
	tr, now := newTestTracker(rec)

	persisted, err := tr.Sample(ctx, 12, 100)
	require.NoError(t, err)
	require.True(t, persisted)

	// no movement, no time passed: absorbed
	persisted, err = tr.Sample(ctx, 12, 100)
	require.NoError(t, err)
	assert.False(t, persisted)

	// no movement but 35s elapsed: staleness rule fires
	*now = now.Add(35 * time.Second)
	persisted, err = tr.Sample(ctx, 12, 100)
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, []int{12, 12}, rec.persisted)

	// 35s is under a minute, so nothing billed yet; the remainder carries
	assert.Equal(t, time.Duration(0), rec.elapsed[1])

	// another 35s brings the carried total to 70s: one minute billed
	*now = now.Add(35 * time.Second)
	persisted, err = tr.Sample(ctx, 12, 100)
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, time.Minute, rec.elapsed[2])
}

func TestTrackerSample_timeSpentAccrues(t *testing.T) {
	ctx := context.Background()
	rec := new(trackerRecorder)
	tr, now := newTestTracker(rec)

	// minutes of playback in 35s staleness-rule persists: the whole-minute
	// billing must add up even though every single gap is under a minute
	_, err := tr.Sample(ctx, 12, 100) // baseline, delta-rule persist
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		*now = now.Add(35 * time.Second)
		persisted, err := tr.Sample(ctx, 12, 100)
		require.NoError(t, err)
		require.True(t, persisted)
	}

	var total time.Duration
	for _, d := range rec.elapsed {
		total += d
	}
	assert.Equal(t, 5*time.Minute, total) // 10 * 35s = 350s, 50s still carried
}

func TestTrackerSample_completion(t *testing.T) {
	ctx := context.Background()
	rec := new(trackerRecorder)
	tr, now := newTestTracker(rec)

	// below the tolerance band: no completion
	_, err := tr.Sample(ctx, 94, 100)
	require.NoError(t, err)
	assert.Empty(t, rec.completions)

	// at and above the band: completion fires on every sample
	*now = now.Add(time.Second)
	_, err = tr.Sample(ctx, 96, 100)
	require.NoError(t, err)
	*now = now.Add(time.Second)
	_, err = tr.Sample(ctx, 97, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{96, 97}, rec.completions)
}

func TestTrackerRegistry(t *testing.T) {
	reg := NewTrackerRegistry()
	rec := new(trackerRecorder)

	var created int
	factory := func() *Tracker {
		created++
		return NewTracker(rec.persist, rec.complete)
	}

	t1, opened := reg.GetOrCreate("usr1", "lsn1", factory)
	assert.True(t, opened)
	t2, opened := reg.GetOrCreate("usr1", "lsn1", factory)
	assert.False(t, opened)
	assert.Same(t, t1, t2)
	assert.Equal(t, 1, created)

	reg.Close("usr1", "lsn1")
	t3, opened := reg.GetOrCreate("usr1", "lsn1", factory)
	assert.True(t, opened)
	assert.NotSame(t, t1, t3)
	assert.Equal(t, 2, created)
}

func TestTrackerRegistry_evictIdle(t *testing.T) {
	reg := NewTrackerRegistry()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	rec := new(trackerRecorder)
	factory := func() *Tracker { return NewTracker(rec.persist, rec.complete) }

	reg.GetOrCreate("usr1", "lsn1", factory)
	reg.GetOrCreate("usr2", "lsn1", factory)

	// usr2 keeps sampling, usr1 walks away
	now = now.Add(45 * time.Minute)
	reg.GetOrCreate("usr2", "lsn1", factory)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, reg.EvictIdle(time.Hour))

	// usr1's session is gone, usr2's survives
	_, opened := reg.GetOrCreate("usr1", "lsn1", factory)
	assert.True(t, opened)
	_, opened = reg.GetOrCreate("usr2", "lsn1", factory)
	assert.False(t, opened)
}
