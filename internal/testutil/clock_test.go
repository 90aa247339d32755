package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_Frozen(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.True(t, start.Equal(clock.Now()))
	assert.True(t, start.Equal(clock.Now()))
}

func TestManualClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	clock.Advance(90 * time.Second)
	assert.True(t, start.Add(90*time.Second).Equal(clock.Now()))

	later := start.Add(time.Hour)
	clock.Set(later)
	assert.True(t, later.Equal(clock.Now()))
}

func TestManualClock_ThreadSafe(t *testing.T) {
	start := time.Unix(0, 0)
	clock := NewManualClock(start)

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numGoroutines), clock.Now().Unix())
}
