package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_AddFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	m.Add(50*time.Millisecond, 0, func() {
		fired.Add(1)
	})

	time.Sleep(400 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("expected task to fire once, fired %d times", fired.Load())
	}
}

func TestManager_RemoveCancels(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	id := m.Add(200*time.Millisecond, 0, func() {
		fired.Add(1)
	})
	m.Remove(id)

	time.Sleep(500 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("removed task fired %d times", fired.Load())
	}
}

func TestManager_IntervalRepeats(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	id := m.Add(50*time.Millisecond, 150*time.Millisecond, func() {
		fired.Add(1)
	})

	time.Sleep(600 * time.Millisecond)
	m.Remove(id)
	if fired.Load() < 2 {
		t.Errorf("expected repeating task to fire at least twice, fired %d times", fired.Load())
	}
}
