package ledger

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("task-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	// A held lock on "a" must not block "b".
	unlockB := km.Lock("b")
	unlockB()
	unlockA()

	// Entries are reclaimed once released.
	km.mu.Lock()
	n := len(km.locks)
	km.mu.Unlock()
	if n != 0 {
		t.Errorf("lock map holds %d entries after release, want 0", n)
	}
}

func TestKeyedMutexReacquire(t *testing.T) {
	km := NewKeyedMutex()
	for i := 0; i < 3; i++ {
		unlock := km.Lock("k")
		unlock()
	}
}
