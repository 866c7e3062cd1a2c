// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package digest

import (
	"sync"
	"testing"
)

func TestKeyedMutex__serializesPerKey(t *testing.T) {
	locks := newKeyedMutex()

	const n = 50
	var counter int // protected only by the keyed lock
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("resource-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != n {
		t.Errorf("counter=%d want %d", counter, n)
	}
}

func TestKeyedMutex__independentKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("a")
	defer unlockA()

	// locking a different key can't block
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
}

func TestKeyedMutex__entriesCleanedUp(t *testing.T) {
	locks := newKeyedMutex()

	for i := 0; i < 10; i++ {
		unlock := locks.Lock("resource-1")
		unlock()
	}

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if n := len(locks.entries); n != 0 {
		t.Errorf("%d entries left behind", n)
	}
}
