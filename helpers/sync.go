package helpers

// Random synchronisation util stash

import (
	"sync"
	"time"

	"github.com/temoto/alive/v2"
)

// AliveSub stops leaf when root stops. Blocks until either is stopped.
func AliveSub(root, leaf *alive.Alive) {
	select {
	case <-root.StopChan():
		leaf.Stop()
	case <-leaf.StopChan():
	}
}

func WithLock(l sync.Locker, f func()) {
	l.Lock()
	defer l.Unlock()
	f()
}

// SleepAlive returns false if a was stopped before d elapsed.
func SleepAlive(a *alive.Alive, d time.Duration) bool {
	if d <= 0 {
		return a.IsRunning()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-a.StopChan():
		return false
	}
}
