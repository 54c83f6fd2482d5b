package record

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// gameLocks hands out one binary semaphore per game. Entries are dropped
// once nobody holds or waits on them, so the map tracks only busy games.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[string]*gameLock)}
}

func lockKey(groupID string, code int) string {
	return fmt.Sprintf("%s/%d", groupID, code)
}

// acquire blocks until the game is free or ctx is done
func (l *gameLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &gameLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, lock)
		return nil, err
	}

	return func() {
		lock.sem.Release(1)
		l.unref(key, lock)
	}, nil
}

func (l *gameLocks) unref(key string, lock *gameLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *gameLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
