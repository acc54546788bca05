package lock

import (
	"context"
	"sync"

	"ProcureAI/internal/ports"
)

// LocalLocker is a process-wide single-flight guard keyed by name.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

var _ ports.Locker = (*LocalLocker)(nil)

// NewLocalLocker returns an in-memory locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]bool{}}
}

// TryLock acquires key without waiting.
func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, true, nil
}
