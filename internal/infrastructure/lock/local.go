// Package lock implementa el puerto TaskLocker: candados por conteo en proceso
// o distribuidos en Redis.
package lock

import (
	"context"
	"sync"
)

// LocalLocker mutex por clave dentro del proceso. Las entradas se eliminan cuando
// nadie las usa, así que el mapa no crece con conteos históricos.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker construye el locker en proceso.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

// Acquire espera el candado de countID o hasta que ctx termine.
func (l *LocalLocker) Acquire(ctx context.Context, countID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[countID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[countID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(countID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(countID, e)
		})
	}, nil
}

func (l *LocalLocker) unref(countID string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, countID)
	}
}

// Len cantidad de claves con candado tomado o en espera.
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
