package usecase

import (
	"fmt"
	"sync"

	"ConsensusBot/pkg/logger"
)

// observerList dispatches values synchronously to callbacks in registration order.
// A panicking callback is recovered and logged; the remaining callbacks still run.
type observerList[T any] struct {
	mu     sync.RWMutex
	nextID int
	items  []observer[T]
	log    *logger.Logger
	name   string
}

type observer[T any] struct {
	id int
	fn func(T)
}

func newObserverList[T any](name string, log *logger.Logger) *observerList[T] {
	return &observerList[T]{name: name, log: log}
}

// add registers fn and returns a handle that removes it; the handle is idempotent.
func (l *observerList[T]) add(fn func(T)) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.items = append(l.items, observer[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, o := range l.items {
				if o.id == id {
					l.items = append(l.items[:i:i], l.items[i+1:]...)
					return
				}
			}
		})
	}
}

func (l *observerList[T]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *observerList[T]) notify(v T) {
	l.mu.RLock()
	items := append([]observer[T](nil), l.items...)
	l.mu.RUnlock()

	for _, o := range items {
		l.call(o, v)
	}
}

func (l *observerList[T]) call(o observer[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("observer panicked",
				logger.String("list", l.name),
				logger.Int("observer", o.id),
				logger.Error(fmt.Errorf("%v", r)),
			)
		}
	}()
	o.fn(v)
}
