package app

import (
	"context"
	"errors"
	"sync"
)

var errDispatcherStopped = errors.New("dispatcher stopped")

// Executor выполняет функции на своём потоке
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc адаптер функции к Executor
type ExecutorFunc func(fn func())

// Execute вызывает f(fn)
func (f ExecutorFunc) Execute(fn func()) { f(fn) }

var (
	// Inline выполняет функцию сразу в вызывающей горутине
	Inline Executor = ExecutorFunc(func(fn func()) { fn() })

	// Background запускает каждую функцию в отдельной горутине
	Background Executor = ExecutorFunc(func(fn func()) { go fn() })
)

// Dispatcher единственный поток событий экранов.
// Функции выполняются строго по одной в порядке постановки.
type Dispatcher struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewDispatcher создаёт очередь событий заданной ёмкости
func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	return &Dispatcher{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Execute ставит функцию в очередь. После остановки вызовы игнорируются.
func (d *Dispatcher) Execute(fn func()) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.queue <- fn:
	case <-d.done:
	}
}

// Run обрабатывает очередь до отмены контекста или вызова Stop
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return
		case <-d.done:
			return
		case fn := <-d.queue:
			fn()
		}
	}
}

// Stop останавливает диспетчер
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
}

// Flush ждёт, пока выполнятся все функции, поставленные до вызова
func (d *Dispatcher) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	d.Execute(func() { close(barrier) })

	select {
	case <-barrier:
		return nil
	case <-d.done:
		return errDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
