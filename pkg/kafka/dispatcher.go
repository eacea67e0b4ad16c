package pkgkafka

import (
	"context"
	"hash/fnv"
	"sync"
)

// Dispatcher fans items out to a fixed set of workers. Items with the same key always go
// to the same worker, so they are handled one at a time in the order they were dispatched.
type Dispatcher[T any] struct {
	workers []chan T
	handle  func(T)
	wg      *sync.WaitGroup
	once    *sync.Once
}

func NewDispatcher[T any](size, buffer int, handle func(T)) *Dispatcher[T] {
	if size < 1 {
		size = 1
	}
	d := &Dispatcher[T]{
		workers: make([]chan T, size),
		handle:  handle,
		wg:      &sync.WaitGroup{},
		once:    &sync.Once{},
	}
	for i := range d.workers {
		d.workers[i] = make(chan T, buffer)
		d.wg.Add(1)
		go d.run(d.workers[i])
	}
	return d
}

func (d *Dispatcher[T]) run(ch chan T) {
	defer d.wg.Done()
	for item := range ch {
		d.handle(item)
	}
}

func (d *Dispatcher[T]) WorkerFor(key []byte) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(len(d.workers)))
}

// Dispatch blocks while the target worker's buffer is full.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, key []byte, item T) error {
	select {
	case d.workers[d.WorkerFor(key)] <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting items and waits for queued ones to finish.
func (d *Dispatcher[T]) Close() {
	d.once.Do(func() {
		for _, ch := range d.workers {
			close(ch)
		}
	})
	d.wg.Wait()
}
