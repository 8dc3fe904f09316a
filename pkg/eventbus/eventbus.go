package eventbus

import (
	"reflect"
	"sync"
)

// Handler receives an event value.
type Handler func(event any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus provides in-process pub/sub keyed by the event's dynamic type.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[reflect.Type][]subscription
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]subscription)}
}

// Subscribe registers fn for events of type T and returns a function that removes it.
func Subscribe[T any](b *Bus, fn func(T)) (unsubscribe func()) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(event any) {
		if e, ok := event.(T); ok {
			fn(e)
		}
	})
}

func (b *Bus) subscribe(t reflect.Type, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.handlers[t]
			for i, s := range subs {
				if s.id == id {
					b.handlers[t] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) snapshot(event any) []Handler {
	if event == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.handlers[reflect.TypeOf(event)]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

// Publish delivers event to every subscriber on its own goroutine.
func (b *Bus) Publish(event any) {
	for _, h := range b.snapshot(event) {
		go h(event)
	}
}

// PublishSync delivers event on the caller's goroutine, in subscription order.
// Handlers run without the bus lock held, so they may subscribe or publish.
func (b *Bus) PublishSync(event any) {
	for _, h := range b.snapshot(event) {
		h(event)
	}
}

// SubscriberCount returns the number of subscribers for the type of sample.
func (b *Bus) SubscriberCount(sample any) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeOf(sample)])
}
