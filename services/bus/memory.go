package bussvc

import (
	"fmt"
	"sync"

	"github.com/shiksha/lms/core"
)

type subscriber struct {
	eventName string
	handler   core.EventHandler
	queue     chan core.Event
}

// memoryBus is an in-process core.EventBus. Each subscriber gets its own
// buffered queue drained by a single worker goroutine, so delivery to one
// subscriber follows publish order. Delivery is at-most-once: events pending
// in a queue are lost on process exit, and a publish against a saturated
// queue drops the event rather than blocking the caller.
type memoryBus struct {
	logger    core.Logger
	queueSize int

	mutex sync.RWMutex
	subs  map[string][]*subscriber
	wg    sync.WaitGroup
}

var _ core.EventBus = (*memoryBus)(nil)

func NewMemoryBus(logger core.Logger) *memoryBus {
	return &memoryBus{
		logger:    logger,
		queueSize: core.Conf.Notification.QueueSize,
		subs:      make(map[string][]*subscriber),
	}
}

func (b *memoryBus) Subscribe(name string, h core.EventHandler) {
	sub := &subscriber{
		eventName: name,
		handler:   h,
		queue:     make(chan core.Event, b.queueSize),
	}

	b.mutex.Lock()
	b.subs[name] = append(b.subs[name], sub)
	b.mutex.Unlock()

	b.wg.Add(1)
	go b.work(sub)
}

func (b *memoryBus) Publish(event core.Event) {
	b.mutex.RLock()
	subs := b.subs[event.Name()]
	b.mutex.RUnlock()

	for _, sub := range subs {
		select {
		case sub.queue <- event:
		default:
			// no backpressure towards the publisher; losing the event here is
			// within the at-most-once contract
			b.logger.Warn(fmt.Sprintf("event queue full, dropping %s event", event.Name()))
		}
	}
}

func (b *memoryBus) work(sub *subscriber) {
	defer b.wg.Done()
	for event := range sub.queue {
		b.dispatch(sub, event)
	}
}

// dispatch isolates a handler failure from the rest of the bus.
func (b *memoryBus) dispatch(sub *subscriber, event core.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Sprintf("%s handler panicked: %v", sub.eventName, r))
		}
	}()
	sub.handler(event)
}

// Close drains the subscriber queues and stops the workers. Publishing after
// Close is a programming error.
func (b *memoryBus) Close() {
	b.mutex.Lock()
	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.queue)
		}
	}
	b.subs = make(map[string][]*subscriber)
	b.mutex.Unlock()

	b.wg.Wait()
}
