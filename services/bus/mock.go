package bussvc

import (
	"fmt"
	"sync"

	"github.com/shiksha/lms/core"
)

// SyncBusMock delivers events synchronously on the publishing goroutine.
// Tests use it to assert on handler side effects without sleeping.
type SyncBusMock struct {
	logger core.Logger

	mutex           sync.Mutex
	subs            map[string][]core.EventHandler
	PublishedEvents []core.Event
}

var _ core.EventBus = (*SyncBusMock)(nil)

func NewSyncBusMock(logger core.Logger) *SyncBusMock {
	return &SyncBusMock{
		logger: logger,
		subs:   make(map[string][]core.EventHandler),
	}
}

func (b *SyncBusMock) Subscribe(name string, h core.EventHandler) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

func (b *SyncBusMock) Publish(event core.Event) {
	b.mutex.Lock()
	b.PublishedEvents = append(b.PublishedEvents, event)
	handlers := b.subs[event.Name()]
	b.mutex.Unlock()

	for _, h := range handlers {
		b.deliver(h, event)
	}
}

func (b *SyncBusMock) deliver(h core.EventHandler, event core.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Sprintf("%s handler panicked: %v", event.Name(), r))
		}
	}()
	h(event)
}

func (b *SyncBusMock) Close() {}
