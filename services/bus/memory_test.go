package bussvc

import (
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shiksha/lms/core"
	logsvc "github.com/shiksha/lms/services/logger"
)

type testEvent struct {
	name string
	seq  int
}

func (e testEvent) Name() string { return e.name }

func newTestBus() *memoryBus {
	return NewMemoryBus(logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)))
}

func TestMemoryBus_delivery(t *testing.T) {
	bus := newTestBus()

	received := make(chan core.Event, 1)
	bus.Subscribe("thing.happened", func(e core.Event) { received <- e })

	bus.Publish(testEvent{name: "thing.happened", seq: 1})

	select {
	case e := <-received:
		if e.(testEvent).seq != 1 {
			t.Errorf("received %+v; want seq 1", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
	bus.Close()
}

func TestMemoryBus_subscriberOrder(t *testing.T) {
	bus := newTestBus()

	const n = 100
	seqs := make([]int, 0, n)
	var wg sync.WaitGroup
	wg.Add(n)
	bus.Subscribe("thing.happened", func(e core.Event) {
		seqs = append(seqs, e.(testEvent).seq) // single worker; no race
		wg.Done()
	})

	for i := 0; i < n; i++ {
		bus.Publish(testEvent{name: "thing.happened", seq: i})
	}
	wg.Wait()
	bus.Close()

	for i, seq := range seqs {
		if seq != i {
			t.Fatalf("delivery out of order at %d: got seq %d", i, seq)
		}
	}
}

func TestMemoryBus_independentSubscribers(t *testing.T) {
	bus := newTestBus()

	a := make(chan core.Event, 1)
	b := make(chan core.Event, 1)
	bus.Subscribe("thing.happened", func(e core.Event) { a <- e })
	bus.Subscribe("thing.happened", func(e core.Event) { b <- e })
	bus.Subscribe("other.thing", func(e core.Event) { t.Error("wrong subscription invoked") })

	bus.Publish(testEvent{name: "thing.happened"})

	for name, ch := range map[string]chan core.Event{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %s did not receive the event", name)
		}
	}
	bus.Close()
}

// A panicking handler must not kill its worker; later events still arrive.
func TestMemoryBus_handlerPanicIsolation(t *testing.T) {
	bus := newTestBus()

	received := make(chan int, 2)
	bus.Subscribe("thing.happened", func(e core.Event) {
		if e.(testEvent).seq == 0 {
			panic("boom")
		}
		received <- e.(testEvent).seq
	})

	bus.Publish(testEvent{name: "thing.happened", seq: 0})
	bus.Publish(testEvent{name: "thing.happened", seq: 1})

	select {
	case seq := <-received:
		if seq != 1 {
			t.Errorf("received seq %d; want 1", seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after handler panic")
	}
	bus.Close()
}

// warnSpyLogger counts Warn calls so drop decisions are observable.
type warnSpyLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *warnSpyLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warns
}

func (l *warnSpyLogger) Debug(string, ...interface{}) {}
func (l *warnSpyLogger) Info(string, ...interface{})  {}
func (l *warnSpyLogger) Warn(string, ...interface{}) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}
func (l *warnSpyLogger) Error(string, ...interface{}) {}
func (l *warnSpyLogger) Fatal(string, ...interface{}) {}

// A publish against a saturated queue must return immediately and drop the
// event instead of blocking the caller.
func TestMemoryBus_saturatedQueueDropsEvents(t *testing.T) {
	spy := &warnSpyLogger{}
	bus := &memoryBus{logger: spy, queueSize: 1, subs: make(map[string][]*subscriber)}

	release := make(chan struct{})
	var handled int
	bus.Subscribe("thing.happened", func(core.Event) {
		handled++ // single worker; no race
		<-release
	})

	const n = 10
	published := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			bus.Publish(testEvent{name: "thing.happened", seq: i})
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full queue")
	}

	close(release)
	bus.Close() // waits for the worker

	drops := spy.warnCount()
	if drops < n-2 {
		t.Errorf("dropped %d events; want at least %d", drops, n-2)
	}
	if handled != n-drops {
		t.Errorf("handled %d events with %d dropped; want %d", handled, drops, n-drops)
	}
	if handled > 2 {
		t.Errorf("handled %d events through a 1-slot queue; want at most 2", handled)
	}
}

func TestMemoryBus_closeDrainsPending(t *testing.T) {
	bus := newTestBus()

	var mu sync.Mutex
	var count int
	bus.Subscribe("thing.happened", func(core.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	const n = 50
	for i := 0; i < n; i++ {
		bus.Publish(testEvent{name: "thing.happened", seq: i})
	}
	bus.Close() // waits for the workers

	mu.Lock()
	defer mu.Unlock()
	if count != n {
		t.Errorf("handled %d events after Close(); want %d", count, n)
	}
}
