package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"
)

const asyncQueueSize = 1000

// AsyncEventBus decouples publishers from subscribers with a bounded worker
// pool. Delivery is best effort.
type AsyncEventBus struct {
	bus       evbus.Bus
	workerNum int
	workChan  chan asyncEvent
	stopChan  chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Int64
}

type asyncEvent struct {
	topic string
	args  []interface{}
}

func NewAsyncEventBus(workerNum int) *AsyncEventBus {
	if workerNum <= 0 {
		workerNum = 4
	}
	return &AsyncEventBus{
		bus:       evbus.New(),
		workerNum: workerNum,
		workChan:  make(chan asyncEvent, asyncQueueSize),
		stopChan:  make(chan struct{}),
	}
}

func (b *AsyncEventBus) Start() {
	for i := 0; i < b.workerNum; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

// Stop drains in-flight events and waits for the workers to exit.
func (b *AsyncEventBus) Stop() {
	close(b.stopChan)
	b.wg.Wait()
}

func (b *AsyncEventBus) worker() {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopChan:
			// deliver whatever is still queued before exiting
			for {
				select {
				case event := <-b.workChan:
					b.deliver(event)
				default:
					return
				}
			}
		case event := <-b.workChan:
			b.deliver(event)
		}
	}
}

func (b *AsyncEventBus) deliver(event asyncEvent) {
	// a panicking subscriber must not kill the worker
	defer func() {
		_ = recover()
	}()
	b.bus.Publish(event.topic, event.args...)
}

// Publish delivers synchronously on the caller's goroutine.
func (b *AsyncEventBus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// PublishAsync enqueues the event, dropping it when the queue is full.
func (b *AsyncEventBus) PublishAsync(topic string, args ...interface{}) {
	select {
	case b.workChan <- asyncEvent{topic: topic, args: args}:
	default:
		b.dropped.Add(1)
	}
}

func (b *AsyncEventBus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *AsyncEventBus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *AsyncEventBus) Unsubscribe(topic string, handler interface{}) error {
	return b.bus.Unsubscribe(topic, handler)
}

func (b *AsyncEventBus) HasCallback(topic string) bool {
	return b.bus.HasCallback(topic)
}

// Dropped reports how many events were discarded because the queue was full.
func (b *AsyncEventBus) Dropped() int64 {
	return b.dropped.Load()
}

// WaitAsync gives queued events a chance to drain. Test helper.
func (b *AsyncEventBus) WaitAsync() {
	deadline := time.Now().Add(time.Second)
	for len(b.workChan) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// queued events may still be mid-delivery
	time.Sleep(20 * time.Millisecond)
}
