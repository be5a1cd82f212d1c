package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInOrder(t *testing.T) {
	var bus Bus[int]
	var got []string
	bus.Subscribe(func(n int) { got = append(got, "a") })
	bus.Subscribe(func(n int) { got = append(got, "b") })

	bus.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestUnsubscribe(t *testing.T) {
	var bus Bus[string]
	calls := 0
	stop := bus.Subscribe(func(string) { calls++ })

	bus.Publish("x")
	stop()
	stop()
	bus.Publish("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestHandlerMayUnsubscribeItself(t *testing.T) {
	var bus Bus[int]
	var stop func()
	calls := 0
	stop = bus.Subscribe(func(int) {
		calls++
		stop()
	})
	bus.Publish(1)
	bus.Publish(2)
	assert.Equal(t, 1, calls)
}

func TestPublishAsync(t *testing.T) {
	var bus Bus[int]
	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	sum := 0
	for i := 0; i < 2; i++ {
		bus.Subscribe(func(n int) {
			mu.Lock()
			sum += n
			mu.Unlock()
			wg.Done()
		})
	}
	bus.PublishAsync(5)
	wg.Wait()
	assert.Equal(t, 10, sum)
}
