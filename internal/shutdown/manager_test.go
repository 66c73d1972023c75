package shutdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_ReverseOrderOnce(t *testing.T) {
	m := NewManager(nil)
	var order []string
	m.Register("service", Func(func() { order = append(order, "service") }))
	m.Register("watcher", Func(func() { order = append(order, "watcher") }))

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []string{"watcher", "service"}, order)
	assert.Error(t, m.Context().Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestManager_SlowComponentTimesOut(t *testing.T) {
	m := NewManager(nil)
	m.SetStepTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	ran := false
	m.Register("fast", Func(func() { ran = true }))
	m.Register("stuck", Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, ran)
}
