package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vocollect/vocollect/internal/models"
)

func TestCallRegistryLifecycle(t *testing.T) {
	r := NewCallRegistry()
	assert.Equal(t, 0, r.Count())

	call := &ActiveCall{Session: &models.CallSession{CallUUID: "c1"}}
	r.Put("c1", call)

	got, ok := r.Get("c1")
	assert.True(t, ok)
	assert.Same(t, call, got)
	assert.Equal(t, 1, r.Count())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	r.Remove("c1")
	assert.Equal(t, 0, r.Count())
	r.Remove("c1") // removing twice is harmless
}

func TestFinalizeOnceCollapsesConcurrentTriggers(t *testing.T) {
	call := &ActiveCall{Session: &models.CallSession{CallUUID: "c1"}}

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			call.FinalizeOnce(func() { atomic.AddInt32(&ran, 1) })
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}
