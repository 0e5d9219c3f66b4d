package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnablement_DefaultEnabled(t *testing.T) {
	t.Parallel()

	e := NewEnablement()
	assert.True(t, e.IsEnabled(testIdentity(t, 0)))
	assert.True(t, e.IsEnabled(testIdentity(t, 7)))
}

func TestEnablement_Toggle(t *testing.T) {
	t.Parallel()

	e := NewEnablement()
	worker2 := testIdentity(t, 2)

	e.SetEnabled(2, false)
	assert.False(t, e.IsEnabled(worker2))
	assert.True(t, e.IsEnabled(testIdentity(t, 1)), "disabling one ordinal leaves the others running")

	e.SetEnabled(2, true)
	assert.True(t, e.IsEnabled(worker2), "the change is visible without a restart")
}

func TestEnablement_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	e := NewEnablement()
	identity := testIdentity(t, 1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			e.SetEnabled(1, i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			e.IsEnabled(identity)
		}()
	}
	wg.Wait()
}
