package wizard

import (
	"sync"
	"testing"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	mu       sync.Mutex
	switches []structs.Switch
	healthy  map[string]bool
}

func newFakeHealth(urls ...string) *fakeHealth {
	f := &fakeHealth{healthy: make(map[string]bool)}
	for _, u := range urls {
		f.switches = append(f.switches, structs.Switch{EndpointURL: u, HealthCheckPath: "/health"})
		f.healthy[u] = true
	}
	return f
}

func (f *fakeHealth) set(url string, healthy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy[url] = healthy
}

func (f *fakeHealth) HealthySwitches() []structs.Switch {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []structs.Switch
	for _, s := range f.switches {
		if f.healthy[s.EndpointURL] {
			out = append(out, s)
		}
	}
	return out
}

func selectN(t *testing.T, sw *SwitchWizard, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for range n {
		url, err := sw.SelectNext()
		require.NoError(t, err)
		out = append(out, url)
	}
	return out
}

func TestSelectNextRoundRobin(t *testing.T) {
	t.Parallel()

	sw := NewSwitchWizard(newFakeHealth("A", "B", "C"), zerolog.Nop())

	assert.Equal(t, []string{"A", "B", "C", "A"}, selectN(t, sw, 4))
}

func TestSelectNextSkipsUnhealthy(t *testing.T) {
	t.Parallel()

	hs := newFakeHealth("A", "B", "C")
	hs.set("C", false)
	sw := NewSwitchWizard(hs, zerolog.Nop())

	assert.Equal(t, []string{"A", "B"}, selectN(t, sw, 2))

	hs.set("C", true)
	assert.Equal(t, []string{"C", "A"}, selectN(t, sw, 2))
}

func TestSelectNextNoHealthySwitches(t *testing.T) {
	t.Parallel()

	hs := newFakeHealth("A", "B", "C")
	for _, u := range []string{"A", "B", "C"} {
		hs.set(u, false)
	}
	sw := NewSwitchWizard(hs, zerolog.Nop())

	for range 3 {
		_, err := sw.SelectNext()
		require.ErrorIs(t, err, ErrNoHealthySwitches)
	}
	assert.Zero(t, sw.cursor.Load())

	for _, u := range []string{"A", "B", "C"} {
		hs.set(u, true)
	}
	assert.Equal(t, []string{"A", "B", "C"}, selectN(t, sw, 3))
}

func TestSelectNextConcurrentCallersSpreadEvenly(t *testing.T) {
	t.Parallel()

	sw := NewSwitchWizard(newFakeHealth("A", "B", "C"), zerolog.Nop())

	const callers, perCaller = 30, 10
	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		wg     sync.WaitGroup
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perCaller {
				url, err := sw.SelectNext()
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				counts[url]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"A": 100, "B": 100, "C": 100}, counts)
	assert.Equal(t, uint64(callers*perCaller), sw.cursor.Load())
}
