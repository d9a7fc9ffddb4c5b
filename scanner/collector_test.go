package scanner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randscan/port"
)

func TestCollector_RecordIsIdempotentPerPort(t *testing.T) {
	c := NewCollector(10)

	_, ok := c.Record(port.Outcome{Port: 80, State: port.StateOpen})
	require.True(t, ok)
	_, ok = c.Record(port.Outcome{Port: 80, State: port.StateOpen})
	require.False(t, ok)

	snap := c.Snapshot()
	assert.Equal(t, []uint16{80}, snap.OpenPorts)
	assert.Equal(t, 1, snap.Open)
	assert.Equal(t, 1, snap.Probed)
}

func TestCollector_CountsPerState(t *testing.T) {
	c := NewCollector(5)
	c.Record(port.Outcome{Port: 1, State: port.StateOpen})
	c.Record(port.Outcome{Port: 2, State: port.StateClosed})
	c.Record(port.Outcome{Port: 3, State: port.StateTimedOut})
	c.Record(port.Outcome{Port: 4, State: port.StateError, Reason: "boom"})
	prog, ok := c.Record(port.Outcome{Port: 5, State: port.StateTimedOut})
	require.True(t, ok)

	assert.Equal(t, Progress{Port: 5, State: port.StateTimedOut, Probed: 5, Total: 5, Percent: 100, Open: 1}, prog)

	snap := c.Snapshot()
	assert.Equal(t, 5, snap.Probed)
	assert.Equal(t, 1, snap.Closed)
	assert.Equal(t, 2, snap.TimedOut)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, []uint16{1}, snap.OpenPorts)
}

func TestCollector_SnapshotSortedAndUnique(t *testing.T) {
	c := NewCollector(port.Max)
	for _, p := range []uint16{443, 22, 65535, 80, 22, 1} {
		c.Record(port.Outcome{Port: p, State: port.StateOpen})
	}
	require.Equal(t, []uint16{1, 22, 80, 443, 65535}, c.Snapshot().OpenPorts)
}

func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector(3).Snapshot()
	require.NotNil(t, snap.OpenPorts)
	require.Empty(t, snap.OpenPorts)
	require.Equal(t, 3, snap.Total)
}

func TestCollector_ConcurrentRecordAndSnapshot(t *testing.T) {
	c := NewCollector(port.Max)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := w + 1; p <= port.Max; p += 8 {
				state := port.StateClosed
				if p%1000 == 0 {
					state = port.StateOpen
				}
				c.Record(port.Outcome{Port: uint16(p), State: state})
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := 0
		for range 200 {
			s := c.Snapshot()
			assert.GreaterOrEqual(t, s.Probed, last)
			assert.Equal(t, s.Open, len(s.OpenPorts))
			last = s.Probed
		}
	}()
	wg.Wait()
	<-done

	snap := c.Snapshot()
	require.Equal(t, port.Max, snap.Probed)
	require.Len(t, snap.OpenPorts, 65)
	require.Equal(t, port.Max-65, snap.Closed)
}
