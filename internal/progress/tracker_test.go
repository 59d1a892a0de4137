package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerAggregate(t *testing.T) {
	t.Run("Empty Batch Is Complete", func(t *testing.T) {
		tr := NewTracker()
		tr.BeginBatch(nil)
		assert.Equal(t, float64(100), tr.Aggregate())
	})

	t.Run("Unweighted Mean", func(t *testing.T) {
		tr := NewTracker()
		tr.BeginBatch([]string{"a", "b"})
		tr.Report("a", 50)
		assert.Equal(t, float64(25), tr.Aggregate())
		tr.Report("b", 100)
		assert.Equal(t, float64(75), tr.Aggregate())
	})

	t.Run("All Done Is Exactly 100", func(t *testing.T) {
		tr := NewTracker()
		tr.BeginBatch([]string{"a", "b", "c"})
		for _, id := range []string{"a", "b", "c"} {
			tr.Report(id, 100)
		}
		assert.Equal(t, float64(100), tr.Aggregate())
	})

	t.Run("Clamps And Ignores Unknown Ids", func(t *testing.T) {
		tr := NewTracker()
		tr.BeginBatch([]string{"a"})
		tr.Report("a", 140)
		tr.Report("zzz", 10)
		p, ok := tr.Item("a")
		require.True(t, ok)
		assert.Equal(t, float64(100), p)
		_, ok = tr.Item("zzz")
		assert.False(t, ok)

		tr.Report("a", -3)
		assert.Equal(t, float64(0), tr.Aggregate())
	})

	t.Run("Begin Batch Resets", func(t *testing.T) {
		tr := NewTracker()
		tr.BeginBatch([]string{"a"})
		tr.Report("a", 100)
		tr.BeginBatch([]string{"b", "b"})
		assert.Equal(t, float64(0), tr.Aggregate())
		assert.Len(t, tr.Snapshot(), 1)
	})
}

func TestTrackerObserver(t *testing.T) {
	tr := NewTracker()
	var seen []float64
	tr.OnChange(func(agg float64) { seen = append(seen, agg) })

	tr.BeginBatch([]string{"a", "b"})
	tr.Report("a", 100)
	tr.Report("b", 100)

	assert.Equal(t, []float64{50, 100}, seen)
}

func TestTrackerConcurrentReports(t *testing.T) {
	tr := NewTracker()
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%d", i)
	}
	tr.BeginBatch(ids)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 0; p <= 100; p += 10 {
				tr.Report(id, float64(p))
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, float64(100), tr.Aggregate())
}
