package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/survey"
)

func testHole(t *testing.T, id string, depth float64) *drillhole.Hole {
	t.Helper()
	hole, err := drillhole.New(id, survey.Collar{}, drillhole.CollarOnly(0, -90, depth), nil)
	require.NoError(t, err)
	return hole
}

func TestStore_SetGet(t *testing.T) {
	store := NewStore()
	store.Set(testHole(t, "DH-2", 50), "collars.csv")

	hole, found := store.Get("DH-2")
	require.True(t, found)
	assert.Equal(t, "DH-2", hole.ID())

	entry, found := store.GetWithMetadata("DH-2")
	require.True(t, found)
	assert.Equal(t, "collars.csv", entry.Source)
	assert.False(t, entry.CreatedAt.IsZero())

	_, found = store.Get("missing")
	assert.False(t, found)
}

func TestStore_SortedKeysAndHoles(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"DH-10", "DH-02", "AX-7"} {
		store.Set(testHole(t, id, 10), "test")
	}

	assert.Equal(t, []string{"AX-7", "DH-02", "DH-10"}, store.Keys())

	holes := store.Holes()
	require.Len(t, holes, 3)
	assert.Equal(t, "AX-7", holes[0].ID())
	assert.Equal(t, "DH-10", holes[2].ID())
}

func TestStore_DeleteClearStats(t *testing.T) {
	store := NewStore()
	store.Set(testHole(t, "A", 10), "test")
	store.Set(testHole(t, "B", 30), "test")

	stats := store.Stats()
	assert.Equal(t, 2, stats.TotalHoles)
	assert.Equal(t, 4, stats.TotalStations)
	assert.InDelta(t, 40.0, stats.TotalDepth, 1e-9)

	store.Delete("A")
	assert.Equal(t, 1, store.Len())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Keys())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	holes := make([]*drillhole.Hole, 20)
	for i := range holes {
		holes[i] = testHole(t, fmt.Sprintf("DH-%02d", i), float64(10+i))
	}

	var wg sync.WaitGroup
	for _, hole := range holes {
		wg.Add(1)
		go func(hole *drillhole.Hole) {
			defer wg.Done()
			store.Set(hole, "test")
			_, _ = store.Get(hole.ID())
			_ = store.Keys()
		}(hole)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}
