package sync

import (
	"fmt"
	"sort"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_StoreLoadDelete(t *testing.T) {
	m := NewMap[string, int]()

	_, ok := m.Load("a")
	assert.False(t, ok)

	m.Store("a", 1)
	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())

	m.Delete("a")
	_, ok = m.Load("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	// deleting a missing key is a no-op
	m.Delete("a")
}

func TestMap_LoadOrStore(t *testing.T) {
	m := NewMap[string, int]()

	actual, loaded := m.LoadOrStore("a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, actual)

	actual, loaded = m.LoadOrStore("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, actual)
}

func TestMap_RangeStops(t *testing.T) {
	m := NewMap[int, int]()
	for i := range 10 {
		m.Store(i, i)
	}

	visited := 0
	m.Range(func(int, int) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

func TestMap_Filter(t *testing.T) {
	m := NewMap[string, int]()
	for i := range 6 {
		m.Store(fmt.Sprintf("k%d", i), i)
	}

	even := m.Filter(func(v int) bool { return v%2 == 0 })
	sort.Ints(even)
	assert.Equal(t, []int{0, 2, 4}, even)

	assert.Empty(t, m.Filter(func(int) bool { return false }))
}

func TestMap_ConcurrentLoadOrStore(t *testing.T) {
	m := NewMap[string, *gosync.Mutex]()

	var wg gosync.WaitGroup
	results := make([]*gosync.Mutex, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.LoadOrStore("session", &gosync.Mutex{})
		}(i)
	}
	wg.Wait()

	for _, mu := range results {
		assert.Same(t, results[0], mu)
	}
}
