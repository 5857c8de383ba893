package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	rb := New[int](4)
	for i := 0; i < 10; i++ {
		rb.Push(i)
	}
	require.Equal(t, int64(10), rb.Len())

	for i := 0; i < 10; i++ {
		item, ok := rb.Pop()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}
	_, ok := rb.Pop()
	assert.False(t, ok)
}

func TestGrowPreservesOrder(t *testing.T) {
	rb := New[int](2)
	// Interleave to move the head off zero before growing.
	rb.Push(0)
	rb.Push(1)
	_, _ = rb.Pop()
	for i := 2; i < 20; i++ {
		rb.Push(i)
	}

	items := rb.PopAll()
	require.Len(t, items, 19)
	for i, item := range items {
		assert.Equal(t, i+1, item)
	}
}

func TestPopN(t *testing.T) {
	rb := New[string](8)
	rb.Push("a")
	rb.Push("b")
	rb.Push("c")

	items, ok := rb.PopN(2)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)

	items, ok = rb.PopN(10)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, items)

	_, ok = rb.PopN(1)
	assert.False(t, ok)
}

func TestConcurrentPush(t *testing.T) {
	rb := New[int](4)
	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				rb.Push(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(producers*perProducer), rb.Len())
	assert.Len(t, rb.PopAll(), producers*perProducer)
}
