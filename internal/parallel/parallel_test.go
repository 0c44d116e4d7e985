package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	var counter int64
	seen := make([]int32, 1000)
	err := For(len(seen), func(i int) error {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, int64(len(seen)), counter)
	for i, s := range seen {
		assert.Equal(t, int32(1), s, "item %d", i)
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	err := For(5, func(i int) error {
		order = append(order, i)
		return nil
	}, Sequential())

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SmallChunk(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}

	var counter int64
	n := cfg.MinChunkSize - 1
	require.NoError(t, For(n, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg))

	assert.Equal(t, int64(n), counter)
}

func TestFor_JoinsErrors(t *testing.T) {
	errOdd := errors.New("odd item")
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	err := For(10, func(i int) error {
		if i%2 == 1 {
			return fmt.Errorf("item %d: %w", i, errOdd)
		}
		return nil
	}, cfg)

	require.ErrorIs(t, err, errOdd)
	assert.Contains(t, err.Error(), "item 1:")
	assert.Contains(t, err.Error(), "item 9:")
	assert.NotContains(t, err.Error(), "item 2:")
}

func TestFor_Empty(t *testing.T) {
	called := false
	require.NoError(t, For(0, func(int) error {
		called = true
		return nil
	}, DefaultConfig()))
	assert.False(t, called)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = For(n, func(i int) error {
				atomic.AddInt64(&sum, int64(i))
				return nil
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = For(n, func(i int) error {
				atomic.AddInt64(&sum, int64(i))
				return nil
			}, Sequential())
		}
	})
}
