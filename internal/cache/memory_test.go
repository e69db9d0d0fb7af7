package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overview struct {
	Symbol   string  `json:"symbol"`
	AgeHours float64 `json:"age_hours"`
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "k", overview{Symbol: "AAA", AgeHours: 30}, time.Minute))

	var got overview
	hit, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "AAA", got.Symbol)
	assert.Equal(t, 30.0, got.AgeHours)

	hit, err = m.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, 300*time.Second))

	now = now.Add(299 * time.Second)
	var v int
	hit, _ := m.Get(ctx, "k", &v)
	assert.True(t, hit)

	now = now.Add(time.Second)
	hit, _ = m.Get(ctx, "k", &v)
	assert.False(t, hit)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Bounded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "b", 2, 2*time.Minute))
	require.NoError(t, m.Set(ctx, "c", 3, 3*time.Minute))

	assert.Equal(t, 2, m.Len())
	var v int
	hit, _ := m.Get(ctx, "a", &v)
	assert.False(t, hit, "soonest-expiring entry evicted")
	hit, _ = m.Get(ctx, "c", &v)
	assert.True(t, hit)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	calls := 0
	load := func(context.Context) (overview, error) {
		calls++
		return overview{Symbol: "BBB"}, nil
	}

	v, err := Fetch(ctx, m, "ov", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "BBB", v.Symbol)

	v, err = Fetch(ctx, m, "ov", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "BBB", v.Symbol)
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	boom := errors.New("boom")

	_, err := Fetch(ctx, m, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())
}

func TestFetch_NilCache(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
