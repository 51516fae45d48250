package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

	value, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	_, ok, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as absent")

	exists, err := m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

	existed, err := m.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = m.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, m.Clear(ctx))

	for _, key := range []string{"a", "b"} {
		_, ok, err := m.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("abc"), 0))

	value, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'X'

	again, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again, "callers must not be able to mutate cached values")
}

func TestBadger_RoundTrip(t *testing.T) {
	b, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "track_1", []byte(`{"path":"/x"}`), time.Hour))

	value, ok, err := b.Get(ctx, "track_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"path":"/x"}`, string(value))

	existed, err := b.Delete(ctx, "track_1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err = b.Get(ctx, "track_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadger_Expiry(t *testing.T) {
	b, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Second))
	time.Sleep(1100 * time.Millisecond)

	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as absent")
}

// failing is a Cache whose every operation errors, standing in for a broken
// durable store.
type failing struct{}

var errBroken = errors.New("broken store")

func (failing) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBroken }
func (failing) Set(context.Context, string, []byte, time.Duration) error {
	return errBroken
}
func (failing) Delete(context.Context, string) (bool, error) { return false, errBroken }
func (failing) Exists(context.Context, string) (bool, error) { return false, errBroken }
func (failing) Clear(context.Context) error                  { return errBroken }
func (failing) Close() error                                 { return nil }

func TestTiered_FallbackServesWhenPrimaryFails(t *testing.T) {
	fallback := NewMemory()
	defer fallback.Close()
	tiered := NewTiered(failing{}, fallback, nil)
	ctx := context.Background()

	// Write succeeds because the fallback accepts it.
	require.NoError(t, tiered.Set(ctx, "k", []byte("v"), time.Hour))

	value, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestTiered_SetFailsOnlyWhenBothTiersFail(t *testing.T) {
	tiered := NewTiered(failing{}, failing{}, nil)

	err := tiered.Set(context.Background(), "k", []byte("v"), 0)
	require.Error(t, err)
}

func TestTiered_PromotesFallbackHits(t *testing.T) {
	primary := NewMemory()
	defer primary.Close()
	fallback := NewMemory()
	defer fallback.Close()
	tiered := NewTiered(primary, fallback, nil)
	ctx := context.Background()

	require.NoError(t, fallback.Set(ctx, "k", []byte("v"), time.Hour))

	_, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = primary.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "fallback hit must be promoted into the primary")
}
