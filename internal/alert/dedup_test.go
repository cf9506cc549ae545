package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"roshi/internal/market"
	"roshi/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC)

func breakoutSignal(entry float64) strategy.Signal {
	return strategy.Signal{
		Instrument: market.Instrument{Name: "RELIANCE", Symbol: "RELIANCE.NS"},
		Strategy:   "INTRADAY",
		Setup:      strategy.SetupBreakout,
		Entry:      entry,
	}
}

func TestDeduplicator_Window(t *testing.T) {
	ctx := context.Background()
	d, err := NewDeduplicator(NewMemoryStore(DefaultWindow, 0), Config{})
	require.NoError(t, err)
	assert.Equal(t, PolicyWindow, d.Policy())
	key := d.KeyFor(breakoutSignal(2500))

	ok, err := d.ShouldEmit(ctx, key, t0)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, d.RecordEmission(ctx, key, t0))

	ok, err = d.ShouldEmit(ctx, key, t0.Add(29*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "suppressed inside the window")

	ok, err = d.ShouldEmit(ctx, key, t0.Add(31*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "allowed after the window")
	require.NoError(t, d.RecordEmission(ctx, key, t0.Add(31*time.Minute)))

	ok, err = d.ShouldEmit(ctx, key, t0.Add(50*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "record was refreshed")
}

func TestDeduplicator_WindowKeyIgnoresEntry(t *testing.T) {
	d, err := NewDeduplicator(NewMemoryStore(0, 0), Config{Policy: PolicyWindow})
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE|INTRADAY", d.KeyFor(breakoutSignal(2500)).String())
	assert.Equal(t, d.KeyFor(breakoutSignal(2500)).String(), d.KeyFor(breakoutSignal(2600)).String())
}

func TestDeduplicator_Once(t *testing.T) {
	ctx := context.Background()
	d, err := NewDeduplicator(NewMemoryStore(0, 0), Config{Policy: PolicyOnce})
	require.NoError(t, err)

	key := d.KeyFor(breakoutSignal(2500.004))
	assert.Equal(t, "RELIANCE|INTRADAY|2500.00", key.String())
	require.NoError(t, d.RecordEmission(ctx, key, t0))

	ok, err := d.ShouldEmit(ctx, key, t0.Add(48*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	other := d.KeyFor(breakoutSignal(2510))
	ok, err = d.ShouldEmit(ctx, other, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewDeduplicator_Errors(t *testing.T) {
	_, err := NewDeduplicator(nil, Config{})
	assert.Error(t, err)
	_, err = NewDeduplicator(NewMemoryStore(0, 0), Config{Policy: "forever"})
	assert.Error(t, err)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (Record, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Record), args.Bool(1), args.Error(2)
}

func (m *MockStore) Put(ctx context.Context, rec Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStore) List(ctx context.Context, limit int) ([]Record, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

func TestDeduplicator_StoreErrors(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	boom := errors.New("db locked")
	store.On("Get", ctx, "RELIANCE|INTRADAY").Return(Record{}, false, boom)
	store.On("Put", ctx, mock.AnythingOfType("alert.Record")).Return(boom)

	d, err := NewDeduplicator(store, Config{})
	require.NoError(t, err)
	key := d.KeyFor(breakoutSignal(2500))

	ok, err := d.ShouldEmit(ctx, key, t0)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.RecordEmission(ctx, key, t0), boom)
	store.AssertExpectations(t)
}
