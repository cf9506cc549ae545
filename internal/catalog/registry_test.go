package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, path, validCatalog)

	r, err := NewRegistry(path, false)
	require.NoError(t, err)
	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, path, snap.Source)
	assert.Len(t, snap.Catalog.Instruments, 2)

	t.Run("invalid edit keeps previous snapshot", func(t *testing.T) {
		writeFile(t, path, "instruments: []\n")
		assert.Error(t, r.reload())
		assert.Equal(t, int64(1), r.Snapshot().Version)
	})

	t.Run("valid edit bumps version and notifies", func(t *testing.T) {
		got := make(chan Snapshot, 1)
		r.OnChange(func(s Snapshot) { got <- s })

		writeFile(t, path, validCatalog+"  - {setup: MOMENTUM, strategy: INTRADAY, enabled: false}\n")
		require.NoError(t, r.reload())
		r.notifyListeners()

		select {
		case s := <-got:
			assert.Equal(t, int64(2), s.Version)
			assert.Len(t, s.Catalog.Bindings, 2)
		case <-time.After(time.Second):
			t.Fatal("listener not called")
		}
	})
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r, err := NewStaticRegistry(Default())
	require.NoError(t, err)
	snap := r.Snapshot()
	snap.Catalog.Instruments[0].Name = "CHANGED"
	snap.Catalog.Strategies[0].Targets[0] = 99
	fresh := r.Snapshot()
	assert.Equal(t, "NIFTY50", fresh.Catalog.Instruments[0].Name)
	assert.NotEqual(t, 99.0, fresh.Catalog.Strategies[0].Targets[0])
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry("", false)
	assert.Error(t, err)
	_, err = NewStaticRegistry(Catalog{})
	assert.Error(t, err)
}
