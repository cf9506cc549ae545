package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"roshi/internal/logger"
	"roshi/internal/market"
	"roshi/internal/strategy"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Snapshot is an immutable view of the catalog at one version.
type Snapshot struct {
	Version  int64     `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Source   string    `json:"source"`
	Catalog  Catalog   `json:"catalog"`
}

type ChangeListener func(Snapshot)

// Registry serves the current catalog. When backed by a file it reloads on
// change and keeps the previous snapshot if the new file is invalid.
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry loads path and, when watch is set, follows edits to it.
func NewRegistry(path string, watch bool) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog registry requires path")
	}
	r := &Registry{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if watch {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read catalog failed: %w", err)
		}
		v.OnConfigChange(func(evt fsnotify.Event) {
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				return
			}
			if err := r.reload(); err != nil {
				logger.Errorf("catalog reload failed, keeping version %d: %v", r.Snapshot().Version, err)
				return
			}
			r.notifyListeners()
		})
		v.WatchConfig()
		r.v = v
	}
	return r, nil
}

// NewStaticRegistry serves a fixed catalog.
func NewStaticRegistry(cat Catalog) (*Registry, error) {
	cat = cat.normalize()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &Registry{snapshot: Snapshot{Version: 1, LoadedAt: time.Now(), Source: "builtin", Catalog: cat}}, nil
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// OnChange registers fn for successful reloads. Listeners run on their own
// goroutine.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	cat, err := LoadFile(r.path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Source:   r.path,
		Catalog:  cat,
	}
	version := r.snapshot.Version
	r.mu.Unlock()
	logger.Infof("catalog v%d loaded from %s: %d instruments, %d strategies",
		version, filepath.Base(r.path), len(cat.Instruments), len(cat.Strategies))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("catalog listener")
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := src
	c := src.Catalog
	dst.Catalog.Instruments = append([]market.Instrument(nil), c.Instruments...)
	dst.Catalog.Bindings = append([]strategy.Binding(nil), c.Bindings...)
	dst.Catalog.Strategies = make([]strategy.Definition, len(c.Strategies))
	for i, def := range c.Strategies {
		def.Targets = append([]float64(nil), def.Targets...)
		dst.Catalog.Strategies[i] = def
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}
