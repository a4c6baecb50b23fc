package tracker

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory はトラッカーアダプタを生成する関数
type Factory func(conn Connection, priorities PriorityNames) (Tracker, error)

// Registry manages tracker adapters by name. Adapters register themselves
// from init functions; the CLI resolves the configured tracker name here.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var globalRegistry = NewRegistry()

// NewRegistry は空のRegistryを作成する
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register はグローバルレジストリにアダプタを登録する
func Register(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// New はグローバルレジストリから名前でトラッカーを生成する
func New(name string, conn Connection, priorities PriorityNames) (Tracker, error) {
	return globalRegistry.New(name, conn, priorities)
}

// List はグローバルレジストリに登録された名前を返す
func List() []string {
	return globalRegistry.List()
}

// Register adds a factory. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// New creates a tracker by name.
func (r *Registry) New(name string, conn Connection, priorities PriorityNames) (Tracker, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tracker %q (available: %v)", name, r.List())
	}
	return factory(conn, priorities)
}

// List returns registered names sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered は名前が登録済みかどうかを返す
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(name)]
	return ok
}

// Clear removes every factory. Used by tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}
