package ic

import (
	"sync"
)

/*
AssetSet is the host's mutable output map (filename -> content). The core
only touches it during a single Run and never keeps a reference afterwards.
Implementations must be safe for concurrent use: tasks read and replace
assets from separate goroutines.
*/
type AssetSet interface {
	// Names returns every asset name in the set's natural enumeration order.
	Names() []string
	Read(name string) ([]byte, bool)
	// Replace overwrites (or creates) the named asset.
	Replace(name string, content []byte) error
}

// EnumerationError is implemented by asset sets whose Names can fail, such
// as a directory that does not exist. Err describes the last Names call.
type EnumerationError interface {
	Err() error
}

// MemoryAssets is an in-memory AssetSet that enumerates in insertion order.
type MemoryAssets struct {
	mu      sync.RWMutex
	order   []string
	content map[string][]byte
}

func NewMemoryAssets() *MemoryAssets {
	return &MemoryAssets{content: map[string][]byte{}}
}

// MemoryAssetsFrom builds a set from name/content pairs, keeping their order.
func MemoryAssetsFrom(pairs ...string) *MemoryAssets {
	m := NewMemoryAssets()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.set(pairs[i], []byte(pairs[i+1]))
	}
	return m
}

func (m *MemoryAssets) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *MemoryAssets) Read(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.content[name]
	if !ok {
		return nil, false
	}
	// Non-nil even when empty: a present asset must not read as absent.
	return append([]byte{}, b...), true
}

func (m *MemoryAssets) Replace(name string, content []byte) error {
	m.set(name, append([]byte(nil), content...))
	return nil
}

func (m *MemoryAssets) set(name string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.content[name]; !exists {
		m.order = append(m.order, name)
	}
	m.content[name] = content
}

// String is a convenience for tests and logging.
func (m *MemoryAssets) String(name string) string {
	b, _ := m.Read(name)
	return string(b)
}
