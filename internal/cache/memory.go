package cache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"holdem-server/internal/apperrors"
)

// MemoryGateway is the in-process Gateway used by tests and MODE=test
// runs. Semantics match PGGateway, including NotFound on a missing
// load.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryGateway {
	return &MemoryGateway{data: map[string][]byte{}}
}

func (g *MemoryGateway) Save(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	g.data[key] = cp
	return nil
}

func (g *MemoryGateway) Load(_ context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	value, ok := g.data[key]
	if !ok {
		return nil, apperrors.New(apperrors.NotFound, "no cached state for key "+key)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (g *MemoryGateway) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data, key)
	return nil
}

func (g *MemoryGateway) Exists(_ context.Context, key string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.data[key]
	return ok, nil
}

func (g *MemoryGateway) ListByPrefix(_ context.Context, prefix string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var keys []string
	for k := range g.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
