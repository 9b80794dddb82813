package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Memory is an in-process Registry with the same last-write-wins and
// not-found semantics as the on-chain directory.
type Memory struct {
	mu      sync.RWMutex
	entries map[Name]common.Address
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[Name]common.Address)}
}

func (m *Memory) Register(_ context.Context, name Name, address common.Address) error {
	if err := name.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = address

	return nil
}

func (m *Memory) Lookup(_ context.Context, name Name) (common.Address, error) {
	if err := name.Validate(); err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	address, ok := m.entries[name]
	if !ok || address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return address, nil
}
