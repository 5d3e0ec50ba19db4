// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ai"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockChatCompleter provides a mock implementation of ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

// NewMockChatCompleter creates a new mock chat completer
func NewMockChatCompleter() *MockChatCompleter {
	return &MockChatCompleter{}
}

// Complete returns the configured completion
func (m *MockChatCompleter) Complete(ctx context.Context, messages []ai.Message) (*outbound.Completion, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.Completion), args.Error(1)
}

// MockRecipeCatalog provides a mock implementation of RecipeCatalog
type MockRecipeCatalog struct {
	mock.Mock
}

// Exists reports whether the recipe is in the catalog
func (m *MockRecipeCatalog) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// DisplayName returns the configured name
func (m *MockRecipeCatalog) DisplayName(ctx context.Context, id int64) (*string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

// FakeCache is an in-memory CacheRepository that records TTLs
type FakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	ttls  map[string]time.Duration
	Err   error
}

// NewFakeCache creates an empty fake cache
func NewFakeCache() *FakeCache {
	return &FakeCache{
		items: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

// Get returns the stored value or ErrCacheMiss
func (c *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	v, ok := c.items[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return v, nil
}

// Set stores a value and remembers its TTL
func (c *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.items[key] = value
	c.ttls[key] = ttl
	return nil
}

// Delete removes a key
func (c *FakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.items, key)
	delete(c.ttls, key)
	return nil
}

// Ping reports the configured error
func (c *FakeCache) Ping(ctx context.Context) error {
	return c.Err
}

// TTL returns the TTL recorded for a key
func (c *FakeCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// Has reports whether a key is stored
func (c *FakeCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
