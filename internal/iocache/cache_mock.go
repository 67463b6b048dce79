package iocache

import (
	"context"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Delete implements the CacheStore interface.
func (m *MockCacheStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockHistoryCache is a mock implementation of HistoryCache for testing.
type MockHistoryCache struct {
	mock.Mock
}

var _ contract.HistoryCache = &MockHistoryCache{} // Compile-time check

// Load implements the HistoryCache interface.
func (m *MockHistoryCache) Load(ctx context.Context, key schema.CacheKey) (schema.History, error) {
	args := m.Called(ctx, key)
	h, _ := args.Get(0).(schema.History)
	return h, args.Error(1)
}

// Save implements the HistoryCache interface.
func (m *MockHistoryCache) Save(ctx context.Context, key schema.CacheKey, history schema.History) error {
	args := m.Called(ctx, key, history)
	return args.Error(0)
}

// Close implements the HistoryCache interface.
func (m *MockHistoryCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRemoteReader is a mock implementation of RemoteReader for testing.
type MockRemoteReader struct {
	mock.Mock
}

var _ contract.RemoteReader = &MockRemoteReader{} // Compile-time check

// Fetch implements the RemoteReader interface.
func (m *MockRemoteReader) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
