package iocache

import (
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
	"github.com/stretchr/testify/mock"
)

// MockClassCache is a mock implementation of ClassCache for testing.
type MockClassCache struct {
	mock.Mock
}

var _ contract.ClassCache = &MockClassCache{} // Compile-time check

// Get implements the ClassCache interface.
func (m *MockClassCache) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the ClassCache interface.
func (m *MockClassCache) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the ClassCache interface.
func (m *MockClassCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the ClassCache interface.
func (m *MockClassCache) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}
