package contract

import (
	"context"

	"github.com/huangsam/cohort/schema"
	"github.com/stretchr/testify/mock"
)

// MockGroupDirectory is a mock implementation of GroupDirectory for testing.
type MockGroupDirectory struct {
	mock.Mock
}

var _ GroupDirectory = &MockGroupDirectory{} // Compile-time check

// FindGroup implements the GroupDirectory interface.
func (m *MockGroupDirectory) FindGroup(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

// InGroup implements the GroupDirectory interface.
func (m *MockGroupDirectory) InGroup(id, groupName string) bool {
	args := m.Called(id, groupName)
	if fn, ok := args.Get(0).(func(string, string) bool); ok {
		return fn(id, groupName)
	}
	return args.Bool(0)
}

// Members implements the GroupDirectory interface.
func (m *MockGroupDirectory) Members(groupName string) []string {
	args := m.Called(groupName)
	members, _ := args.Get(0).([]string)
	return members
}

// MockExecutionStore is a mock implementation of ExecutionStore for testing.
type MockExecutionStore struct {
	mock.Mock
}

var _ ExecutionStore = &MockExecutionStore{} // Compile-time check

// SaveExecution implements the ExecutionStore interface.
func (m *MockExecutionStore) SaveExecution(ctx context.Context, title string, snap schema.ExecutionSnapshot) error {
	args := m.Called(ctx, title, snap)
	return args.Error(0)
}

// ListExecutions implements the ExecutionStore interface.
func (m *MockExecutionStore) ListExecutions(ctx context.Context, title string) ([]schema.ExecutionSnapshot, error) {
	args := m.Called(ctx, title)
	snaps, _ := args.Get(0).([]schema.ExecutionSnapshot)
	return snaps, args.Error(1)
}

// ListQueries implements the ExecutionStore interface.
func (m *MockExecutionStore) ListQueries(ctx context.Context) ([]schema.QueryInfo, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]schema.QueryInfo)
	return infos, args.Error(1)
}

// GetStatus implements the ExecutionStore interface.
func (m *MockExecutionStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ExecutionStore interface.
func (m *MockExecutionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockClassificationService is a mock implementation of ClassificationService for testing.
type MockClassificationService struct {
	mock.Mock
}

var _ ClassificationService = &MockClassificationService{} // Compile-time check

// Classify implements the ClassificationService interface.
func (m *MockClassificationService) Classify(ctx context.Context, code, codeSystem string) (string, error) {
	args := m.Called(ctx, code, codeSystem)
	return args.String(0), args.Error(1)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetExecutionStore implements the StoreManager interface.
func (m *MockStoreManager) GetExecutionStore() ExecutionStore {
	ret := m.Called()
	store, _ := ret.Get(0).(ExecutionStore)
	return store
}

// GetClassCache implements the StoreManager interface.
func (m *MockStoreManager) GetClassCache() ClassCache {
	ret := m.Called()
	cache, _ := ret.Get(0).(ClassCache)
	return cache
}
