// Package iocache persists query executions and classification answers.
package iocache

import (
	"sync"

	"github.com/huangsam/cohort/internal/contract"
)

// StoreManagerImpl holds the execution store and the classification cache.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	executions   contract.ExecutionStore
	classes      contract.ClassCache
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager wraps existing stores. Either may be nil.
func NewStoreManager(executions contract.ExecutionStore, classes contract.ClassCache) *StoreManagerImpl {
	return &StoreManagerImpl{executions: executions, classes: classes}
}

// GetExecutionStore returns the ExecutionStore.
func (mgr *StoreManagerImpl) GetExecutionStore() contract.ExecutionStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.executions
}

// GetClassCache returns the ClassCache.
func (mgr *StoreManagerImpl) GetClassCache() contract.ClassCache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.classes
}
