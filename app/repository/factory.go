package repository

import (
	"sync"

	"gorm.io/gorm"
)

var (
	globalRepos *Repositories
	globalMu    sync.RWMutex
)

// InitializeFactory builds the process-wide repositories on db. Later calls
// are ignored so a second bootstrap cannot swap handles under running handlers.
func InitializeFactory(db *gorm.DB) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalRepos == nil {
		globalRepos = NewRepositories(db)
	}
}

// GetGlobalRepositories returns the repositories built by InitializeFactory.
func GetGlobalRepositories() *Repositories {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalRepos == nil {
		panic("repositories not initialized, call InitializeFactory first")
	}
	return globalRepos
}
