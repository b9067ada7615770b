// Package backend selects the finance storage implementation.
package backend

import (
	"database/sql"
	"fmt"

	"github.com/bensuskins/household-hub/internal/config"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/repository/memory"
)

type Type string

const (
	SQLite Type = config.BackendSQLite
	Memory Type = config.BackendMemory
)

func (backendType Type) IsValid() bool {
	return backendType == SQLite || backendType == Memory
}

// NewFinanceStore returns the store named by cfg.DataBackend. The memory
// store keeps nothing across restarts.
func NewFinanceStore(cfg config.Config, database *sql.DB) (repository.FinanceStore, error) {
	switch backendType := Type(cfg.DataBackend); backendType {
	case SQLite:
		if database == nil {
			return nil, fmt.Errorf("sqlite backend needs a database")
		}
		return repository.NewFinanceStore(database), nil
	case Memory:
		return memory.NewFinanceStore(), nil
	default:
		return nil, fmt.Errorf("invalid backend type: %s", backendType)
	}
}
