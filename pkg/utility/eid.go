package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies one backtest run. Every fill the market produces is
// stamped with it, so fills from different runs can be told apart in logs
// and exported reports.
type ExecutionID = uuid.UUID

var (
	executionID     ExecutionID
	executionIDOnce sync.Once
	executionIDMu   sync.RWMutex
)

func GetExecutionID() ExecutionID {
	executionIDOnce.Do(func() {
		executionID = uuid.Must(uuid.NewV7())
	})

	executionIDMu.RLock()
	defer executionIDMu.RUnlock()
	return executionID
}

// ResetExecutionID starts a fresh id, for callers that run several
// simulations in one process.
func ResetExecutionID() ExecutionID {
	executionIDMu.Lock()
	defer executionIDMu.Unlock()

	executionID = uuid.Must(uuid.NewV7())
	return executionID
}
