package system

import "sync"

var (
	instanceMu sync.Mutex
	instance   *System
)

// Instance returns the process-wide system, creating it on first use.
func Instance() *System {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = New()
	}
	return instance
}

// Destroy tears down the process-wide system. The host calls it once before
// exit; a later Instance call starts a new system.
func Destroy() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		return
	}
	instance.Destroy()
	instance = nil
}
