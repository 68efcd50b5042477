package model

import (
	"sync"

	"github.com/soocke/reel-bot-go/domain/fishing"
)

// StatusModel holds the latest controller status snapshot. The setter runs on
// a status-channel delivery goroutine while the getter runs on the UI tick,
// so access is synchronized.
type StatusModel struct {
	mu sync.Mutex
	st fishing.Status
}

// NewStatusModel returns an initialized StatusModel.
func NewStatusModel() *StatusModel { return &StatusModel{} }

// Set stores the newest snapshot.
func (m *StatusModel) Set(st fishing.Status) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.st = st
	m.mu.Unlock()
}

// Get returns the newest snapshot.
func (m *StatusModel) Get() fishing.Status {
	if m == nil {
		return fishing.Status{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}
