// Package session keeps per-conversation dialogue state. It is deliberately
// process-local: losing it on restart only forces the user to restart the
// subscription dialogue, never corrupts durable data.
package session

import "sync"

// Stage is the current step of a user's linear subscription dialogue.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageAwaitingName    Stage = "awaiting_name"
	StageAwaitingPayment Stage = "awaiting_payment"
)

// Data is the scratch record accumulated while a user walks the dialogue.
type Data struct {
	Stage          Stage
	FirstName      string
	LastName       string
	PaymentAddress string
	AmountTON      float64
	// ReferralCode is the inviter's code from the start deep link,
	// carried until activation.
	ReferralCode string
}

// Store maps a conversation identity (telegram chat id) to its Data. A
// backing other than the in-memory map can be swapped in without touching
// the router.
type Store interface {
	Get(chatID int64) Data
	Set(chatID int64, data Data)
	Clear(chatID int64)
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Data
}

// NewMemoryStore returns a mutex-guarded in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]Data),
	}
}

// Get returns the stored session or an idle zero session if none exists.
func (s *memoryStore) Get(chatID int64) Data {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, ok := s.sessions[chatID]; ok {
		return data
	}
	return Data{Stage: StageIdle}
}

func (s *memoryStore) Set(chatID int64, data Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = data
}

func (s *memoryStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
