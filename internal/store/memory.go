package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
)

var ErrNotReserved = errors.New("transaction was never reserved")

// Memory keeps every record for the process lifetime.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]structs.Transaction
	sequence int64
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]structs.Transaction)}
}

func (m *Memory) Get(_ context.Context, transactionID string) (structs.Transaction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.records[transactionID]
	return tx, ok, nil
}

func (m *Memory) Reserve(
	_ context.Context,
	transactionID string,
	payload structs.TransactionPayload,
	at time.Time,
) (structs.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx, ok := m.records[transactionID]; ok {
		return tx, false, nil
	}

	m.sequence++
	tx := structs.Transaction{
		SequenceNumber: m.sequence,
		TransactionID:  transactionID,
		Data:           payload,
		Status:         structs.StatusPending,
		CreatedAt:      at,
	}
	m.records[transactionID] = tx
	return tx, true, nil
}

func (m *Memory) Save(_ context.Context, tx structs.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[tx.TransactionID]; !ok {
		return ErrNotReserved
	}
	m.records[tx.TransactionID] = tx
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
