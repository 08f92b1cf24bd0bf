package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/engcards/pkg/models"
)

// MemoryStore keeps the persisted record in memory as encoded JSON.
// It is the Store used by tests; the hosts persist through the database.
type MemoryStore struct {
	payload []byte
	Saves   int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*models.State, error) {
	state := &models.State{}
	if m.payload == nil {
		return state, nil
	}
	if err := json.Unmarshal(m.payload, state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, nil
}

func (m *MemoryStore) Save(_ context.Context, state *models.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	m.payload = data
	m.Saves++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.payload = nil
	return nil
}

// Payload returns the raw persisted record, nil when nothing is stored
func (m *MemoryStore) Payload() []byte {
	return m.payload
}
