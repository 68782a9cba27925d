package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chris/money-movement/pkg/models"
)

// MemoryStore keeps receipts in process. It is used for local runs when no
// DynamoDB table is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	byRef   map[string]models.Receipt
	owners  map[string]string
	byOwner map[string][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRef:   make(map[string]models.Receipt),
		owners:  make(map[string]string),
		byOwner: make(map[string][]string),
	}
}

// Make sure we conform to the interface
var _ ReceiptStore = (*MemoryStore)(nil)

func (s *MemoryStore) SaveReceipt(_ context.Context, owner string, receipt models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byRef[receipt.ReferenceID]; ok {
		return fmt.Errorf("%w: %s", ErrReceiptExists, receipt.ReferenceID)
	}
	s.byRef[receipt.ReferenceID] = receipt
	s.owners[receipt.ReferenceID] = owner
	s.byOwner[owner] = append(s.byOwner[owner], receipt.ReferenceID)
	return nil
}

func (s *MemoryStore) GetReceipt(_ context.Context, owner, referenceID string) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byRef[referenceID]
	if !ok || s.owners[referenceID] != owner {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, referenceID)
	}
	return &r, nil
}

func (s *MemoryStore) ListReceipts(_ context.Context, owner string, limit int32) ([]models.Receipt, error) {
	s.mu.RLock()
	refs := s.byOwner[owner]
	out := make([]models.Receipt, 0, len(refs))
	for _, ref := range refs {
		out = append(out, s.byRef[ref])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}
