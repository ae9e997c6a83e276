package memory

import (
	"fmt"
	"sync"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/domain/repositories"
)

// BatchRepository provides in-memory batch storage in insertion order
type BatchRepository struct {
	batches    []entities.Batch
	batchesMap map[entities.BatchID]int
	mutex      sync.RWMutex
}

// NewBatchRepository creates a new in-memory batch repository
func NewBatchRepository(expectedBatches int) *BatchRepository {
	return &BatchRepository{
		batches:    make([]entities.Batch, 0, expectedBatches),
		batchesMap: make(map[entities.BatchID]int, expectedBatches),
	}
}

// Verify interface compliance
var _ repositories.BatchRepository = (*BatchRepository)(nil)

// LoadBatches loads batches into the repository
func (r *BatchRepository) LoadBatches(batches []*entities.Batch) error {
	for _, batch := range batches {
		if err := r.SaveBatch(batch); err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch stores a copy of the batch, replacing any batch with the same id
func (r *BatchRepository) SaveBatch(batch *entities.Batch) error {
	if batch == nil {
		return fmt.Errorf("batch cannot be nil")
	}
	if batch.BatchID == "" {
		return fmt.Errorf("batch id cannot be empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := batch.Clone()
	if index, exists := r.batchesMap[batch.BatchID]; exists {
		r.batches[index] = stored
		return nil
	}
	r.batchesMap[batch.BatchID] = len(r.batches)
	r.batches = append(r.batches, stored)
	return nil
}

// GetBatch returns a copy of the batch with the given id
func (r *BatchRepository) GetBatch(id entities.BatchID) (*entities.Batch, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.batchesMap[id]
	if !exists {
		return nil, fmt.Errorf("batch not found: %s", id)
	}
	batch := r.batches[index].Clone()
	return &batch, nil
}

// GetAllBatches returns copies of all batches in insertion order
func (r *BatchRepository) GetAllBatches() ([]*entities.Batch, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	batches := make([]*entities.Batch, 0, len(r.batches))
	for i := range r.batches {
		batch := r.batches[i].Clone()
		batches = append(batches, &batch)
	}
	return batches, nil
}

// Count returns the number of stored batches
func (r *BatchRepository) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.batches)
}
