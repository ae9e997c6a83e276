package repositories

import "github.com/stillhouse/lalcalc/pkg/domain/entities"

// BatchRepository provides access to batch snapshots
type BatchRepository interface {
	GetBatch(id entities.BatchID) (*entities.Batch, error)
	GetAllBatches() ([]*entities.Batch, error)
	LoadBatches(batches []*entities.Batch) error
	SaveBatch(batch *entities.Batch) error
}
